package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Symbol   string `json:"symbol" validate:"required"`
	Headline string `json:"headline" validate:"required,min=3"`
	Body     string `json:"body"`
	Source   string `json:"source" default:"api"`
}

type RecentIntelligenceRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
	From   string `query:"from" json:"from"` // RFC3339 or unix seconds; default now-24h
	To     string `query:"to" json:"to"`     // RFC3339 or unix seconds; default now
}
