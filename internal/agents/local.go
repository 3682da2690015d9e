package agents

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"MarketMind/internal/domain/models"
)

// Local agents are simple lexicon/rule scorers. They are opaque to the
// core; sophistication lives behind the executor contract and can be
// swapped for the remote service without touching the scheduler.

var positiveWords = []string{
	"beat", "beats", "surge", "surges", "rally", "record", "growth",
	"upgrade", "upgraded", "strong", "profit", "gain", "gains", "bullish",
	"outperform", "exceeds", "soar", "soars", "breakthrough",
}

var negativeWords = []string{
	"miss", "misses", "plunge", "plunges", "drop", "drops", "downgrade",
	"downgraded", "weak", "loss", "losses", "bearish", "underperform",
	"lawsuit", "recall", "fraud", "layoff", "layoffs", "bankruptcy",
	"decline", "declines", "warning",
}

var riskWords = []string{
	"volatility", "uncertainty", "investigation", "probe", "sanction",
	"default", "litigation", "exposure", "downgrade", "warning",
	"restatement", "shortfall",
}

var defaultKeywords = []string{
	"earnings", "revenue", "guidance", "dividend", "merger", "acquisition",
	"ipo", "buyback", "forecast", "inflation", "rates", "fed", "sec",
	"regulation", "tariff", "outlook",
}

var trendUpWords = []string{"momentum", "uptrend", "breakout", "accelerating", "expansion"}
var trendDownWords = []string{"downtrend", "reversal", "slowdown", "contraction", "correction"}

var tickerPattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

var orgSuffixes = []string{"Inc", "Corp", "Ltd", "LLC", "Group", "Holdings", "Bank", "Capital"}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func countHits(tokens []string, lexicon []string) int {
	set := make(map[string]bool, len(lexicon))
	for _, w := range lexicon {
		set[w] = true
	}
	hits := 0
	for _, tok := range tokens {
		if set[strings.Trim(tok, ".,!?;:'\"()")] {
			hits++
		}
	}
	return hits
}

func validationAgent(_ context.Context, input models.AgentInput) (models.RawPayload, error) {
	var issues []string
	if strings.TrimSpace(input.Text) == "" {
		issues = append(issues, "empty_text")
	}
	if input.Symbol == "" {
		issues = append(issues, "missing_symbol")
	}
	if len(input.Text) < 20 {
		issues = append(issues, "text_too_short")
	}
	confidence := 0.95
	if len(issues) > 0 {
		confidence = 0.95 - 0.25*float64(len(issues))
		if confidence < 0.1 {
			confidence = 0.1
		}
	}
	return models.RawPayload{
		"valid":      len(issues) == 0,
		"issues":     issues,
		"confidence": confidence,
	}, nil
}

func relevanceAgent(_ context.Context, input models.AgentInput) (models.RawPayload, error) {
	tokens := tokenize(input.Text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no tokens to score")
	}
	hits := countHits(tokens, defaultKeywords)
	score := math.Min(float64(hits)/3.0, 1.0)
	var issues []string
	if score < 0.3 {
		issues = append(issues, "low_financial_relevance")
	}
	return models.RawPayload{
		"valid":      score >= 0.3,
		"issues":     issues,
		"confidence": 0.5 + 0.5*score,
	}, nil
}

func sentimentAgent(_ context.Context, input models.AgentInput) (models.RawPayload, error) {
	tokens := tokenize(input.Text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no tokens to score")
	}
	pos := countHits(tokens, positiveWords)
	neg := countHits(tokens, negativeWords)
	total := pos + neg

	polarity := 0.0
	if total > 0 {
		polarity = float64(pos-neg) / float64(total)
	}
	// confidence grows with signal density, capped below certainty
	confidence := math.Min(0.5+float64(total)*0.1, 0.95)
	if total == 0 {
		confidence = 0.3
	}

	label := "neutral"
	if polarity > 0.1 {
		label = "positive"
	} else if polarity < -0.1 {
		label = "negative"
	}
	return models.RawPayload{
		"polarity":   polarity,
		"label":      label,
		"confidence": confidence,
	}, nil
}

func keywordAgent(_ context.Context, input models.AgentInput) (models.RawPayload, error) {
	targets := defaultKeywords
	if hint, ok := input.Metadata["target_keywords"].([]string); ok && len(hint) > 0 {
		targets = hint
	}
	lower := strings.ToLower(input.Text)
	var found []string
	for _, kw := range targets {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return models.RawPayload{"found_keywords": found}, nil
}

func entityAgent(_ context.Context, input models.AgentInput) (models.RawPayload, error) {
	symbols := map[string]bool{}
	for _, m := range tickerPattern.FindAllString(input.Text, -1) {
		symbols[m] = true
	}
	if input.Symbol != "" {
		symbols[strings.ToUpper(input.Symbol)] = true
	}

	var orgs []string
	words := strings.Fields(input.Text)
	for i := 1; i < len(words); i++ {
		for _, suffix := range orgSuffixes {
			if strings.TrimRight(words[i], ".,") == suffix {
				orgs = append(orgs, words[i-1]+" "+suffix)
			}
		}
	}

	symList := make([]string, 0, len(symbols))
	for s := range symbols {
		symList = append(symList, s)
	}
	confidence := 0.6
	if len(symList) > 0 {
		confidence = 0.8
	}
	return models.RawPayload{
		"symbols":       symList,
		"organizations": orgs,
		"confidence":    confidence,
	}, nil
}

func riskAgent(_ context.Context, input models.AgentInput) (models.RawPayload, error) {
	tokens := tokenize(input.Text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no tokens to score")
	}
	hits := countHits(tokens, riskWords)
	severity := math.Min(float64(hits)/4.0, 1.0)
	label := "neutral"
	if severity > 0.25 {
		label = "negative"
	}
	return models.RawPayload{
		"polarity":   -severity,
		"label":      label,
		"confidence": math.Min(0.4+float64(hits)*0.15, 0.9),
	}, nil
}

func impactAgent(_ context.Context, input models.AgentInput) (models.RawPayload, error) {
	tokens := tokenize(input.Text)
	pos := countHits(tokens, positiveWords)
	neg := countHits(tokens, negativeWords)
	kw := countHits(tokens, defaultKeywords)

	direction := "flat"
	if pos > neg {
		direction = "up"
	} else if neg > pos {
		direction = "down"
	}
	magnitude := math.Min(float64(pos+neg)*0.12+float64(kw)*0.05, 1.0)
	return models.RawPayload{
		"direction":  direction,
		"magnitude":  magnitude,
		"confidence": math.Min(0.45+magnitude*0.4, 0.9),
	}, nil
}

func trendAgent(_ context.Context, input models.AgentInput) (models.RawPayload, error) {
	tokens := tokenize(input.Text)
	up := countHits(tokens, trendUpWords)
	down := countHits(tokens, trendDownWords)

	direction := "flat"
	if up > down {
		direction = "up"
	} else if down > up {
		direction = "down"
	}
	magnitude := math.Min(float64(up+down)*0.2, 1.0)
	confidence := 0.35
	if up+down > 0 {
		confidence = math.Min(0.5+float64(up+down)*0.1, 0.85)
	}
	return models.RawPayload{
		"direction":  direction,
		"magnitude":  magnitude,
		"confidence": confidence,
	}, nil
}
