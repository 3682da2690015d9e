package fusion

// Config carries the fusion engine's numeric tuning. Values are loaded
// from YAML with these defaults.
type Config struct {
	PriorWeight       float64 `yaml:"prior_weight"`
	LikelihoodWeight  float64 `yaml:"likelihood_weight"`
	MajorityThreshold float64 `yaml:"majority_threshold"`
	SentimentWeight   float64 `yaml:"sentiment_weight"`
	KeywordWeight     float64 `yaml:"keyword_weight"`
	MinConfidence     float64 `yaml:"min_confidence"`
	BuyThreshold      float64 `yaml:"buy_threshold"`
	SellThreshold     float64 `yaml:"sell_threshold"`
	AdaptationRate    float64 `yaml:"adaptation_rate"`
	RiskThreshold     float64 `yaml:"risk_threshold"`

	FilterLevelWeight     float64 `yaml:"filter_level_weight"`
	AnalysisLevelWeight   float64 `yaml:"analysis_level_weight"`
	PredictionLevelWeight float64 `yaml:"prediction_level_weight"`
}

// DefaultConfig returns the tuned production defaults.
func DefaultConfig() Config {
	return Config{
		PriorWeight:       0.3,
		LikelihoodWeight:  0.7,
		MajorityThreshold: 0.6,
		SentimentWeight:   0.35,
		KeywordWeight:     0.25,
		MinConfidence:     0.6,
		BuyThreshold:      0.3,
		SellThreshold:     -0.3,
		AdaptationRate:    0.1,
		RiskThreshold:     0.7,

		FilterLevelWeight:     0.2,
		AnalysisLevelWeight:   0.5,
		PredictionLevelWeight: 0.3,
	}
}

// fill replaces unset (zero) fields with defaults so a partial YAML
// section still yields a workable engine.
func (c Config) fill() Config {
	def := DefaultConfig()
	if c.PriorWeight == 0 && c.LikelihoodWeight == 0 {
		c.PriorWeight, c.LikelihoodWeight = def.PriorWeight, def.LikelihoodWeight
	}
	if c.MajorityThreshold == 0 {
		c.MajorityThreshold = def.MajorityThreshold
	}
	if c.SentimentWeight == 0 {
		c.SentimentWeight = def.SentimentWeight
	}
	if c.KeywordWeight == 0 {
		c.KeywordWeight = def.KeywordWeight
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = def.MinConfidence
	}
	if c.BuyThreshold == 0 {
		c.BuyThreshold = def.BuyThreshold
	}
	if c.SellThreshold == 0 {
		c.SellThreshold = def.SellThreshold
	}
	if c.AdaptationRate == 0 {
		c.AdaptationRate = def.AdaptationRate
	}
	if c.RiskThreshold == 0 {
		c.RiskThreshold = def.RiskThreshold
	}
	if c.FilterLevelWeight == 0 && c.AnalysisLevelWeight == 0 && c.PredictionLevelWeight == 0 {
		c.FilterLevelWeight = def.FilterLevelWeight
		c.AnalysisLevelWeight = def.AnalysisLevelWeight
		c.PredictionLevelWeight = def.PredictionLevelWeight
	}
	return c
}
