package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers           []string `yaml:"brokers"`
		NewsTopic         string   `yaml:"news_topic"`
		IntelligenceTopic string   `yaml:"intelligence_topic"`
		LogsTopic         string   `yaml:"logs_topic"`
		RequiredAcks      int      `yaml:"required_acks"`
		Compression       string   `yaml:"compression"`
		Producer          struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Newswire struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxRPS         int           `yaml:"max_rps"`
		BufferSize     int           `yaml:"buffer_size"`
	} `yaml:"newswire"`
	Agents struct {
		Mode      string        `yaml:"mode"` // "local" or "remote"
		RemoteURL string        `yaml:"remote_url"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"agents"`
	Analysis struct {
		BaselineAgent string        `yaml:"baseline_agent"`
		AgentTimeout  time.Duration `yaml:"agent_timeout"`
		MaxConcurrent int           `yaml:"max_concurrent"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
		Fusion        struct {
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
		} `yaml:"fusion"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"analysis"`
	Governance struct {
		MaxConcurrentPerAgent int     `yaml:"max_concurrent_per_agent"`
		MaxConcurrentGlobal   int     `yaml:"max_concurrent_global"`
		RateCapacity          float64 `yaml:"rate_capacity"`
		RateRefillPerSec      float64 `yaml:"rate_refill_per_sec"`
	} `yaml:"governance"`
	Queue struct {
		Workers    int           `yaml:"workers"`
		QueueSize  int           `yaml:"queue_size"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("NEWSWIRE_API_KEY"); v != "" {
		c.Newswire.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Newswire.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_NEWS_TOPIC"); v != "" {
		c.Kafka.NewsTopic = v
	}
	if v := os.Getenv("AGENTS_REMOTE_URL"); v != "" {
		c.Agents.RemoteURL = v
		c.Agents.Mode = "remote"
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if len(c.Newswire.Symbols) == 0 {
		return fmt.Errorf("newswire.symbols cannot be empty")
	}
	if c.Newswire.APIKey == "" {
		return fmt.Errorf("newswire.api_key is required")
	}
	if c.Agents.Mode == "remote" && c.Agents.RemoteURL == "" {
		return fmt.Errorf("agents.remote_url is required in remote mode")
	}
	return nil
}
