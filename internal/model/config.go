package model

import "time"

// Config is the complete ClauseLens configuration
// Hierarchy (highest first): CLI flags, CLAUSELENS_* env vars, config file, defaults
type Config struct {
	Limits      LimitsConfig      `yaml:"limits" mapstructure:"limits"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Classifier  ClassifierConfig  `yaml:"classifier" mapstructure:"classifier"`
	Rules       RulesConfig       `yaml:"rules" mapstructure:"rules"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// LimitsConfig bounds the text accepted at the boundary (the engine itself accepts anything)
type LimitsConfig struct {
	MinChars int `yaml:"min_chars" mapstructure:"min_chars"`
	MaxChars int `yaml:"max_chars" mapstructure:"max_chars"`
}

// ScoringConfig holds the risk score constants
type ScoringConfig struct {
	Base             int `yaml:"base" mapstructure:"base"`
	HighWeight       int `yaml:"high_weight" mapstructure:"high_weight"`
	MediumWeight     int `yaml:"medium_weight" mapstructure:"medium_weight"`
	LowWeight        int `yaml:"low_weight" mapstructure:"low_weight"`
	ShortTextChars   int `yaml:"short_text_chars" mapstructure:"short_text_chars"`
	ShortTextPenalty int `yaml:"short_text_penalty" mapstructure:"short_text_penalty"`
	HighLevelAt      int `yaml:"high_level_at" mapstructure:"high_level_at"`
	MediumLevelAt    int `yaml:"medium_level_at" mapstructure:"medium_level_at"`
	MinScore         int `yaml:"min_score" mapstructure:"min_score"`
	MaxScore         int `yaml:"max_score" mapstructure:"max_score"`
}

// ClassifierConfig holds the document-type scoring constants
type ClassifierConfig struct {
	PrimaryPoints     int     `yaml:"primary_points" mapstructure:"primary_points"`
	SecondaryPoints   int     `yaml:"secondary_points" mapstructure:"secondary_points"`
	ConfidenceDivisor float64 `yaml:"confidence_divisor" mapstructure:"confidence_divisor"`
	GeneralConfidence float64 `yaml:"general_confidence" mapstructure:"general_confidence"`
}

// RulesConfig points at an alternate rule catalog
type RulesConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"` // Empty uses the embedded catalog
}

// HTTPConfig configures fetching contracts by URL
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`

	// AllowPrivateHosts lets URL fetches reach loopback and private networks
	AllowPrivateHosts bool `yaml:"allow_private_hosts" mapstructure:"allow_private_hosts"`
}

// CacheConfig configures the analysis result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig configures batch workers
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	FreeDailyLimit    int           `yaml:"free_daily_limit" mapstructure:"free_daily_limit"` // 0 disables metering
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	ShareTTL          time.Duration `yaml:"share_ttl" mapstructure:"share_ttl"`
}

// LLMConfig configures the optional LLM digest
type LLMConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"` // openai, ollama, or empty (disabled)
	Model       string `yaml:"model" mapstructure:"model"`
	APIKey      string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	StrictFlags bool   `yaml:"strict_flags" mapstructure:"strict_flags"`
}

// LoggingConfig configures logrus
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// OutputConfig configures report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			MinChars: 50,
			MaxChars: 200_000,
		},
		Scoring: ScoringConfig{
			Base:             20,
			HighWeight:       12,
			MediumWeight:     6,
			LowWeight:        3,
			ShortTextChars:   500,
			ShortTextPenalty: 10,
			HighLevelAt:      70,
			MediumLevelAt:    40,
			MinScore:         5,
			MaxScore:         100,
		},
		Classifier: ClassifierConfig{
			PrimaryPoints:     10,
			SecondaryPoints:   5,
			ConfidenceDivisor: 15,
			GeneralConfidence: 0.3,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "ClauseLens/0.1 (+https://github.com/ppiankov/clauselens)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".clauselens-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Addr:              ":3400",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			FreeDailyLimit:    5,
			RequestsPerSecond: 2,
			Burst:             5,
			ShareTTL:          30 * 24 * time.Hour,
		},
		LLM: LLMConfig{
			Timeout:     30,
			MaxTokens:   800,
			StrictFlags: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
