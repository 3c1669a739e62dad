package model

import (
	"runtime"
	"time"
)

// Config is the full tool configuration. Values come from, in priority
// order: CLI flags, AFFIN_* environment variables, the config file, and
// the defaults below.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Cache       CacheConfig       `yaml:"cache"`
	Dataset     DatasetConfig     `yaml:"dataset"`
	Mining      MiningConfig      `yaml:"mining"`
	Rules       RulesConfig       `yaml:"rules"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Output      OutputConfig      `yaml:"output"`
	LLM         LLMConfig         `yaml:"llm"`
}

// HTTPConfig controls dataset downloads.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls"`
	CheckRobots  bool          `yaml:"check_robots"`
	HTTPProxy    string        `yaml:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy"`
}

// CacheConfig controls caching of downloaded dataset bytes.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// DatasetConfig maps dataset columns to the basket model and controls
// row cleaning.
type DatasetConfig struct {
	InvoiceColumn  string `yaml:"invoice_column"`
	ItemColumn     string `yaml:"item_column"`
	QuantityColumn string `yaml:"quantity_column"`
	CountryColumn  string `yaml:"country_column"`
	Country        string `yaml:"country"`      // optional filter, empty = all
	KeepCredits    bool   `yaml:"keep_credits"` // keep C-prefixed credit invoices
}

// MiningConfig controls frequent-itemset mining.
type MiningConfig struct {
	MinSupport float64 `yaml:"min_support"`
	MaxLen     int     `yaml:"max_len"` // 0 = unbounded
}

// RulesConfig controls rule generation and filtering.
type RulesConfig struct {
	Metric       string  `yaml:"metric"` // lift or confidence
	MinThreshold float64 `yaml:"min_threshold"`
	Workers      int     `yaml:"workers"` // itemsets scored in parallel, 1 = sequential
}

// ConcurrencyConfig controls batch processing.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitConfig controls polite downloading.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
	TopRules      int  `yaml:"top_rules"` // rows in the console/Markdown table
}

// LLMConfig controls the optional narrative generation.
type LLMConfig struct {
	Provider     string `yaml:"provider"` // openai, ollama, "" = disabled
	Model        string `yaml:"model"`
	APIKey       string `yaml:"-"` // from environment only, never persisted
	BaseURL      string `yaml:"base_url"`
	Timeout      int    `yaml:"timeout"` // seconds
	MaxTokens    int    `yaml:"max_tokens"`
	StrictValues bool   `yaml:"strict_values"` // reject narratives citing items outside the rule table
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      2 * time.Minute,
			UserAgent:    "Affin/0.2 (+https://github.com/nmorozova/affin)",
			MaxBodyBytes: 64_000_000,
			CheckRobots:  true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Dataset: DatasetConfig{
			InvoiceColumn:  "InvoiceNo",
			ItemColumn:     "Description",
			QuantityColumn: "Quantity",
			CountryColumn:  "Country",
		},
		Mining: MiningConfig{
			MinSupport: 0.02,
			MaxLen:     4,
		},
		Rules: RulesConfig{
			Metric:       string(MetricLift),
			MinThreshold: 1.0,
			Workers:      1,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			TopRules:      20,
		},
		LLM: LLMConfig{
			Timeout:      30,
			MaxTokens:    1000,
			StrictValues: true,
		},
	}
}
