package model

import "time"

// Report is the complete output of a mining run over one dataset source.
type Report struct {
	Source    string    `json:"source" yaml:"source"`
	LoadedAt  time.Time `json:"loaded_at" yaml:"loaded_at"`
	FetchMeta FetchMeta `json:"fetch_meta,omitempty" yaml:"fetch_meta,omitempty"`

	Transactions  int `json:"transactions" yaml:"transactions"`
	DistinctItems int `json:"distinct_items" yaml:"distinct_items"`

	Mining  MiningParams  `json:"mining" yaml:"mining"`
	Scoring ScoringParams `json:"scoring" yaml:"scoring"`

	FrequentItemsets []FrequentItemset `json:"frequent_itemsets" yaml:"frequent_itemsets"`
	Rules            []Rule            `json:"rules" yaml:"rules"`

	// SkippedItemsets counts size-0/1 entries that cannot yield a rule.
	SkippedItemsets int `json:"skipped_itemsets" yaml:"skipped_itemsets"`

	// LLM is the optional narrative. It is generated after scoring and
	// never affects any computed number.
	LLM *Narrative `json:"llm,omitempty" yaml:"llm,omitempty"`
}

// FetchMeta contains HTTP metadata when the dataset came from a URL.
type FetchMeta struct {
	StatusCode   int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	ContentType  string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	ETag         string `json:"etag,omitempty" yaml:"etag,omitempty"`
	FromCache    bool   `json:"from_cache,omitempty" yaml:"from_cache,omitempty"`
}

// MiningParams records the frequent-itemset mining parameters.
type MiningParams struct {
	MinSupport float64 `json:"min_support" yaml:"min_support"`
	MaxLen     int     `json:"max_len,omitempty" yaml:"max_len,omitempty"`
}

// ScoringParams records the rule filtering parameters.
type ScoringParams struct {
	Metric       Metric  `json:"metric" yaml:"metric"`
	MinThreshold float64 `json:"min_threshold" yaml:"min_threshold"`
}

// Narrative contains the optional LLM-generated explanation of the rule
// table. Clearly separated from the computed results.
type Narrative struct {
	Enabled   bool     `json:"enabled" yaml:"enabled"`
	Provider  string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model     string   `json:"model,omitempty" yaml:"model,omitempty"`
	SummaryMD string   `json:"summary_md,omitempty" yaml:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
