package llm

import (
	"context"
	"fmt"
	"sort"

	"github.com/nmorozova/affin/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Narrate generates a prose explanation of the rule table
	Narrate(ctx context.Context, req NarrateRequest) (*NarrateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// NarrateRequest contains the input for narrative generation
type NarrateRequest struct {
	// Report is the completed mining report. Every number in it was
	// computed before the provider is called.
	Report model.Report

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// NarrateResponse contains the LLM's narrative output
type NarrateResponse struct {
	// Narrative is the generated text
	Narrative string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictValues rejects narratives that quote item names absent from
	// the rule table (should always be true)
	StrictValues bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:     "", // Disabled by default
		Model:        "",
		Timeout:      30,
		StrictValues: true,
		MaxTokens:    1000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:     modelConfig.Provider,
		Model:        modelConfig.Model,
		APIKey:       modelConfig.APIKey,
		BaseURL:      modelConfig.BaseURL,
		Timeout:      modelConfig.Timeout,
		StrictValues: modelConfig.StrictValues,
		MaxTokens:    modelConfig.MaxTokens,
	}
}

// NewProvider creates an LLM provider based on configuration. An empty
// provider name disables narration and returns nil, nil.
func NewProvider(config Config) (Provider, error) {
	switch config.Provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// maxPromptRules caps the rule table embedded in the prompt to avoid
// token bloat on large reports.
const maxPromptRules = 20

// BuildPrompt constructs the default narration prompt. The narrative is
// commentary only: the prompt pins the model to the items and numbers
// already computed.
func BuildPrompt(report model.Report) string {
	prompt := fmt.Sprintf(`You are explaining an association-rule mining report over retail transactions.

CRITICAL RULES:
1. You MUST ONLY mention items from this allowed list, always in double quotes:
%s

2. You MUST ONLY use the support, confidence, lift, leverage, and conviction values printed below. Do not compute, estimate, or round differently.
3. Rules describe co-occurrence in this dataset. Never claim causation. Use phrases like:
   - "Baskets containing X tend to also contain Y..."
   - "This pairing appears N%% more often than independence would predict..."
4. If the table is empty, say no rule passed the threshold.

Report Summary:
- Source: %s
- Transactions: %d
- Distinct items: %d
- Frequent itemsets: %d (min support %.4g)
- Rules passing %s >= %.4g: %d

Rule Table:
%s
Provide a 3-5 sentence summary of the strongest patterns.`,
		joinItems(allowedItems(report)),
		report.Source,
		report.Transactions,
		report.DistinctItems,
		len(report.FrequentItemsets),
		report.Mining.MinSupport,
		report.Scoring.Metric,
		report.Scoring.MinThreshold,
		len(report.Rules),
		ruleLines(report))

	return prompt
}

// allowedItems collects the distinct items appearing in the rule table,
// sorted for a stable prompt.
func allowedItems(report model.Report) []string {
	seen := make(map[string]bool)
	for _, rule := range report.Rules {
		for _, item := range rule.Antecedent.Items() {
			seen[item] = true
		}
		for _, item := range rule.Consequent.Items() {
			seen[item] = true
		}
	}

	items := make([]string, 0, len(seen))
	for item := range seen {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

func joinItems(items []string) string {
	if len(items) == 0 {
		return "(No items: the rule table is empty)"
	}
	result := ""
	for i, item := range items {
		if i >= 50 {
			result += fmt.Sprintf("\n... and %d more items", len(items)-50)
			break
		}
		result += fmt.Sprintf("\n- %q", item)
	}
	return result
}

func ruleLines(report model.Report) string {
	if len(report.Rules) == 0 {
		return "(empty)\n"
	}

	result := ""
	for i, rule := range report.Rules {
		if i >= maxPromptRules {
			result += fmt.Sprintf("... and %d more rules\n", len(report.Rules)-maxPromptRules)
			break
		}
		m := rule.Metrics
		result += fmt.Sprintf("- %s: support=%.4f confidence=%.4f lift=%.4f leverage=%.4f\n",
			rule, m.Support, m.Confidence, m.Lift, m.Leverage)
	}
	return result
}
