package llm

import (
	"context"
	"fmt"
	"regexp"

	"github.com/nmorozova/affin/internal/model"
)

// Narrator wraps a provider and turns a finished report into an optional
// narrative. Generation failures degrade to warnings so the computed
// results are never lost.
type Narrator struct {
	provider Provider
	config   Config
}

// NewNarrator creates a narrator from configuration. With no provider
// configured the narrator is disabled but still usable.
func NewNarrator(config Config) (*Narrator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Narrator{
		provider: provider,
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is configured.
func (n *Narrator) IsEnabled() bool {
	return n.provider != nil
}

// ProviderName returns the configured provider's name, or "".
func (n *Narrator) ProviderName() string {
	if n.provider == nil {
		return ""
	}
	return n.provider.Name()
}

// Generate produces the narrative for a completed report. It is called
// after scoring and cannot change any computed number.
func (n *Narrator) Generate(ctx context.Context, report model.Report) (*model.Narrative, error) {
	if n.provider == nil {
		return nil, nil
	}

	if !n.provider.IsAvailable(ctx) {
		return &model.Narrative{
			Enabled:  false,
			Provider: n.provider.Name(),
			Warnings: []string{fmt.Sprintf("provider %s is not available", n.provider.Name())},
		}, nil
	}

	resp, err := n.provider.Narrate(ctx, NarrateRequest{
		Report:    report,
		Model:     n.config.Model,
		MaxTokens: n.config.MaxTokens,
	})
	if err != nil {
		return &model.Narrative{
			Enabled:  true,
			Provider: n.provider.Name(),
			Model:    n.config.Model,
			Warnings: []string{fmt.Sprintf("narrative generation failed: %v", err)},
		}, nil
	}

	narrative := &model.Narrative{
		Enabled:   true,
		Provider:  n.provider.Name(),
		Model:     resp.Model,
		SummaryMD: resp.Narrative,
		Warnings:  []string{fmt.Sprintf("Tokens used: %d", resp.TokensUsed)},
	}

	if n.config.StrictValues {
		quoted := extractQuotedItems(resp.Narrative)
		if leaked := disallowedItems(quoted, report); len(leaked) > 0 {
			// Drop the text entirely: a narrative naming items outside
			// the rule table cannot be trusted to describe it.
			narrative.SummaryMD = ""
			narrative.Warnings = append(narrative.Warnings,
				fmt.Sprintf("VALUE LEAK: narrative named items outside the rule table, discarded: %v", leaked))
		} else {
			narrative.Warnings = append(narrative.Warnings,
				fmt.Sprintf("Verified %d quoted items against the rule table", len(quoted)))
		}
	}

	return narrative, nil
}

var quotedItemPattern = regexp.MustCompile(`"([^"\n]+)"`)

// extractQuotedItems returns the deduplicated double-quoted phrases in
// the narrative. The prompt instructs the model to quote every item name.
func extractQuotedItems(text string) []string {
	matches := quotedItemPattern.FindAllStringSubmatch(text, -1)

	seen := make(map[string]bool)
	var unique []string
	for _, match := range matches {
		item := match[1]
		if !seen[item] {
			seen[item] = true
			unique = append(unique, item)
		}
	}
	return unique
}

func disallowedItems(quoted []string, report model.Report) []string {
	allowed := make(map[string]bool)
	for _, item := range allowedItems(report) {
		allowed[item] = true
	}

	var leaked []string
	for _, item := range quoted {
		if !allowed[item] {
			leaked = append(leaked, item)
		}
	}
	return leaked
}
