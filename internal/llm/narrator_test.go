package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/nmorozova/affin/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *NarrateResponse
	err       error
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Narrate(ctx context.Context, req NarrateRequest) (*NarrateResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func reportWithRules() model.Report {
	return model.Report{
		Source:        "baskets.csv",
		Transactions:  4,
		DistinctItems: 3,
		Mining:        model.MiningParams{MinSupport: 0.25},
		Scoring:       model.ScoringParams{Metric: model.MetricLift, MinThreshold: 1},
		Rules: []model.Rule{
			{
				Antecedent: model.NewItemset("SUGAR"),
				Consequent: model.NewItemset("TEA"),
				Metrics: model.RuleMetrics{
					AntecedentSupport: 0.5,
					ConsequentSupport: 0.75,
					Support:           0.5,
					Confidence:        1.0,
					Lift:              4.0 / 3.0,
					Leverage:          0.125,
				},
			},
		},
	}
}

func TestNewNarrator_DisabledProvider(t *testing.T) {
	narrator, err := NewNarrator(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if narrator.IsEnabled() {
		t.Error("Expected narrator to be disabled")
	}
	if narrator.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}

	narrative, err := narrator.Generate(context.Background(), reportWithRules())
	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
	if narrative != nil {
		t.Error("Expected nil narrative when provider disabled")
	}
}

func TestNewNarrator_UnknownProvider(t *testing.T) {
	if _, err := NewNarrator(Config{Provider: "llamacpp"}); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestNarrator_Generate_ProviderUnavailable(t *testing.T) {
	narrator := &Narrator{
		provider: &MockProvider{name: "test-provider", available: false},
		config:   Config{StrictValues: true},
	}

	narrative, err := narrator.Generate(context.Background(), reportWithRules())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if narrative == nil {
		t.Fatal("Expected narrative object with warnings")
	}
	if narrative.Enabled {
		t.Error("Expected narrative to be marked as disabled")
	}

	found := false
	for _, warning := range narrative.Warnings {
		if strings.Contains(warning, "not available") {
			found = true
		}
	}
	if !found {
		t.Error("Expected warning about provider unavailability")
	}
}

func TestNarrator_Generate_Success(t *testing.T) {
	narrator := &Narrator{
		provider: &MockProvider{
			name:      "test-provider",
			available: true,
			response: &NarrateResponse{
				Narrative:  `Baskets containing "SUGAR" always contain "TEA".`,
				Model:      "test-model",
				TokensUsed: 150,
			},
		},
		config: Config{Model: "test-model", StrictValues: true},
	}

	narrative, err := narrator.Generate(context.Background(), reportWithRules())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if narrative == nil {
		t.Fatal("Expected narrative to be generated")
	}
	if !narrative.Enabled {
		t.Error("Expected narrative to be enabled")
	}
	if narrative.Provider != "test-provider" {
		t.Errorf("Expected provider 'test-provider', got '%s'", narrative.Provider)
	}
	if narrative.Model != "test-model" {
		t.Errorf("Expected model 'test-model', got '%s'", narrative.Model)
	}
	if !strings.Contains(narrative.SummaryMD, "SUGAR") {
		t.Errorf("Expected narrative text to survive, got '%s'", narrative.SummaryMD)
	}

	foundTokens := false
	foundVerified := false
	for _, warning := range narrative.Warnings {
		if strings.Contains(warning, "Tokens used") {
			foundTokens = true
		}
		if strings.Contains(warning, "Verified") {
			foundVerified = true
		}
	}
	if !foundTokens {
		t.Error("Expected warning about tokens used")
	}
	if !foundVerified {
		t.Error("Expected warning about verified items")
	}
}

func TestNarrator_Generate_ValueLeakDiscarded(t *testing.T) {
	narrator := &Narrator{
		provider: &MockProvider{
			name:      "test-provider",
			available: true,
			response: &NarrateResponse{
				Narrative: `Shoppers buying "SUGAR" also love "BISCUITS".`,
				Model:     "test-model",
			},
		},
		config: Config{StrictValues: true},
	}

	narrative, err := narrator.Generate(context.Background(), reportWithRules())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if narrative.SummaryMD != "" {
		t.Errorf("Expected leaked narrative to be discarded, got '%s'", narrative.SummaryMD)
	}

	found := false
	for _, warning := range narrative.Warnings {
		if strings.Contains(warning, "VALUE LEAK") && strings.Contains(warning, "BISCUITS") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected value leak warning naming BISCUITS, got %v", narrative.Warnings)
	}
}

func TestNarrator_Generate_ProviderError(t *testing.T) {
	narrator := &Narrator{
		provider: &MockProvider{
			name:      "test-provider",
			available: true,
			err:       &mockError{msg: "API rate limit exceeded"},
		},
		config: Config{Model: "test-model", StrictValues: true},
	}

	narrative, err := narrator.Generate(context.Background(), reportWithRules())

	// Should not fail the run, just return a narrative with warnings
	if err != nil {
		t.Errorf("Expected no error (graceful degradation), got %v", err)
	}
	if narrative == nil {
		t.Fatal("Expected narrative with error warning")
	}

	found := false
	for _, warning := range narrative.Warnings {
		if strings.Contains(warning, "failed") && strings.Contains(warning, "rate limit") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected warning to mention error: %v", narrative.Warnings)
	}
}

func TestBuildPrompt_BasicStructure(t *testing.T) {
	prompt := BuildPrompt(reportWithRules())

	requiredElements := []string{
		"CRITICAL RULES",
		"MUST ONLY mention items from this allowed list",
		`"SUGAR"`,
		`"TEA"`,
		"Never claim causation",
		"Source: baskets.csv",
		"Transactions: 4",
		"Distinct items: 3",
		"{SUGAR} => {TEA}",
		"confidence=1.0000",
	}

	for _, element := range requiredElements {
		if !strings.Contains(prompt, element) {
			t.Errorf("Expected prompt to contain '%s'", element)
		}
	}
}

func TestBuildPrompt_EmptyRuleTable(t *testing.T) {
	report := reportWithRules()
	report.Rules = nil

	prompt := BuildPrompt(report)

	if !strings.Contains(prompt, "No items") {
		t.Error("Expected message about empty allowed list")
	}
	if !strings.Contains(prompt, "(empty)") {
		t.Error("Expected empty rule table marker")
	}
}

func TestBuildPrompt_ManyRulesTruncated(t *testing.T) {
	report := reportWithRules()
	var rules []model.Rule
	for i := 0; i < 25; i++ {
		rules = append(rules, report.Rules[0])
	}
	report.Rules = rules

	prompt := BuildPrompt(report)

	if !strings.Contains(prompt, "and 5 more rules") {
		t.Error("Expected truncation message for many rules")
	}
}

func TestExtractQuotedItems(t *testing.T) {
	items := extractQuotedItems(`Buy "TEA" with "SUGAR", then more "TEA".`)

	if len(items) != 2 {
		t.Fatalf("Expected 2 unique items, got %v", items)
	}
	if items[0] != "TEA" || items[1] != "SUGAR" {
		t.Errorf("Unexpected items: %v", items)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Provider != "" {
		t.Errorf("Expected provider to be empty (disabled), got '%s'", config.Provider)
	}
	if !config.StrictValues {
		t.Error("Expected strict values to be enabled by default")
	}
	if config.Timeout <= 0 {
		t.Error("Expected positive timeout")
	}
	if config.MaxTokens <= 0 {
		t.Error("Expected positive max tokens")
	}
}

// Mock error type for testing
type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}
