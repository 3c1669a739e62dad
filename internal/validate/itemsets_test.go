package validate

import (
	"testing"

	"github.com/nmorozova/affin/internal/model"
)

func fi(support float64, items ...string) model.FrequentItemset {
	return model.FrequentItemset{Itemset: model.NewItemset(items...), Support: support}
}

func kinds(issues []Issue) map[IssueKind]int {
	out := make(map[IssueKind]int)
	for _, issue := range issues {
		out[issue.Kind]++
	}
	return out
}

func TestValidate_CleanCollection(t *testing.T) {
	freq := []model.FrequentItemset{
		fi(0.75, "a"), fi(0.75, "b"), fi(0.5, "a", "b"),
	}

	issues := NewItemsetValidator().Validate(freq)
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
	if err := FirstFatal(issues); err != nil {
		t.Errorf("expected no fatal error, got %v", err)
	}
}

func TestValidate_SupportRange(t *testing.T) {
	freq := []model.FrequentItemset{
		fi(0, "a"), fi(1.2, "b"), fi(-0.1, "c"),
	}

	got := kinds(NewItemsetValidator().Validate(freq))
	if got[IssueSupportRange] != 3 {
		t.Errorf("expected 3 range issues, got %v", got)
	}
}

func TestValidate_Duplicate(t *testing.T) {
	freq := []model.FrequentItemset{
		fi(0.5, "a", "b"), fi(0.5, "b", "a"),
		fi(0.6, "a"), fi(0.6, "b"),
	}

	issues := NewItemsetValidator().Validate(freq)
	if kinds(issues)[IssueDuplicate] != 1 {
		t.Errorf("expected order-independent duplicate detection, got %v", issues)
	}
	if FirstFatal(issues) == nil {
		t.Error("duplicates should be fatal")
	}
}

func TestValidate_MissingSubset(t *testing.T) {
	freq := []model.FrequentItemset{
		fi(0.6, "a"), fi(0.5, "a", "b"), // {b} absent
	}

	issues := NewItemsetValidator().Validate(freq)
	if kinds(issues)[IssueMissingSubset] != 1 {
		t.Errorf("expected a missing-subset issue, got %v", issues)
	}
	if FirstFatal(issues) == nil {
		t.Error("missing subsets should be fatal")
	}
}

func TestValidate_Monotonicity(t *testing.T) {
	freq := []model.FrequentItemset{
		fi(0.3, "a"), fi(0.6, "b"), fi(0.5, "a", "b"), // s({a,b}) > s({a})
	}

	issues := NewItemsetValidator().Validate(freq)
	if kinds(issues)[IssueMonotonicity] != 1 {
		t.Errorf("expected a monotonicity issue, got %v", issues)
	}
	// Tolerated: scoring still has a defined result.
	if err := FirstFatal(issues); err != nil {
		t.Errorf("monotonicity should not be fatal, got %v", err)
	}
}

func TestValidate_EmptyCollection(t *testing.T) {
	if issues := NewItemsetValidator().Validate(nil); len(issues) != 0 {
		t.Errorf("expected no issues for empty collection, got %v", issues)
	}
}
