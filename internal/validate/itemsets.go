// Package validate checks a frequent-itemset collection against the
// preconditions of rule scoring before any rule is derived.
package validate

import (
	"fmt"

	"github.com/nmorozova/affin/internal/model"
)

// IssueKind classifies a collection problem.
type IssueKind string

const (
	// IssueSupportRange: a support outside (0,1].
	IssueSupportRange IssueKind = "support_range"
	// IssueDuplicate: the same itemset listed twice.
	IssueDuplicate IssueKind = "duplicate"
	// IssueMissingSubset: a subset needed as antecedent or consequent is
	// absent, so scoring would fail.
	IssueMissingSubset IssueKind = "missing_subset"
	// IssueMonotonicity: a superset reported more support than one of its
	// subsets, which anti-monotonicity forbids.
	IssueMonotonicity IssueKind = "monotonicity"
)

// Fatal reports whether scoring cannot proceed with this kind of issue.
// Monotonicity violations are reported but tolerated: they usually mean
// float noise in externally supplied supports, and scoring still has a
// defined result.
func (k IssueKind) Fatal() bool {
	return k != IssueMonotonicity
}

// Issue is one problem found in the collection.
type Issue struct {
	Kind    IssueKind     `json:"kind"`
	Itemset model.Itemset `json:"itemset"`
	Detail  string        `json:"detail"`
}

// ItemsetValidator checks mined or externally supplied collections.
type ItemsetValidator struct{}

// NewItemsetValidator creates a validator.
func NewItemsetValidator() *ItemsetValidator {
	return &ItemsetValidator{}
}

// tolerance absorbs rounding in supports computed elsewhere.
const tolerance = 1e-9

// Validate returns every issue found, in input order.
func (v *ItemsetValidator) Validate(freq []model.FrequentItemset) []Issue {
	var issues []Issue

	supports := make(map[string]float64, len(freq))
	for _, fi := range freq {
		key := fi.Itemset.Key()

		if fi.Support <= 0 || fi.Support > 1 {
			issues = append(issues, Issue{
				Kind:    IssueSupportRange,
				Itemset: fi.Itemset,
				Detail:  fmt.Sprintf("support %v outside (0,1]", fi.Support),
			})
		}

		if _, dup := supports[key]; dup {
			issues = append(issues, Issue{
				Kind:    IssueDuplicate,
				Itemset: fi.Itemset,
				Detail:  "itemset listed more than once",
			})
			continue
		}
		supports[key] = fi.Support
	}

	// Immediate subsets suffice: if every one-item-removed subset of every
	// itemset is present, induction over the levels gives the full
	// downward closure the scorer relies on.
	for _, fi := range freq {
		items := fi.Itemset.Items()
		if len(items) < 2 {
			continue
		}

		subset := make([]string, 0, len(items)-1)
		for drop := range items {
			subset = subset[:0]
			for i, item := range items {
				if i != drop {
					subset = append(subset, item)
				}
			}

			sub := model.NewItemset(subset...)
			subSupport, ok := supports[sub.Key()]
			if !ok {
				issues = append(issues, Issue{
					Kind:    IssueMissingSubset,
					Itemset: fi.Itemset,
					Detail:  fmt.Sprintf("subset %s has no support entry", sub),
				})
				continue
			}

			if subSupport+tolerance < fi.Support {
				issues = append(issues, Issue{
					Kind:    IssueMonotonicity,
					Itemset: fi.Itemset,
					Detail:  fmt.Sprintf("support %v exceeds subset %s support %v", fi.Support, sub, subSupport),
				})
			}
		}
	}

	return issues
}

// FirstFatal returns an error for the first fatal issue, or nil.
func FirstFatal(issues []Issue) error {
	for _, issue := range issues {
		if issue.Kind.Fatal() {
			return fmt.Errorf("invalid itemset collection (%s): %s %s", issue.Kind, issue.Itemset, issue.Detail)
		}
	}
	return nil
}
