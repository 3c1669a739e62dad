package rules

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/nmorozova/affin/internal/model"
)

// ErrIncompleteSupport reports that a required antecedent or consequent
// subset is missing from the supplied frequent-itemset collection. A
// correctly mined collection always contains every frequent subset, so
// this indicates the caller's input was produced with mismatched
// parameters. Recovery is re-mining with a lower minimum support.
var ErrIncompleteSupport = errors.New("incomplete support data")

// Options control rule generation and filtering.
type Options struct {
	// Metric is the filtering metric; lift when unset.
	Metric model.Metric

	// MinThreshold is the inclusive minimum for the chosen metric.
	// Out-of-range values are accepted: a threshold below the metric's
	// minimum keeps all rules, one above its maximum keeps none.
	MinThreshold float64

	// Workers scores itemsets in parallel when > 1. Output is identical
	// to the sequential run: each itemset's rules land in a fixed slot
	// and are merged in input order.
	Workers int
}

// Result is the outcome of one scoring run.
type Result struct {
	Rules []model.Rule

	// Skipped counts size-0/1 itemsets, which cannot yield a rule.
	Skipped int
}

// Scorer derives association rules from a frequent-itemset collection.
// It is a pure transform over its input: no state, no I/O.
type Scorer struct{}

// NewScorer creates a new scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Generate enumerates, for every itemset of size k >= 2, all 2^k-2 ordered
// antecedent/consequent partitions, computes the five interestingness
// metrics for each, and keeps the rules whose chosen metric meets the
// threshold. Rules are ordered by input itemset, then by partition
// enumeration order, so identical input yields identical output.
func (s *Scorer) Generate(freq []model.FrequentItemset, opt Options) (*Result, error) {
	if opt.Metric == "" {
		opt.Metric = model.MetricLift
	}

	if len(freq) == 0 {
		return &Result{Rules: []model.Rule{}}, nil
	}

	supports := make(map[string]float64, len(freq))
	for _, fi := range freq {
		supports[fi.Itemset.Key()] = fi.Support
	}

	perItemset := make([][]model.Rule, len(freq))

	if opt.Workers > 1 {
		if err := s.scoreParallel(freq, supports, opt, perItemset); err != nil {
			return nil, err
		}
	} else {
		for i := range freq {
			rules, err := s.scoreItemset(freq[i], supports, opt)
			if err != nil {
				return nil, err
			}
			perItemset[i] = rules
		}
	}

	result := &Result{Rules: []model.Rule{}}
	for i, rules := range perItemset {
		if freq[i].Itemset.Size() < 2 {
			result.Skipped++
			continue
		}
		result.Rules = append(result.Rules, rules...)
	}

	return result, nil
}

// scoreParallel scores itemsets concurrently with a bounded number of
// goroutines. Results land in per-itemset slots, preserving order.
func (s *Scorer) scoreParallel(freq []model.FrequentItemset, supports map[string]float64, opt Options, perItemset [][]model.Rule) error {
	var wg sync.WaitGroup
	errs := make([]error, len(freq))
	semaphore := make(chan struct{}, opt.Workers)

	for i := range freq {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			perItemset[idx], errs[idx] = s.scoreItemset(freq[idx], supports, opt)
		}(i)
	}

	wg.Wait()

	// Surface the first failure in input order, matching the eager
	// sequential behavior.
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// scoreItemset generates and filters the rules of a single itemset.
func (s *Scorer) scoreItemset(fi model.FrequentItemset, supports map[string]float64, opt Options) ([]model.Rule, error) {
	items := fi.Itemset.Items()
	k := len(items)
	if k < 2 {
		return nil, nil
	}

	sAC := fi.Support
	var rules []model.Rule

	// Every non-empty proper subset of the itemset as antecedent, its
	// complement as consequent. Complementary masks produce the two
	// directions of each split.
	for mask := 1; mask < (1<<k)-1; mask++ {
		antecedent := make([]string, 0, k-1)
		consequent := make([]string, 0, k-1)
		for bit := 0; bit < k; bit++ {
			if mask&(1<<bit) != 0 {
				antecedent = append(antecedent, items[bit])
			} else {
				consequent = append(consequent, items[bit])
			}
		}

		a := model.NewItemset(antecedent...)
		c := model.NewItemset(consequent...)

		sA, ok := supports[a.Key()]
		if !ok {
			return nil, fmt.Errorf("%w: no support for antecedent %s of %s", ErrIncompleteSupport, a, fi.Itemset)
		}
		sC, ok := supports[c.Key()]
		if !ok {
			return nil, fmt.Errorf("%w: no support for consequent %s of %s", ErrIncompleteSupport, c, fi.Itemset)
		}

		metrics := computeMetrics(sA, sC, sAC)
		if metrics.Value(opt.Metric) >= opt.MinThreshold {
			rules = append(rules, model.Rule{
				Antecedent: a,
				Consequent: c,
				Metrics:    metrics,
			})
		}
	}

	return rules, nil
}

// computeMetrics derives the five interestingness metrics from the
// antecedent, consequent, and joint supports.
func computeMetrics(sA, sC, sAC float64) model.RuleMetrics {
	confidence := sAC / sA

	conviction := math.Inf(1)
	if confidence != 1 {
		conviction = (1 - sC) / (1 - confidence)
	}

	return model.RuleMetrics{
		AntecedentSupport: sA,
		ConsequentSupport: sC,
		Support:           sAC,
		Confidence:        confidence,
		Lift:              confidence / sC,
		Leverage:          sAC - sA*sC,
		Conviction:        conviction,
	}
}
