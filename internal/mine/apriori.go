package mine

import (
	"fmt"
	"sort"

	"github.com/nmorozova/affin/internal/model"
)

// Miner finds frequent itemsets with the classic level-wise apriori
// search. Because support is anti-monotone, the output always contains
// every frequent subset of every emitted itemset, which is exactly the
// input contract of the rule scorer.
type Miner struct {
	minSupport float64
	maxLen     int
}

// NewMiner creates a miner. minSupport is the inclusive minimum fraction
// of transactions an itemset must occur in; maxLen caps itemset size
// (0 = unbounded).
func NewMiner(minSupport float64, maxLen int) (*Miner, error) {
	if minSupport <= 0 || minSupport > 1 {
		return nil, fmt.Errorf("min support must be in (0,1], got %v", minSupport)
	}
	return &Miner{minSupport: minSupport, maxLen: maxLen}, nil
}

// Mine returns all frequent itemsets of the universe ordered by size,
// then lexicographically, with exact supports.
func (m *Miner) Mine(universe model.Universe) ([]model.FrequentItemset, error) {
	n := universe.Size()
	if n == 0 {
		return []model.FrequentItemset{}, nil
	}

	frequent := []model.FrequentItemset{}

	// Level 1: singleton counts in one pass.
	counts := make(map[string]int)
	for _, tx := range universe {
		for _, item := range tx.Items.Items() {
			counts[item]++
		}
	}

	var current [][]string // item slices of the current level, sorted
	for item, count := range counts {
		if support(count, n) >= m.minSupport {
			current = append(current, []string{item})
		}
	}
	sortLevel(current)

	for _, items := range current {
		frequent = append(frequent, model.FrequentItemset{
			Itemset: model.NewItemset(items...),
			Support: support(counts[items[0]], n),
		})
	}

	size := 1
	for len(current) > 0 {
		if m.maxLen > 0 && size >= m.maxLen {
			break
		}
		size++

		candidates := joinLevel(current)
		candidates = pruneLevel(candidates, current)

		var next [][]string
		for _, cand := range candidates {
			count := 0
			for _, tx := range universe {
				if containsAll(tx.Items, cand) {
					count++
				}
			}
			s := support(count, n)
			if s >= m.minSupport {
				next = append(next, cand)
				frequent = append(frequent, model.FrequentItemset{
					Itemset: model.NewItemset(cand...),
					Support: s,
				})
			}
		}

		current = next
	}

	return frequent, nil
}

func support(count, n int) float64 {
	return float64(count) / float64(n)
}

// joinLevel merges pairs of size-k itemsets sharing their first k-1 items
// into size-k+1 candidates. Input and output are sorted item slices.
func joinLevel(level [][]string) [][]string {
	var candidates [][]string

	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			a, b := level[i], level[j]
			k := len(a)

			if !samePrefix(a, b, k-1) {
				// Levels are lexicographically sorted, so once the
				// prefix diverges no later j can match either.
				break
			}

			cand := make([]string, k+1)
			copy(cand, a)
			if a[k-1] < b[k-1] {
				cand[k] = b[k-1]
			} else {
				cand[k-1], cand[k] = b[k-1], a[k-1]
			}
			candidates = append(candidates, cand)
		}
	}

	return candidates
}

// pruneLevel drops candidates with an infrequent size-k subset.
func pruneLevel(candidates, level [][]string) [][]string {
	known := make(map[string]bool, len(level))
	for _, items := range level {
		known[model.NewItemset(items...).Key()] = true
	}

	kept := candidates[:0]
	for _, cand := range candidates {
		ok := true
		subset := make([]string, 0, len(cand)-1)
		for drop := range cand {
			subset = subset[:0]
			for i, item := range cand {
				if i != drop {
					subset = append(subset, item)
				}
			}
			if !known[model.NewItemset(subset...).Key()] {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, cand)
		}
	}

	return kept
}

func samePrefix(a, b []string, k int) bool {
	for i := 0; i < k; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsAll(tx model.Itemset, items []string) bool {
	for _, item := range items {
		if !tx.Contains(item) {
			return false
		}
	}
	return true
}

func sortLevel(level [][]string) {
	sort.Slice(level, func(i, j int) bool {
		a, b := level[i], level[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
}
