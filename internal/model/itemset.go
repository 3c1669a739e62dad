package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// keySeparator joins items into a canonical key. Unit separator is safe
// because item identifiers come from printable dataset columns.
const keySeparator = "\x1f"

// Itemset is an unordered set of distinct item identifiers.
// The zero value is the empty set.
type Itemset struct {
	items []string // sorted, distinct
}

// NewItemset creates an itemset from the given items.
// Items are deduplicated and blank identifiers are dropped.
func NewItemset(items ...string) Itemset {
	seen := make(map[string]bool, len(items))
	distinct := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		distinct = append(distinct, item)
	}

	sort.Strings(distinct)
	return Itemset{items: distinct}
}

// Size returns the number of items in the set.
func (s Itemset) Size() int {
	return len(s.items)
}

// Items returns the items in sorted order. The returned slice is a copy.
func (s Itemset) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Key returns the canonical representation of the set. Two itemsets built
// from the same items in any order produce the same key, so Key is usable
// for structural equality and as a map key.
func (s Itemset) Key() string {
	return strings.Join(s.items, keySeparator)
}

// Equal reports whether both sets contain exactly the same items.
func (s Itemset) Equal(other Itemset) bool {
	return s.Key() == other.Key()
}

// Contains reports whether the set contains the given item.
func (s Itemset) Contains(item string) bool {
	i := sort.SearchStrings(s.items, item)
	return i < len(s.items) && s.items[i] == item
}

// Union returns a new itemset containing the items of both sets.
func (s Itemset) Union(other Itemset) Itemset {
	return NewItemset(append(s.Items(), other.items...)...)
}

// String formats the set as {a, b, c}.
func (s Itemset) String() string {
	return "{" + strings.Join(s.items, ", ") + "}"
}

// MarshalJSON encodes the set as a sorted JSON array of items.
func (s Itemset) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// UnmarshalJSON decodes a JSON array of items.
func (s *Itemset) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewItemset(items...)
	return nil
}

// MarshalYAML encodes the set as a sorted sequence of items.
func (s Itemset) MarshalYAML() (interface{}, error) {
	if s.items == nil {
		return []string{}, nil
	}
	return s.Items(), nil
}

// FrequentItemset pairs an itemset with its support: the fraction of
// transactions in the universe that contain every item of the set.
type FrequentItemset struct {
	Itemset Itemset `json:"items" yaml:"items"`
	Support float64 `json:"support" yaml:"support"`
}
