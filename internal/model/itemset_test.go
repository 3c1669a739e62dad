package model

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestNewItemset_Canonical(t *testing.T) {
	a := NewItemset("bread", "milk", "eggs")
	b := NewItemset("milk", "eggs", "bread")

	if !a.Equal(b) {
		t.Errorf("expected order-independent equality, keys %q vs %q", a.Key(), b.Key())
	}

	if a.Size() != 3 {
		t.Errorf("expected size 3, got %d", a.Size())
	}
}

func TestNewItemset_DedupeAndBlank(t *testing.T) {
	s := NewItemset("milk", "milk", "  ", "", "bread ")

	if s.Size() != 2 {
		t.Errorf("expected 2 distinct items, got %d (%s)", s.Size(), s)
	}
	if !s.Contains("bread") {
		t.Error("expected trimmed item to be present")
	}
}

func TestItemset_Union(t *testing.T) {
	u := NewItemset("a", "b").Union(NewItemset("b", "c"))
	if u.Key() != NewItemset("a", "b", "c").Key() {
		t.Errorf("unexpected union: %s", u)
	}
}

func TestItemset_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(NewItemset("tea", "sugar"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["sugar","tea"]` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var back Itemset
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Key() != NewItemset("sugar", "tea").Key() {
		t.Errorf("round trip mismatch: %s", back)
	}
}

func TestRuleMetrics_JSONConviction(t *testing.T) {
	bounded := RuleMetrics{Confidence: 0.5, Conviction: 2.0}
	data, err := json.Marshal(bounded)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"conviction":2`) {
		t.Errorf("expected finite conviction in JSON, got %s", data)
	}

	unbounded := RuleMetrics{Confidence: 1.0, Conviction: math.Inf(1)}
	data, err = json.Marshal(unbounded)
	if err != nil {
		t.Fatalf("marshal infinite conviction: %v", err)
	}
	if !strings.Contains(string(data), `"conviction":null`) {
		t.Errorf("expected null conviction for +Inf, got %s", data)
	}
}

func TestParseMetric(t *testing.T) {
	if _, err := ParseMetric("lift"); err != nil {
		t.Errorf("lift should parse: %v", err)
	}
	if _, err := ParseMetric("confidence"); err != nil {
		t.Errorf("confidence should parse: %v", err)
	}
	if _, err := ParseMetric("leverage"); err == nil {
		t.Error("expected error for unsupported filter metric")
	}
}

func TestUniverse_DistinctItems(t *testing.T) {
	u := Universe{
		{ID: "1", Items: NewItemset("a", "b")},
		{ID: "2", Items: NewItemset("b", "c")},
	}

	items := u.DistinctItems()
	if len(items) != 3 {
		t.Errorf("expected 3 distinct items, got %v", items)
	}
	if u.Size() != 2 {
		t.Errorf("expected universe size 2, got %d", u.Size())
	}
}
