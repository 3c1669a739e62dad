package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Metric identifies an interestingness metric rules can be filtered by.
type Metric string

const (
	MetricLift       Metric = "lift"
	MetricConfidence Metric = "confidence"
)

// ParseMetric parses a metric name from config or flags.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricLift, MetricConfidence:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("unknown metric %q (expected lift or confidence)", s)
	}
}

// RuleMetrics holds the derived numbers attached to a rule.
// Conviction is +Inf when confidence is exactly 1: the antecedent never
// occurs without the consequent.
type RuleMetrics struct {
	AntecedentSupport float64 `json:"antecedent_support" yaml:"antecedent_support"`
	ConsequentSupport float64 `json:"consequent_support" yaml:"consequent_support"`
	Support           float64 `json:"support" yaml:"support"`
	Confidence        float64 `json:"confidence" yaml:"confidence"`
	Lift              float64 `json:"lift" yaml:"lift"`
	Leverage          float64 `json:"leverage" yaml:"leverage"`
	Conviction        float64 `json:"conviction" yaml:"conviction"`
}

// Value returns the metric selected for filtering.
func (m RuleMetrics) Value(metric Metric) float64 {
	if metric == MetricConfidence {
		return m.Confidence
	}
	return m.Lift
}

// MarshalJSON encodes an unbounded conviction as null, since JSON has no
// representation for IEEE infinity.
func (m RuleMetrics) MarshalJSON() ([]byte, error) {
	type alias RuleMetrics
	out := struct {
		alias
		Conviction *float64 `json:"conviction"`
	}{alias: alias(m)}

	if !math.IsInf(m.Conviction, 1) {
		out.Conviction = &m.Conviction
	}
	return json.Marshal(out)
}

// Rule is an ordered antecedent/consequent pair of disjoint non-empty
// itemsets whose union is a frequent itemset.
type Rule struct {
	Antecedent Itemset     `json:"antecedent" yaml:"antecedent"`
	Consequent Itemset     `json:"consequent" yaml:"consequent"`
	Metrics    RuleMetrics `json:"metrics" yaml:"metrics"`
}

// String formats the rule as {a} => {b}.
func (r Rule) String() string {
	return r.Antecedent.String() + " => " + r.Consequent.String()
}
