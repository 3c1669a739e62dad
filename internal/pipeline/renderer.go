package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/nmorozova/affin/internal/model"
)

// Renderer writes reports as JSON, YAML, and Markdown, and prints the
// console summary.
type Renderer struct {
	includeFooter bool
	topRules      int
}

// NewRenderer creates a renderer. topRules caps the console and Markdown
// rule tables; 0 means no cap.
func NewRenderer(includeFooter bool, topRules int) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		topRules:      topRules,
	}
}

// RenderJSON writes the full report as indented JSON.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderYAML writes the full report as YAML.
func (r *Renderer) RenderYAML(report *model.Report, path string) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report with the rule table
// sorted by the filter metric.
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var sb strings.Builder

	sb.WriteString("# Association Rules Report\n\n")
	sb.WriteString(fmt.Sprintf("**Source:** %s\n\n", report.Source))
	sb.WriteString(fmt.Sprintf("**Loaded:** %s\n\n", report.LoadedAt.Format("2006-01-02 15:04:05 UTC")))

	sb.WriteString("## Dataset\n\n")
	sb.WriteString(fmt.Sprintf("- Transactions: %d\n", report.Transactions))
	sb.WriteString(fmt.Sprintf("- Distinct items: %d\n", report.DistinctItems))
	sb.WriteString(fmt.Sprintf("- Frequent itemsets (min support %.4g", report.Mining.MinSupport))
	if report.Mining.MaxLen > 0 {
		sb.WriteString(fmt.Sprintf(", max length %d", report.Mining.MaxLen))
	}
	sb.WriteString(fmt.Sprintf("): %d\n\n", len(report.FrequentItemsets)))

	sb.WriteString("## Rules\n\n")
	sb.WriteString(fmt.Sprintf("Filtered by %s >= %.4g: %d rules", report.Scoring.Metric, report.Scoring.MinThreshold, len(report.Rules)))
	if report.SkippedItemsets > 0 {
		sb.WriteString(fmt.Sprintf(" (%d itemsets too small to form a rule)", report.SkippedItemsets))
	}
	sb.WriteString("\n\n")

	ranked := rankRules(report.Rules, report.Scoring.Metric)
	if r.topRules > 0 && len(ranked) > r.topRules {
		sb.WriteString(fmt.Sprintf("Top %d of %d rules by %s:\n\n", r.topRules, len(ranked), report.Scoring.Metric))
		ranked = ranked[:r.topRules]
	}

	if len(ranked) == 0 {
		sb.WriteString("No rules passed the threshold.\n")
	} else {
		sb.WriteString("| Antecedent | Consequent | Support | Confidence | Lift | Leverage | Conviction |\n")
		sb.WriteString("|------------|------------|---------|------------|------|----------|------------|\n")
		for _, rule := range ranked {
			m := rule.Metrics
			sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %.4f | %.4f | %.4f | %s |\n",
				rule.Antecedent, rule.Consequent,
				m.Support, m.Confidence, m.Lift, m.Leverage, formatConviction(m.Conviction)))
		}
	}

	if report.LLM != nil && report.LLM.Enabled && report.LLM.SummaryMD != "" {
		sb.WriteString("\n## Narrative (LLM-generated)\n\n")
		sb.WriteString("All numbers above were computed independently; the narrative below is commentary only.\n\n")
		sb.WriteString(report.LLM.SummaryMD)
		sb.WriteString("\n")
	}

	if r.includeFooter {
		sb.WriteString("\n---\n")
		sb.WriteString("Generated by affin. Rules describe co-occurrence in this dataset, not causation.\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderSummary prints a short rule table to stdout.
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Printf("\nSource: %s\n", report.Source)
	fmt.Printf("Transactions: %d  Distinct items: %d  Frequent itemsets: %d\n",
		report.Transactions, report.DistinctItems, len(report.FrequentItemsets))
	fmt.Printf("Rules (%s >= %.4g): %d\n\n", report.Scoring.Metric, report.Scoring.MinThreshold, len(report.Rules))

	ranked := rankRules(report.Rules, report.Scoring.Metric)
	if r.topRules > 0 && len(ranked) > r.topRules {
		ranked = ranked[:r.topRules]
	}
	if len(ranked) == 0 {
		fmt.Println("No rules passed the threshold.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RULE\tSUPPORT\tCONFIDENCE\tLIFT\tCONVICTION")
	for _, rule := range ranked {
		m := rule.Metrics
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%s\n",
			rule, m.Support, m.Confidence, m.Lift, formatConviction(m.Conviction))
	}
	_ = w.Flush()
}

// rankRules returns a copy sorted by the metric, best first. The sort is
// stable so ties keep the deterministic generation order.
func rankRules(in []model.Rule, metric model.Metric) []model.Rule {
	out := make([]model.Rule, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metrics.Value(metric) > out[j].Metrics.Value(metric)
	})
	return out
}

func formatConviction(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.4f", v)
}
