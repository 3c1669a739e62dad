package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nmorozova/affin/internal/model"
	"github.com/nmorozova/affin/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON     string
	outYAML     string
	outMD       string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noRobots    bool
	noFooter    bool
	insecureTLS bool
	httpProxy   string
	httpsProxy  string

	minSupport   float64
	maxLen       int
	metricName   string
	minThreshold float64
	ruleWorkers  int
	topRules     int

	invoiceColumn  string
	itemColumn     string
	quantityColumn string
	countryColumn  string
	countryFilter  string
	keepCredits    bool

	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// mineCmd represents the mine command
var mineCmd = &cobra.Command{
	Use:   "mine <source>",
	Short: "Mine association rules from a transaction dataset",
	Long: `Mine loads a transaction dataset (local CSV/HTML file or URL), groups
line items into baskets, finds frequent itemsets, and generates scored
association rules:
- Every ordered antecedent/consequent split of each frequent itemset
- Support, confidence, lift, leverage, and conviction per rule
- Inclusive threshold filter on lift or confidence

Example:
  affin mine retail.csv
  affin mine https://example.com/online_retail.csv --country France
  affin mine retail.csv --min-support 0.05 --metric confidence --min-threshold 0.6
  affin mine retail.csv --json report.json --md report.md --llm openai`,
	Args: cobra.ExactArgs(1),
	RunE: runMine,
}

func init() {
	rootCmd.AddCommand(mineCmd)

	// Output flags
	mineCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	mineCmd.Flags().StringVar(&outYAML, "yaml", "", "output YAML path (optional)")
	mineCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	mineCmd.Flags().IntVar(&topRules, "top", 20, "rows in the console/Markdown rule table (0 = all)")
	mineCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Mining flags
	mineCmd.Flags().Float64Var(&minSupport, "min-support", 0.02, "minimum itemset support in (0, 1]")
	mineCmd.Flags().IntVar(&maxLen, "max-len", 4, "maximum itemset length (0 = unbounded)")
	mineCmd.Flags().StringVar(&metricName, "metric", "lift", "filter metric (lift, confidence)")
	mineCmd.Flags().Float64Var(&minThreshold, "min-threshold", 1.0, "inclusive minimum for the filter metric")
	mineCmd.Flags().IntVar(&ruleWorkers, "workers", 1, "itemsets scored in parallel (1 = sequential)")

	// Dataset flags
	mineCmd.Flags().StringVar(&invoiceColumn, "invoice-column", "InvoiceNo", "basket grouping column")
	mineCmd.Flags().StringVar(&itemColumn, "item-column", "Description", "item name column")
	mineCmd.Flags().StringVar(&quantityColumn, "quantity-column", "Quantity", "quantity column (empty to disable the positive-quantity filter)")
	mineCmd.Flags().StringVar(&countryColumn, "country-column", "Country", "country column")
	mineCmd.Flags().StringVar(&countryFilter, "country", "", "keep only baskets from this country")
	mineCmd.Flags().BoolVar(&keepCredits, "keep-credits", false, "keep credit invoices (C-prefixed)")

	// HTTP flags
	mineCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall run timeout")
	mineCmd.Flags().StringVar(&userAgent, "ua", "Affin/0.2 (+https://github.com/nmorozova/affin)", "HTTP User-Agent")
	mineCmd.Flags().Int64Var(&maxBytes, "max-bytes", 64_000_000, "max response bytes to read")
	mineCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	mineCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip the robots.txt check")
	mineCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	mineCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	mineCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// LLM flags
	mineCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM narrative generation")
	mineCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	mineCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runMine(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Mining: %s\n", source)
		fmt.Fprintf(os.Stderr, "Min support: %v  Metric: %s >= %v\n", minSupport, metricName, minThreshold)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", !noCache)
		fmt.Fprintln(os.Stderr)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg)

	report, err := p.Run(ctx, source)
	if err != nil {
		return fmt.Errorf("mine failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Loaded %d transactions (%d distinct items)\n", report.Transactions, report.DistinctItems)
		fmt.Fprintf(os.Stderr, "✓ Mined %d frequent itemsets\n", len(report.FrequentItemsets))
		fmt.Fprintf(os.Stderr, "✓ Generated %d rules\n", len(report.Rules))
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated narrative using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, outYAML, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// buildConfig assembles the run configuration from the flag values.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	cfg.HTTP.Timeout = timeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.HTTP.CheckRobots = !noRobots
	cfg.HTTP.HTTPProxy = httpProxy
	cfg.HTTP.HTTPSProxy = httpsProxy
	cfg.Cache.Enabled = !noCache

	cfg.Dataset.InvoiceColumn = invoiceColumn
	cfg.Dataset.ItemColumn = itemColumn
	cfg.Dataset.QuantityColumn = quantityColumn
	cfg.Dataset.CountryColumn = countryColumn
	cfg.Dataset.Country = countryFilter
	cfg.Dataset.KeepCredits = keepCredits

	cfg.Mining.MinSupport = minSupport
	cfg.Mining.MaxLen = maxLen
	cfg.Rules.Metric = metricName
	cfg.Rules.MinThreshold = minThreshold
	cfg.Rules.Workers = ruleWorkers

	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	cfg.Output.TopRules = topRules

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
		cfg.LLM.StrictValues = true // Always enforce

		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}
