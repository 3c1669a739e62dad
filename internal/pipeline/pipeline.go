package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nmorozova/affin/internal/cache"
	"github.com/nmorozova/affin/internal/dataset"
	"github.com/nmorozova/affin/internal/llm"
	"github.com/nmorozova/affin/internal/mine"
	"github.com/nmorozova/affin/internal/model"
	"github.com/nmorozova/affin/internal/rules"
	"github.com/nmorozova/affin/internal/util"
	"github.com/nmorozova/affin/internal/validate"
	"github.com/nmorozova/affin/internal/worker"
)

// Pipeline orchestrates one complete mining run: load the dataset, mine
// frequent itemsets, validate them, generate scored rules, and build the
// report. It implements worker.Runner so the batch command can drive it.
type Pipeline struct {
	fetcher   *Fetcher
	loader    *dataset.Loader
	validator *validate.ItemsetValidator
	scorer    *rules.Scorer
	renderer  *Renderer
	narrator  *llm.Narrator // nil if disabled
	config    *model.Config
}

// NewPipeline creates a pipeline from the given configuration.
func NewPipeline(cfg *model.Config) *Pipeline {
	fetcher := NewFetcher(
		cfg.HTTP.Timeout,
		cfg.HTTP.UserAgent,
		cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS,
		cfg.HTTP.HTTPProxy,
		cfg.HTTP.HTTPSProxy,
		cfg.HTTP.NoProxy,
	)
	if cfg.HTTP.CheckRobots {
		fetcher.EnableRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		fetcher.EnableRateLimit(worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}
	if cfg.Cache.Enabled {
		fetcher.EnableCache(cache.NewLayeredCache(cfg.Cache.MemoryTTL, cacheDir(cfg), cfg.Cache.DiskTTL))
	}

	var narrator *llm.Narrator
	if cfg.LLM.Provider != "" {
		n, err := llm.NewNarrator(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			narrator = n
		}
	}

	return &Pipeline{
		fetcher:   fetcher,
		loader:    dataset.NewLoader(dataset.OptionsFromConfig(cfg.Dataset)),
		validator: validate.NewItemsetValidator(),
		scorer:    rules.NewScorer(),
		renderer:  NewRenderer(cfg.Output.IncludeFooter, cfg.Output.TopRules),
		narrator:  narrator,
		config:    cfg,
	}
}

func cacheDir(cfg *model.Config) string {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "affin-cache")
	}
	return filepath.Join(home, ".affin", "cache")
}

// Run mines one dataset source (URL or local file) and builds the report.
func (p *Pipeline) Run(ctx context.Context, source string) (*model.Report, error) {
	metric, err := model.ParseMetric(p.config.Rules.Metric)
	if err != nil {
		return nil, err
	}

	// 1. Load the dataset.
	universe, meta, err := p.load(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(universe) == 0 {
		return nil, fmt.Errorf("dataset %s produced no transactions", source)
	}

	// 2. Mine frequent itemsets.
	miner, err := mine.NewMiner(p.config.Mining.MinSupport, p.config.Mining.MaxLen)
	if err != nil {
		return nil, err
	}
	freq, err := miner.Mine(universe)
	if err != nil {
		return nil, fmt.Errorf("mine itemsets: %w", err)
	}

	// 3. Validate the collection before scoring.
	issues := p.validator.Validate(freq)
	if err := validate.FirstFatal(issues); err != nil {
		return nil, fmt.Errorf("validate itemsets: %w", err)
	}
	if p.config.Output.Verbose {
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", issue.Kind, issue.Detail)
		}
	}

	// 4. Generate and filter rules.
	scored, err := p.scorer.Generate(freq, rules.Options{
		Metric:       metric,
		MinThreshold: p.config.Rules.MinThreshold,
		Workers:      p.config.Rules.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("score rules: %w", err)
	}

	report := &model.Report{
		Source:        source,
		LoadedAt:      time.Now().UTC(),
		FetchMeta:     meta,
		Transactions:  universe.Size(),
		DistinctItems: len(universe.DistinctItems()),
		Mining: model.MiningParams{
			MinSupport: p.config.Mining.MinSupport,
			MaxLen:     p.config.Mining.MaxLen,
		},
		Scoring: model.ScoringParams{
			Metric:       metric,
			MinThreshold: p.config.Rules.MinThreshold,
		},
		FrequentItemsets: freq,
		Rules:            scored.Rules,
		SkippedItemsets:  scored.Skipped,
	}

	// 5. Generate the narrative if enabled. Runs after scoring and never
	// affects any computed number.
	if p.narrator != nil && p.narrator.IsEnabled() {
		narrative, err := p.narrator.Generate(ctx, *report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: narrative generation failed: %v\n", err)
		} else if narrative != nil {
			report.LLM = narrative
		}
	}

	return report, nil
}

func (p *Pipeline) load(ctx context.Context, source string) (model.Universe, model.FetchMeta, error) {
	if isURL(source) {
		result, err := p.fetcher.FetchWithRetry(ctx, source)
		if err != nil {
			return nil, model.FetchMeta{}, fmt.Errorf("fetch dataset: %w", err)
		}
		universe, err := p.loader.Parse(result.Data, formatFor(result.FinalURL, result.Meta.ContentType))
		if err != nil {
			return nil, model.FetchMeta{}, fmt.Errorf("parse dataset: %w", err)
		}
		return universe, result.Meta, nil
	}

	universe, err := p.loader.LoadFile(source)
	if err != nil {
		return nil, model.FetchMeta{}, fmt.Errorf("load dataset: %w", err)
	}
	return universe, model.FetchMeta{}, nil
}

// RenderReport renders the report to the configured outputs and prints
// the console summary.
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, yamlPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if yamlPath != "" {
		if err := p.renderer.RenderYAML(report, yamlPath); err != nil {
			return fmt.Errorf("render YAML: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote YAML: %s\n", yamlPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(report)
	return nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// formatFor picks the parse format from the Content-Type when the server
// sends one, falling back to the URL path extension.
func formatFor(rawURL, contentType string) dataset.Format {
	switch {
	case strings.Contains(contentType, "text/html"):
		return dataset.FormatHTML
	case strings.Contains(contentType, "csv"):
		return dataset.FormatCSV
	}
	return dataset.FormatFromPath(rawURL)
}
