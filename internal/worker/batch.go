package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nmorozova/affin/internal/model"
)

// Runner mines a single dataset source into a report.
type Runner interface {
	Run(ctx context.Context, source string) (*model.Report, error)
}

// MineJob mines one dataset source.
type MineJob struct {
	Source string
	Runner Runner
}

// Execute runs the job.
func (j *MineJob) Execute(ctx context.Context) Result {
	report, err := j.Runner.Run(ctx, j.Source)
	return &MineResult{Source: j.Source, Report: report, Error: err}
}

// MineResult is the outcome of mining one source.
type MineResult struct {
	Source string
	Report *model.Report
	Error  error
}

// GetError returns the job error.
func (r *MineResult) GetError() error {
	return r.Error
}

// BatchProcessor mines multiple dataset sources concurrently.
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{runner: runner, concurrency: concurrency}
}

// ProcessSources mines every source on the pool and returns one result
// per source.
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*MineResult {
	if len(sources) == 0 {
		return []*MineResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, source := range sources {
		pool.Submit(&MineJob{Source: source, Runner: b.runner})
	}

	results := pool.Wait()

	mineResults := make([]*MineResult, len(results))
	for i, result := range results {
		mineResults[i] = result.(*MineResult)
	}
	return mineResults
}

// ProcessFile reads dataset sources from a file (one per line) and mines
// them concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*MineResult, error) {
	sources, err := ReadSourcesFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads dataset paths/URLs, one per line, skipping
// blanks, comments, and duplicates.
func ReadSourcesFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return sources, nil
}
