// Package dataset turns retail transaction exports into the basket model.
// Supported inputs are CSV files in the Online-Retail column layout and
// HTML table exports of the same records.
package dataset

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nmorozova/affin/internal/model"
)

// Format identifies a dataset encoding.
type Format string

const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Options control column mapping and row cleaning.
type Options struct {
	// InvoiceColumn and ItemColumn are required; the others are used
	// only when present in the input.
	InvoiceColumn  string
	ItemColumn     string
	QuantityColumn string
	CountryColumn  string

	// Country keeps only transactions from one country when set.
	Country string

	// KeepCredits keeps credit notes (invoice numbers prefixed with C),
	// which are returns rather than purchases and are dropped by default.
	KeepCredits bool
}

// OptionsFromConfig maps the dataset config section onto loader options.
func OptionsFromConfig(cfg model.DatasetConfig) Options {
	return Options{
		InvoiceColumn:  cfg.InvoiceColumn,
		ItemColumn:     cfg.ItemColumn,
		QuantityColumn: cfg.QuantityColumn,
		CountryColumn:  cfg.CountryColumn,
		Country:        cfg.Country,
		KeepCredits:    cfg.KeepCredits,
	}
}

// Loader parses dataset bytes in any supported format.
type Loader struct {
	opts Options
}

// NewLoader creates a loader with the given options.
func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts}
}

// Parse decodes the data, sniffing the format when asked to.
func (l *Loader) Parse(data []byte, format Format) (model.Universe, error) {
	if format == FormatAuto || format == "" {
		format = sniffFormat(data)
	}

	switch format {
	case FormatCSV:
		return NewCSVLoader(l.opts).Parse(bytes.NewReader(data))
	case FormatHTML:
		return NewHTMLLoader(l.opts).Parse(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", format)
	}
}

// LoadFile reads and parses a local dataset file, picking the format from
// the extension first and the content second.
func (l *Loader) LoadFile(path string) (model.Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return l.Parse(data, FormatFromPath(path))
}

// FormatFromPath guesses the format from a file or URL path.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return FormatHTML
	default:
		return FormatAuto
	}
}

// sniffFormat looks at the first non-space byte: markup means HTML,
// anything else is treated as CSV.
func sniffFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return FormatHTML
	}
	return FormatCSV
}

// columnIndexes locates the configured columns in a header row.
// Invoice and item columns are required; the rest resolve to -1 when
// absent. Header matching is case-insensitive and whitespace-tolerant.
type columnIndexes struct {
	invoice  int
	item     int
	quantity int
	country  int
}

func resolveColumns(header []string, opts Options) (columnIndexes, error) {
	find := func(name string) int {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), name) {
				return i
			}
		}
		return -1
	}

	idx := columnIndexes{
		invoice:  find(opts.InvoiceColumn),
		item:     find(opts.ItemColumn),
		quantity: -1,
		country:  -1,
	}
	if opts.QuantityColumn != "" {
		idx.quantity = find(opts.QuantityColumn)
	}
	if opts.CountryColumn != "" {
		idx.country = find(opts.CountryColumn)
	}

	if idx.invoice < 0 {
		return idx, fmt.Errorf("invoice column %q not found in header", opts.InvoiceColumn)
	}
	if idx.item < 0 {
		return idx, fmt.Errorf("item column %q not found in header", opts.ItemColumn)
	}
	return idx, nil
}

// groupRecords applies the cleaning rules and groups rows into baskets
// keyed by invoice, preserving first-seen invoice order.
func groupRecords(header []string, records [][]string, opts Options) (model.Universe, error) {
	idx, err := resolveColumns(header, opts)
	if err != nil {
		return nil, err
	}

	baskets := make(map[string][]string)
	var order []string

	for _, rec := range records {
		if idx.invoice >= len(rec) || idx.item >= len(rec) {
			continue // ragged row
		}

		invoice := strings.TrimSpace(rec[idx.invoice])
		if invoice == "" {
			continue
		}
		if !opts.KeepCredits && strings.HasPrefix(strings.ToUpper(invoice), "C") {
			continue
		}

		item := strings.TrimSpace(rec[idx.item])
		if item == "" {
			continue
		}

		if idx.quantity >= 0 && idx.quantity < len(rec) {
			qty, err := strconv.ParseFloat(strings.TrimSpace(rec[idx.quantity]), 64)
			if err != nil || qty <= 0 {
				continue
			}
		}

		if opts.Country != "" && idx.country >= 0 && idx.country < len(rec) {
			if !strings.EqualFold(strings.TrimSpace(rec[idx.country]), opts.Country) {
				continue
			}
		}

		if _, seen := baskets[invoice]; !seen {
			order = append(order, invoice)
		}
		baskets[invoice] = append(baskets[invoice], item)
	}

	universe := make(model.Universe, 0, len(order))
	for _, invoice := range order {
		items := model.NewItemset(baskets[invoice]...)
		if items.Size() == 0 {
			continue
		}
		universe = append(universe, model.Transaction{ID: invoice, Items: items})
	}

	return universe, nil
}
