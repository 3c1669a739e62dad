package dataset

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/nmorozova/affin/internal/model"
)

// CSVLoader parses transaction rows from CSV exports such as the UCI
// Online Retail dataset (one row per line item, baskets keyed by invoice).
type CSVLoader struct {
	opts Options
}

// NewCSVLoader creates a CSV loader.
func NewCSVLoader(opts Options) *CSVLoader {
	return &CSVLoader{opts: opts}
}

// Parse reads the header and all rows, then groups line items into
// baskets. Ragged rows are tolerated and skipped.
func (l *CSVLoader) Parse(r io.Reader) (model.Universe, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty dataset")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		records = append(records, rec)
	}

	return groupRecords(header, records, l.opts)
}
