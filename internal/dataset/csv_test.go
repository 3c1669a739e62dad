package dataset

import (
	"strings"
	"testing"
)

const retailCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART,6,12/1/2010 8:26,2.55,17850,United Kingdom
536365,71053,WHITE METAL LANTERN,6,12/1/2010 8:26,3.39,17850,United Kingdom
536366,22633,HAND WARMER UNION JACK,6,12/1/2010 8:28,1.85,17850,United Kingdom
C536367,22632,HAND WARMER RED POLKA DOT,-6,12/1/2010 8:34,1.85,17850,United Kingdom
536368,22633,HAND WARMER UNION JACK,2,12/1/2010 8:34,1.85,13047,France
536368,  ,   ,1,12/1/2010 8:34,1.85,13047,France
536369,84879,ASSORTED COLOUR BIRD ORNAMENT,0,12/1/2010 8:35,1.69,13047,France
536365,85123A,WHITE HANGING HEART,6,12/1/2010 8:26,2.55,17850,United Kingdom
`

func defaultOpts() Options {
	return Options{
		InvoiceColumn:  "InvoiceNo",
		ItemColumn:     "Description",
		QuantityColumn: "Quantity",
		CountryColumn:  "Country",
	}
}

func TestCSVLoader_Parse(t *testing.T) {
	u, err := NewCSVLoader(defaultOpts()).Parse(strings.NewReader(retailCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// 536365 (2 items, duplicate line folded), 536366 (1), 536368 (1 after
	// blank-item row dropped). Credit note C536367 and zero-quantity
	// 536369 are cleaned away.
	if u.Size() != 3 {
		t.Fatalf("expected 3 baskets, got %d: %v", u.Size(), u)
	}

	if u[0].ID != "536365" {
		t.Errorf("expected first-seen invoice order, got %s first", u[0].ID)
	}
	if u[0].Items.Size() != 2 {
		t.Errorf("expected basket 536365 to hold 2 distinct items, got %d", u[0].Items.Size())
	}
	if !u[0].Items.Contains("WHITE METAL LANTERN") {
		t.Errorf("missing item in basket 536365: %s", u[0].Items)
	}
}

func TestCSVLoader_CountryFilter(t *testing.T) {
	opts := defaultOpts()
	opts.Country = "France"

	u, err := NewCSVLoader(opts).Parse(strings.NewReader(retailCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if u.Size() != 1 {
		t.Fatalf("expected 1 French basket, got %d", u.Size())
	}
	if u[0].ID != "536368" {
		t.Errorf("expected invoice 536368, got %s", u[0].ID)
	}
}

func TestCSVLoader_KeepCredits(t *testing.T) {
	opts := defaultOpts()
	opts.KeepCredits = true
	opts.QuantityColumn = "" // credit rows have negative quantities

	u, err := NewCSVLoader(opts).Parse(strings.NewReader(retailCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	found := false
	for _, tx := range u {
		if tx.ID == "C536367" {
			found = true
		}
	}
	if !found {
		t.Error("expected credit invoice to survive with KeepCredits")
	}
}

func TestCSVLoader_MissingColumn(t *testing.T) {
	opts := defaultOpts()
	opts.ItemColumn = "Nonexistent"

	_, err := NewCSVLoader(opts).Parse(strings.NewReader(retailCSV))
	if err == nil {
		t.Fatal("expected error for missing item column")
	}
}

func TestCSVLoader_Empty(t *testing.T) {
	if _, err := NewCSVLoader(defaultOpts()).Parse(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestLoader_FormatSniffing(t *testing.T) {
	loader := NewLoader(defaultOpts())

	u, err := loader.Parse([]byte(retailCSV), FormatAuto)
	if err != nil {
		t.Fatalf("auto-detect csv: %v", err)
	}
	if u.Size() == 0 {
		t.Error("expected baskets from sniffed CSV")
	}

	if _, err := loader.Parse([]byte(retailCSV), Format("xlsx")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"retail.csv", FormatCSV},
		{"https://example.com/data/Online%20Retail.CSV", FormatCSV},
		{"export.html", FormatHTML},
		{"export.htm", FormatHTML},
		{"data.bin", FormatAuto},
	}

	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}
