package dataset

import (
	"strings"
	"testing"
)

const retailHTML = `<!DOCTYPE html>
<html><body>
<h1>Export</h1>
<table>
  <tr><th>InvoiceNo</th><th>Description</th><th>Quantity</th><th>Country</th></tr>
  <tr><td>1001</td><td>JAM <b>JAR</b></td><td>2</td><td>France</td></tr>
  <tr><td>1001</td><td>TEA CUP</td><td>1</td><td>France</td></tr>
  <tr><td>C1002</td><td>TEA CUP</td><td>-1</td><td>France</td></tr>
  <tr><td>1003</td><td>JAM JAR</td><td>4</td><td>Germany</td></tr>
</table>
</body></html>`

func TestHTMLLoader_Parse(t *testing.T) {
	opts := Options{
		InvoiceColumn:  "InvoiceNo",
		ItemColumn:     "Description",
		QuantityColumn: "Quantity",
		CountryColumn:  "Country",
	}

	u, err := NewHTMLLoader(opts).Parse(strings.NewReader(retailHTML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if u.Size() != 2 {
		t.Fatalf("expected 2 baskets, got %d", u.Size())
	}

	if u[0].ID != "1001" || u[0].Items.Size() != 2 {
		t.Errorf("unexpected first basket: %s %s", u[0].ID, u[0].Items)
	}
	// Nested markup inside a cell flattens to its text.
	if !u[0].Items.Contains("JAM JAR") {
		t.Errorf("expected flattened cell text, got %s", u[0].Items)
	}
}

func TestHTMLLoader_NoTable(t *testing.T) {
	opts := Options{InvoiceColumn: "InvoiceNo", ItemColumn: "Description"}
	if _, err := NewHTMLLoader(opts).Parse(strings.NewReader("<html><body><p>no data</p></body></html>")); err == nil {
		t.Fatal("expected error for document without a table")
	}
}

func TestLoader_SniffsHTML(t *testing.T) {
	opts := Options{
		InvoiceColumn:  "InvoiceNo",
		ItemColumn:     "Description",
		QuantityColumn: "Quantity",
	}

	u, err := NewLoader(opts).Parse([]byte(retailHTML), FormatAuto)
	if err != nil {
		t.Fatalf("auto-detect html: %v", err)
	}
	if u.Size() != 2 {
		t.Errorf("expected 2 baskets from sniffed HTML, got %d", u.Size())
	}
}
