package dataset

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/nmorozova/affin/internal/model"
)

// HTMLLoader parses transaction rows from an HTML table export. The first
// table in the document is used; its first row is the header.
type HTMLLoader struct {
	opts Options
}

// NewHTMLLoader creates an HTML loader.
func NewHTMLLoader(opts Options) *HTMLLoader {
	return &HTMLLoader{opts: opts}
}

// Parse extracts the first table and groups its rows into baskets.
func (l *HTMLLoader) Parse(r io.Reader) (model.Universe, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := findFirstTable(doc)
	if table == nil {
		return nil, fmt.Errorf("no table found in document")
	}

	rows := extractRows(table)
	if len(rows) < 2 {
		return nil, fmt.Errorf("table has no data rows")
	}

	return groupRecords(rows[0], rows[1:], l.opts)
}

// findFirstTable walks the node tree for the first <table> element.
func findFirstTable(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "table" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirstTable(c); found != nil {
			return found
		}
	}
	return nil
}

// extractRows collects the cell texts of every <tr> under the table.
func extractRows(table *html.Node) [][]string {
	var rows [][]string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			rows = append(rows, extractCells(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)

	return rows
}

// extractCells collects the text of each th/td in a row.
func extractCells(tr *html.Node) []string {
	var cells []string

	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, cellText(c))
		}
	}

	return cells
}

// cellText concatenates the visible text nodes of a cell.
func cellText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.TrimSpace(buf.String())
}
