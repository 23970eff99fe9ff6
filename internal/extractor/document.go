package extractor

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is single element of parsed document.
type Node interface {
	// Text returns combined text content of the node and its descendants.
	Text() string
	// Attr returns attribute value and whether attribute exists.
	Attr(name string) (string, bool)
}

// Document is queryable html document tree.
type Document interface {
	// Select returns nodes matching query in document order.
	Select(query string) []Node
}

// HTMLDocument is Document backed by goquery.
type HTMLDocument struct {
	doc *goquery.Document
}

// ParseHTML parses html from reader into HTMLDocument.
func ParseHTML(r io.Reader) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("can't parse html: %w", err)
	}

	return &HTMLDocument{doc: doc}, nil
}

// ParseHTMLString parses html string into HTMLDocument.
func ParseHTMLString(html string) (*HTMLDocument, error) {
	return ParseHTML(strings.NewReader(html))
}

// Select returns nodes matching CSS selector query in document order.
// Invalid selector matches nothing.
func (d *HTMLDocument) Select(query string) []Node {
	sel := d.doc.Find(query)

	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, s)
	})

	return nodes
}

// normalizeText trims text and collapses inner whitespace runs into single spaces.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
