package extractor

import (
	"bytes"
	"strings"

	"github.com/MichalMitros/product-scraper/internal/platform/models"
)

// Selectors of the product page layout.
const (
	SelectorName           = "h1"
	SelectorDetailPrice    = "#detailText div.price-detail div.buy-buttons div.pricecetelemnew"
	SelectorNormalPriceBox = ".js-price-box.price-box--Normal span"
	SelectorNewsPriceBox   = "#detailText .price-box--News .price-box__prices span span"
	SelectorDescription    = "#detailText > div.nameextc > span"
	SelectorImage          = "#tabs img"

	AttrDataPrice = "data-price"
	AttrSrc       = "src"
)

// Field names reported in MissingFieldError.
const (
	FieldName        = "name"
	FieldDescription = "description"
)

// Extraction is extractor output.
type Extraction struct {
	Draft       models.ProductDraft
	PriceSource PriceSource
}

// ExtractHTML parses html page and extracts product fields from it.
func ExtractHTML(page []byte) (*Extraction, error) {
	doc, err := ParseHTML(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	return Extract(doc)
}

// Extract extracts product name, price, description and raw image reference from doc.
// It returns MissingFieldError when name or description can't be found.
// Missing price gives zero price and missing image gives empty image source, neither is an error.
func Extract(doc Document) (*Extraction, error) {
	name := textAt(doc, SelectorName, 0)
	if name.State != MatchedWithValue {
		return nil, MissingFieldError{Field: FieldName}
	}

	price, source := extractPrice(doc)

	description := textAt(doc, SelectorDescription, 0)
	if description.State != MatchedWithValue {
		return nil, MissingFieldError{Field: FieldDescription}
	}

	image := attrAt(doc, SelectorImage, 0, AttrSrc)

	return &Extraction{
		Draft: models.ProductDraft{
			Name:        name.Value,
			Price:       price,
			Description: description.Value,
			ImageSource: image.Value,
		},
		PriceSource: source,
	}, nil
}

// textAt evaluates normalized text of query match at index ix.
func textAt(doc Document, query string, ix int) SelectorResult {
	nodes := doc.Select(query)
	if ix >= len(nodes) {
		return SelectorResult{State: NotMatched}
	}

	return resultOf(normalizeText(nodes[ix].Text()))
}

// attrAt evaluates attribute of query match at index ix.
// Node without the attribute is matched but empty.
func attrAt(doc Document, query string, ix int, attr string) SelectorResult {
	nodes := doc.Select(query)
	if ix >= len(nodes) {
		return SelectorResult{State: NotMatched}
	}

	value, _ := nodes[ix].Attr(attr)

	return resultOf(strings.TrimSpace(value))
}

func resultOf(value string) SelectorResult {
	if value == "" {
		return SelectorResult{State: MatchedEmpty}
	}
	return SelectorResult{State: MatchedWithValue, Value: value}
}
