package extractor

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceSource tells which price rule produced extracted price.
type PriceSource string

const (
	// PriceSourceDetail is price read from data-price attribute of detail price node.
	PriceSourceDetail PriceSource = "detail"
	// PriceSourceNormalBox is price read from text of normal price box.
	PriceSourceNormalBox PriceSource = "normal-box"
	// PriceSourceNewsBox is price read from text of news/sale price box.
	PriceSourceNewsBox PriceSource = "news-box"
	// PriceSourceDefault is zero price used when no rule matched.
	PriceSourceDefault PriceSource = "default"
)

// MatchState is outcome of single selector evaluation.
type MatchState int

const (
	// NotMatched means selector matched no node.
	NotMatched MatchState = iota
	// MatchedEmpty means selector matched node without usable value.
	MatchedEmpty
	// MatchedWithValue means selector matched node with non-empty value.
	MatchedWithValue
)

// SelectorResult is result of single selector evaluation.
type SelectorResult struct {
	State MatchState
	Value string
}

// priceRule is one step of the price priority chain.
type priceRule struct {
	source PriceSource
	// evaluate runs rule selector against document.
	evaluate func(doc Document) SelectorResult
	// accepts decides whether evaluation result ends the chain.
	accepts func(res SelectorResult) bool
	// parse converts accepted value into price.
	parse func(value string) decimal.Decimal
}

var (
	nonPriceChars = regexp.MustCompile(`[^\d.]`)
	numericPrefix = regexp.MustCompile(`^([+-]?)(\d+(?:\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
)

// priceRules is ordered price chain, first accepted rule wins.
var priceRules = []priceRule{
	{
		source: PriceSourceDetail,
		evaluate: func(doc Document) SelectorResult {
			return attrAt(doc, SelectorDetailPrice, 0, AttrDataPrice)
		},
		accepts: matched,
		parse:   parseNumber,
	},
	{
		source: PriceSourceNormalBox,
		evaluate: func(doc Document) SelectorResult {
			return textAt(doc, SelectorNormalPriceBox, 1)
		},
		accepts: hasValue,
		parse:   parseStrippedNumber,
	},
	{
		source: PriceSourceNewsBox,
		evaluate: func(doc Document) SelectorResult {
			return textAt(doc, SelectorNewsPriceBox, 0)
		},
		accepts: hasValue,
		parse:   parseStrippedNumber,
	},
}

// extractPrice evaluates price rules in order and returns price of first accepted rule.
// It returns zero price when no rule is accepted.
func extractPrice(doc Document) (decimal.Decimal, PriceSource) {
	for _, rule := range priceRules {
		res := rule.evaluate(doc)
		if rule.accepts(res) {
			return rule.parse(res.Value), rule.source
		}
	}

	return decimal.Zero, PriceSourceDefault
}

func matched(res SelectorResult) bool {
	return res.State != NotMatched
}

func hasValue(res SelectorResult) bool {
	return res.State == MatchedWithValue
}

// parseStrippedNumber drops every character except digits and decimal points and parses the rest.
func parseStrippedNumber(value string) decimal.Decimal {
	return parseNumber(nonPriceChars.ReplaceAllString(value, ""))
}

// parseNumber parses leading numeric prefix of value the way float casts do:
// optional sign, digits with optional fraction and optional exponent.
// Missing prefix gives zero and negative values are clamped to zero.
func parseNumber(value string) decimal.Decimal {
	m := numericPrefix.FindStringSubmatch(normalizeText(value))
	if m == nil {
		return decimal.Zero
	}
	sign, mantissa, exponent := m[1], m[2], m[3]

	if sign == "-" {
		return decimal.Zero
	}
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}
	mantissa = strings.TrimSuffix(mantissa, ".")

	price, err := decimal.NewFromString(mantissa + exponent)
	if err != nil {
		return decimal.Zero
	}

	return price
}
