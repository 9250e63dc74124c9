package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/curva-abc-exporter/pkg/money"
)

// ProductLine is one recognized product row from the report, before
// aggregation. Values are immutable once extracted.
type ProductLine struct {
	Name      string
	UnitPrice *money.Money
	Quantity  decimal.Decimal
	Value     *money.Money
	Line      int // Source line number for diagnostics
}

// SkippedLine records a line that looked like data but was not recognized.
type SkippedLine struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Raw    string `json:"raw"`
}

// ParseResult contains the outcome of one parse pass over the report text.
type ParseResult struct {
	Products    []ProductLine
	Skipped     []SkippedLine
	TotalLines  int // Candidate lines examined (noise and blanks excluded)
	ParsedLines int
}

// Header/footer fragments of the Lince Curva ABC layout. Lines containing any
// of these are never product rows.
var noiseMarkers = []string{
	"Curva ABC",
	"Período",
	"CST",
	"ECF",
	"Situação Tributária",
	"Classif.",
	"Codigo",
	"Barras",
	"Total do Departamento",
	"Total Geral",
	"www.grupotecnoweb.com.br",
}

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	// Trailing EAN barcode (8-13 digits), then a shorter internal code.
	eanSuffixRe  = regexp.MustCompile(`\b\d{8,13}\b$`)
	codeSuffixRe = regexp.MustCompile(`\b\d{4,8}\b\s*$`)
	// Product rows: name, unit price, quantity, value, optional trailing
	// columns. Numbers may be Brazilian (1.234,56) or English (1,234.56).
	productRowRe = regexp.MustCompile(`^(?P<name>.+?)\s+(?P<price>[0-9.,]+)\s+(?P<qty>[0-9.,]+)\s+(?P<value>[0-9.,]+)(\s+.+)?$`)
	// Names need at least three letters, accented ones included.
	nameLettersRe = regexp.MustCompile(`[A-Za-zÀ-ÖØ-öø-ÿ]{3,}`)
)

// ParseLines recognizes product rows in the report's text lines. One
// ProductLine is produced per well-formed line; candidate lines that fail
// recognition are recorded in Skipped instead of being silently dropped.
func ParseLines(lines []string) *ParseResult {
	result := &ParseResult{}

	for i, raw := range lines {
		lineNum := i + 1

		line := strings.TrimSpace(multiSpaceRe.ReplaceAllString(raw, " "))
		if line == "" || isNoise(line) {
			continue
		}
		result.TotalLines++

		product, reason := parseProductLine(line, lineNum)
		if product == nil {
			result.Skipped = append(result.Skipped, SkippedLine{
				Line:   lineNum,
				Reason: reason,
				Raw:    line,
			})
			continue
		}

		result.Products = append(result.Products, *product)
		result.ParsedLines++
	}

	return result
}

// parseProductLine recognizes a single normalized line. Returns the product,
// or nil with the reason it was rejected.
func parseProductLine(line string, lineNum int) (*ProductLine, string) {
	// The barcode and internal code trail the numeric columns; strip them so
	// the rightmost numbers are price, quantity and value.
	cleaned := strings.TrimSpace(eanSuffixRe.ReplaceAllString(line, ""))
	cleaned = strings.TrimSpace(codeSuffixRe.ReplaceAllString(cleaned, ""))

	m := productRowRe.FindStringSubmatch(cleaned)
	if m == nil {
		return nil, "line does not match the product row layout"
	}

	name := strings.TrimSpace(m[productRowRe.SubexpIndex("name")])
	if !nameLettersRe.MatchString(name) {
		return nil, "product name has too few letters"
	}

	price, err := money.NewFromString(m[productRowRe.SubexpIndex("price")])
	if err != nil {
		return nil, "invalid unit price"
	}
	if !price.IsPositive() {
		return nil, "unit price is not positive"
	}

	qty, err := money.ParseDecimal(m[productRowRe.SubexpIndex("qty")])
	if err != nil {
		return nil, "invalid quantity"
	}
	if qty.IsNegative() {
		return nil, "negative quantity"
	}

	value, err := money.NewFromString(m[productRowRe.SubexpIndex("value")])
	if err != nil {
		return nil, "invalid value"
	}
	if value.IsNegative() {
		return nil, "negative value"
	}

	return &ProductLine{
		Name:      name,
		UnitPrice: price,
		Quantity:  qty,
		Value:     value,
		Line:      lineNum,
	}, ""
}

// AggregateByName consolidates duplicate product names: quantities and values
// are summed, unit prices averaged. The result is sorted by value descending.
func AggregateByName(products []ProductLine) []ProductLine {
	if len(products) == 0 {
		return nil
	}

	type group struct {
		first     ProductLine
		qty       decimal.Decimal
		value     *money.Money
		priceSum  decimal.Decimal
		lineCount int64
	}

	order := make([]string, 0, len(products))
	groups := make(map[string]*group)

	for _, p := range products {
		g, ok := groups[p.Name]
		if !ok {
			g = &group{first: p, value: money.Zero()}
			groups[p.Name] = g
			order = append(order, p.Name)
		}
		g.qty = g.qty.Add(p.Quantity)
		g.value = g.value.Add(p.Value)
		g.priceSum = g.priceSum.Add(p.UnitPrice.ToDecimal())
		g.lineCount++
	}

	out := make([]ProductLine, 0, len(order))
	for _, name := range order {
		g := groups[name]
		avgPrice := g.priceSum.Div(decimal.NewFromInt(g.lineCount))
		out = append(out, ProductLine{
			Name:      name,
			UnitPrice: money.NewFromDecimal(avgPrice),
			Quantity:  g.qty,
			Value:     g.value,
			Line:      g.first.Line,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.Compare(out[j].Value) > 0
	})

	return out
}

func isNoise(line string) bool {
	for _, marker := range noiseMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
