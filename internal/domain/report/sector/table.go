// Package sector guesses a product-category label for each extracted product
// name. The lookup table is pluggable: a built-in keyword table covers the
// known Lince departments, and operators can supply their own CSV.
package sector

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// Unknown is the sector assigned when no heuristic produces a match. The
// operator corrects it before export.
const Unknown = "N/D"

//go:embed defaults.csv
var defaultTableCSV []byte

// Rule maps a product-name keyword to a sector label. Higher priority wins
// when several keywords match the same name.
type Rule struct {
	Keyword  string `csv:"keyword"`
	Sector   string `csv:"sector"`
	Priority int    `csv:"priority"`
}

// DefaultTable returns the built-in keyword table.
func DefaultTable() []Rule {
	rules, err := LoadTable(strings.NewReader(string(defaultTableCSV)))
	if err != nil {
		// The embedded table is fixed at build time; failing to parse it is
		// a programming error.
		panic(fmt.Sprintf("sector: embedded table is invalid: %v", err))
	}
	return rules
}

// LoadTable decodes a keyword table from CSV with a keyword,sector,priority
// header. Rows with an empty keyword or sector are rejected.
func LoadTable(r io.Reader) ([]Rule, error) {
	var rules []Rule
	if err := gocsv.Unmarshal(r, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse sector table: %w", err)
	}

	for i, rule := range rules {
		if strings.TrimSpace(rule.Keyword) == "" || strings.TrimSpace(rule.Sector) == "" {
			return nil, fmt.Errorf("sector table row %d: keyword and sector are required", i+2)
		}
	}

	return rules, nil
}

// LoadTableFile reads a keyword table from a CSV file on disk.
func LoadTableFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sector table: %w", err)
	}
	defer f.Close()
	return LoadTable(f)
}
