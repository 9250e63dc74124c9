package sector

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// Departments printed by the Lince report, also recognized in filenames.
var knownDepartments = []string{
	"FRIOS", "ACOUGUE", "PADARIA", "HORTIFRUTI", "BEBIDAS", "MERCEARIA",
	"LIMPEZA", "HIGIENE",
}

var departmentMarkerRe = regexp.MustCompile(`(?i)Departamento:`)

// Classifier guesses a sector label per product name. It never fails: when no
// heuristic produces anything, the guess is Unknown and the operator corrects
// it before export.
type Classifier struct {
	engine    *Engine
	fuzzy     *FuzzyMatcher
	threshold int
}

// NewClassifier builds a classifier over a keyword table. threshold is the
// minimum fuzzy similarity score (0-100) accepted when no exact keyword hits.
func NewClassifier(rules []Rule, threshold int) *Classifier {
	return &Classifier{
		engine:    NewEngine(rules),
		fuzzy:     NewFuzzyMatcher(rules),
		threshold: threshold,
	}
}

// Classify guesses the sector for one product name. Guess order: exact
// keyword match, fuzzy keyword match, then the document-level hint.
func (c *Classifier) Classify(productName, documentHint string) string {
	if m := c.engine.Match(productName); m != nil {
		return m.Sector
	}

	if m := c.fuzzy.Match(productName, c.threshold); m != nil {
		return m.Sector
	}

	if documentHint != "" {
		return documentHint
	}

	return Unknown
}

// DocumentHint extracts a report-wide sector hint: the department printed
// after the "Departamento:" marker, or a department keyword embedded in the
// uploaded filename. Returns empty when neither is present.
func DocumentHint(lines []string, filename string) string {
	if dept := departmentFromLines(lines); dept != "" {
		return dept
	}
	return departmentFromFilename(filename)
}

// departmentFromLines scans for the "Departamento:" marker and takes the
// first short all-uppercase token on the marker line or the few lines below
// it, which is how the Lince layout prints the department name.
func departmentFromLines(lines []string) string {
	for i, line := range lines {
		if !departmentMarkerRe.MatchString(line) {
			continue
		}

		// The name may share the marker's line.
		after := departmentMarkerRe.Split(line, 2)
		if len(after) == 2 {
			if dept := uppercaseToken(after[1]); dept != "" {
				return dept
			}
		}

		for j := i + 1; j < len(lines) && j <= i+5; j++ {
			if dept := uppercaseToken(lines[j]); dept != "" {
				return dept
			}
		}
		return ""
	}
	return ""
}

// departmentFromFilename looks for a known department name in the uploaded
// filename, keeping an adjacent digit suffix ("curva_FRIOS3.pdf" -> FRIOS3).
func departmentFromFilename(filename string) string {
	base := Normalize(filepath.Base(filename))
	for _, dept := range knownDepartments {
		idx := strings.Index(base, dept)
		if idx < 0 {
			continue
		}

		end := idx + len(dept)
		for end < len(base) && end < idx+len(dept)+2 && base[end] >= '0' && base[end] <= '9' {
			end++
		}
		return base[idx:end]
	}
	return ""
}

// uppercaseToken returns the trimmed line when it is a plausible department
// name: 2-20 characters, all letters uppercase.
func uppercaseToken(line string) string {
	t := strings.TrimSpace(line)
	if len(t) < 2 || len(t) > 20 {
		return ""
	}
	hasLetter := false
	for _, r := range t {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return ""
			}
		}
	}
	if !hasLetter {
		return ""
	}
	return t
}
