package sector

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Match is a single keyword hit against a product name.
type Match struct {
	Keyword  string // The table keyword that matched
	Sector   string // The sector label to assign
	Priority int    // Higher priority wins when several keywords hit
}

// Engine matches all table keywords against a product name in a single pass
// using the Aho-Corasick algorithm, so lookup cost does not grow with the
// size of the keyword table.
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string  // Unique normalized keywords, same order as matcher
	metadata [][]Match // Metadata per pattern (duplicates share an entry)
	mu       sync.RWMutex
}

// NewEngine builds an engine from a keyword table.
func NewEngine(rules []Rule) *Engine {
	e := &Engine{}
	e.Build(rules)
	return e
}

// Build constructs the Aho-Corasick matcher from the table. It can be called
// again to swap in a new table.
func (e *Engine) Build(rules []Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(rules) == 0 {
		e.matcher = nil
		e.patterns = nil
		e.metadata = nil
		return
	}

	patternToIndex := make(map[string]int)
	patterns := make([]string, 0, len(rules))
	metadata := make([][]Match, 0, len(rules))

	for _, rule := range rules {
		keyword := Normalize(rule.Keyword)
		if keyword == "" {
			continue
		}

		m := Match{
			Keyword:  rule.Keyword,
			Sector:   strings.ToUpper(strings.TrimSpace(rule.Sector)),
			Priority: rule.Priority,
		}

		if idx, exists := patternToIndex[keyword]; exists {
			metadata[idx] = append(metadata[idx], m)
		} else {
			patternToIndex[keyword] = len(patterns)
			patterns = append(patterns, keyword)
			metadata = append(metadata, []Match{m})
		}
	}

	e.patterns = patterns
	e.metadata = metadata

	if len(patterns) == 0 {
		e.matcher = nil
		return
	}

	bytePatterns := make([][]byte, len(patterns))
	for i, p := range patterns {
		bytePatterns[i] = []byte(p)
	}
	e.matcher = ahocorasick.NewMatcher(bytePatterns)
}

// Match finds the best keyword hit for a product name, or nil if nothing in
// the table matches. The best hit is the highest-priority one; ties go to the
// longer keyword, which is the more specific rule.
func (e *Engine) Match(productName string) *Match {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil || len(e.patterns) == 0 {
		return nil
	}

	normalized := Normalize(productName)
	hits := e.matcher.Match([]byte(normalized))
	if len(hits) == 0 {
		return nil
	}

	var best *Match
	bestLen := 0
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.metadata) {
			continue
		}
		for i := range e.metadata[idx] {
			m := &e.metadata[idx][i]
			kwLen := len(e.patterns[idx])
			if best == nil || m.Priority > best.Priority ||
				(m.Priority == best.Priority && kwLen > bestLen) {
				matchCopy := *m
				best = &matchCopy
				bestLen = kwLen
			}
		}
	}

	return best
}

// PatternCount returns the number of keywords loaded in the engine.
func (e *Engine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}

// Normalize uppercases a name and folds the accented letters the reports use,
// so "PÃO FRANCÊS" matches the keyword "PAO".
func Normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.Map(foldAccent, s)
}

func foldAccent(r rune) rune {
	switch r {
	case 'Á', 'À', 'Â', 'Ã', 'Ä':
		return 'A'
	case 'É', 'È', 'Ê', 'Ë':
		return 'E'
	case 'Í', 'Ì', 'Î', 'Ï':
		return 'I'
	case 'Ó', 'Ò', 'Ô', 'Õ', 'Ö':
		return 'O'
	case 'Ú', 'Ù', 'Û', 'Ü':
		return 'U'
	case 'Ç':
		return 'C'
	case 'Ñ':
		return 'N'
	}
	return r
}
