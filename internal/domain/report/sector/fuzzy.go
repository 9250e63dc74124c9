package sector

import (
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FuzzyMatch is a keyword hit found by approximate matching.
type FuzzyMatch struct {
	Keyword string
	Sector  string
	Score   int // Similarity score, 0-100
}

// FuzzyMatcher catches product names the exact engine misses: abbreviated or
// misspelled names like "MUSARELA FAT" still land on the MUSSARELA keyword.
type FuzzyMatcher struct {
	patterns []fuzzyPattern
	mu       sync.RWMutex
}

type fuzzyPattern struct {
	normalized string
	sector     string
	priority   int
}

// NewFuzzyMatcher builds a fuzzy matcher from a keyword table.
func NewFuzzyMatcher(rules []Rule) *FuzzyMatcher {
	fm := &FuzzyMatcher{}
	fm.Build(rules)
	return fm
}

// Build constructs the matcher from the table.
func (fm *FuzzyMatcher) Build(rules []Rule) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	fm.patterns = make([]fuzzyPattern, 0, len(rules))
	for _, rule := range rules {
		normalized := Normalize(rule.Keyword)
		if normalized == "" {
			continue
		}
		fm.patterns = append(fm.patterns, fuzzyPattern{
			normalized: normalized,
			sector:     strings.ToUpper(strings.TrimSpace(rule.Sector)),
			priority:   rule.Priority,
		})
	}
}

// Match returns the best fuzzy hit scoring at or above the threshold
// (0-100), or nil when nothing comes close enough.
func (fm *FuzzyMatcher) Match(productName string, threshold int) *FuzzyMatch {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	if len(fm.patterns) == 0 {
		return nil
	}

	normalized := Normalize(productName)

	var best *FuzzyMatch
	bestScore := threshold - 1
	bestPriority := 0

	for _, p := range fm.patterns {
		score := similarityScore(normalized, p.normalized)
		if score > bestScore || (score == bestScore && best != nil && p.priority > bestPriority) {
			bestScore = score
			bestPriority = p.priority
			best = &FuzzyMatch{
				Keyword: p.normalized,
				Sector:  p.sector,
				Score:   score,
			}
		}
	}

	return best
}

// similarityScore rates how close a product name is to a keyword (0-100),
// combining containment checks, Levenshtein distance against the name's
// words, and the fuzzy library's subsequence rank.
func similarityScore(name, keyword string) int {
	if name == keyword {
		return 100
	}

	// Whole-keyword containment is already handled by the exact engine, but
	// remains the strongest fuzzy signal for names the engine normalizer
	// could not line up.
	if strings.Contains(name, keyword) {
		return 75 + 25*len(keyword)/len(name)
	}

	// Compare the keyword against each word of the name; report names start
	// with the product word, so per-word distance beats whole-string
	// distance for long names.
	best := 0
	for _, word := range strings.Fields(name) {
		distance := fuzzy.LevenshteinDistance(word, keyword)
		maxLen := len(word)
		if len(keyword) > maxLen {
			maxLen = len(keyword)
		}
		if maxLen == 0 {
			continue
		}
		if score := 100 * (maxLen - distance) / maxLen; score > best {
			best = score
		}
	}

	// Subsequence rank as a weaker fallback signal.
	if rank := fuzzy.RankMatch(keyword, name); rank >= 0 && rank < len(name) {
		if score := 60 - rank*40/len(name); score > best {
			best = score
		}
	}

	return best
}
