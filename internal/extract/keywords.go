package extract

import (
	"fmt"

	"github.com/coregx/ahocorasick"
	"golang.org/x/text/cases"
)

// vocabulary scans text for several keyword groups in one pass.
type vocabulary struct {
	ac     *ahocorasick.Automaton
	owners [][]int // pattern index -> group indexes
	groups int
}

func mustVocabulary(groups ...[]string) *vocabulary {
	var patterns []string
	index := make(map[string]int)
	var owners [][]int
	for g, words := range groups {
		for _, w := range words {
			i, ok := index[w]
			if !ok {
				i = len(patterns)
				index[w] = i
				patterns = append(patterns, w)
				owners = append(owners, nil)
			}
			owners[i] = append(owners[i], g)
		}
	}

	ac, err := ahocorasick.NewBuilder().AddStrings(patterns).Build()
	if err != nil {
		panic(fmt.Sprintf("extract: build keyword automaton: %v", err))
	}
	return &vocabulary{ac: ac, owners: owners, groups: len(groups)}
}

// distinct returns, per group, how many of its keywords occur as a substring
// of at least one of the texts. Matching is case-insensitive and each keyword
// counts once no matter how often it appears.
func (v *vocabulary) distinct(texts ...string) []int {
	seen := make([]bool, len(v.owners))
	for _, t := range texts {
		for _, m := range v.ac.FindAllOverlapping([]byte(fold(t))) {
			seen[m.PatternID] = true
		}
	}
	counts := make([]int, v.groups)
	for i, hit := range seen {
		if !hit {
			continue
		}
		for _, g := range v.owners[i] {
			counts[g]++
		}
	}
	return counts
}

func fold(s string) string {
	return cases.Fold().String(s)
}
