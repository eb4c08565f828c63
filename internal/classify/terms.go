package classify

import (
	"fmt"
	"regexp"
	"strings"

	"fleetfaults/internal/util"
)

// termSet is a compiled keyword/pattern list matched against folded text.
// Keywords match at a word start, so "immobili" hits "immobilised" and "immobilized".
type termSet []*regexp.Regexp

func compileTerms(keywords, patterns []string) (termSet, error) {
	out := make(termSet, 0, len(keywords)+len(patterns))
	for _, kw := range keywords {
		kw = strings.TrimSpace(util.FoldText(kw))
		if kw == "" {
			continue
		}
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)))
	}
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// hits counts terms found in text.
func (ts termSet) hits(text string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, re := range ts {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

func (ts termSet) any(texts ...string) bool {
	for _, text := range texts {
		if text == "" {
			continue
		}
		for _, re := range ts {
			if re.MatchString(text) {
				return true
			}
		}
	}
	return false
}

func foldAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = util.FoldText(t)
	}
	return out
}
