package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces    = regexp.MustCompile(`\s+`)
	reExcelEsc  = regexp.MustCompile(`(?i)_x000[0-9a-f]_`)
	reNonCode   = regexp.MustCompile(`[^A-Z0-9\-/]`)
	reTrailZero = regexp.MustCompile(`^(\d+)\.0+$`)
)

var mojibake = strings.NewReplacer(
	"â€™", "'",
	"â€˜", "'",
	"â€œ", `"`,
	"â€\u009d", `"`,
	"â€“", "-",
	"â€”", "-",
	"Â\u00a0", " ",
)

func CollapseSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// HeaderKey folds a column header for comparison: NBSP, case and spacing are ignored.
func HeaderKey(input string) string {
	s := strings.ReplaceAll(input, "\u00a0", " ")
	return strings.ToLower(CollapseSpaces(s))
}

// CleanText normalizes free text typed into spreadsheet cells.
func CleanText(input string) string {
	s := mojibake.Replace(input)
	s = reExcelEsc.ReplaceAllString(s, " ")
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.Is(unicode.Zs, r) {
			return ' '
		}
		return r
	}, s)
	return CollapseSpaces(s)
}

// FoldText lowercases and strips diacritics for keyword matching.
func FoldText(input string) string {
	decomposed := norm.NFD.String(strings.ToLower(input))
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeCode uppercases an identifier and drops everything except letters, digits, '-' and '/'.
func NormalizeCode(input string) string {
	s := strings.TrimSpace(input)
	if m := reTrailZero.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.ToUpper(s)
	return reNonCode.ReplaceAllString(s, "")
}
