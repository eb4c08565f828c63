package util

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrEmpty = errors.New("empty value")

	reNumeric       = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)
	reThousandComma = regexp.MustCompile(`^[+-]?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
	reThousandDot   = regexp.MustCompile(`^[+-]?\d{1,3}(?:\.\d{3})+,\d+$|^[+-]?\d{1,3}(?:\.\d{3}){2,}$`)
	reThousandSpace = regexp.MustCompile(`^[+-]?\d{1,3}(?: \d{3})+(?:[.,]\d+)?$`)
)

var currencyPrefixes = []string{"S$", "RM", "US$", "$", "€", "£", "¥"}

// ParseNumber accepts spreadsheet-style numeric text: thousands separators,
// currency prefixes and accounting parentheses for negatives.
func ParseNumber(input string) (float64, error) {
	s := strings.ReplaceAll(input, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u202f", " ")
	s = CollapseSpaces(s)
	if s == "" {
		return 0, ErrEmpty
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	for _, p := range currencyPrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(strings.TrimPrefix(s, p))
			break
		}
	}

	s = normalizeNumericToken(s)
	if !reNumeric.MatchString(s) {
		return 0, fmt.Errorf("not a number: %q", input)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if negative {
		v = -v
	}
	return v, nil
}

func ParseInteger(input string) (int64, error) {
	f, err := ParseNumber(input)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, fmt.Errorf("not an integer: %q", input)
	}
	return int64(f), nil
}

func normalizeNumericToken(token string) string {
	if reThousandSpace.MatchString(token) {
		token = strings.ReplaceAll(token, " ", "")
		return strings.ReplaceAll(token, ",", ".")
	}
	if reThousandComma.MatchString(token) {
		return strings.ReplaceAll(token, ",", "")
	}
	if reThousandDot.MatchString(token) {
		token = strings.ReplaceAll(token, ".", "")
		return strings.ReplaceAll(token, ",", ".")
	}
	if strings.Count(token, ",") == 1 && !strings.Contains(token, ".") {
		return strings.ReplaceAll(token, ",", ".")
	}
	return token
}
