package classify

import (
	"fmt"

	"fleetfaults/internal"
)

// SeverityRules checks high keywords before low ones; no hit yields the default.
type SeverityRules struct {
	high termSet
	low  termSet
	def  internal.Severity
}

func NewSeverityRules(high, low []string, def internal.Severity) (*SeverityRules, error) {
	if def == "" {
		def = internal.SeverityMedium
	}
	if _, err := internal.ParseSeverity(string(def)); err != nil {
		return nil, err
	}
	h, err := compileTerms(high, nil)
	if err != nil {
		return nil, fmt.Errorf("severity high: %w", err)
	}
	l, err := compileTerms(low, nil)
	if err != nil {
		return nil, fmt.Errorf("severity low: %w", err)
	}
	return &SeverityRules{high: h, low: l, def: def}, nil
}

func (s *SeverityRules) Extract(texts ...string) internal.Severity {
	folded := foldAll(texts)
	switch {
	case s.high.any(folded...):
		return internal.SeverityHigh
	case s.low.any(folded...):
		return internal.SeverityLow
	}
	return s.def
}
