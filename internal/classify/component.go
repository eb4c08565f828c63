package classify

import "fmt"

const DefaultComponent = "Unspecified"

type Component struct {
	Name     string
	Keywords []string
	Patterns []string
}

type compiledComponent struct {
	name  string
	terms termSet
}

// ComponentMatcher returns the first declared component with a matching term.
type ComponentMatcher struct {
	components []compiledComponent
	fallback   string
}

func NewComponentMatcher(components []Component, fallback string) (*ComponentMatcher, error) {
	if fallback == "" {
		fallback = DefaultComponent
	}
	m := &ComponentMatcher{fallback: fallback}
	for _, c := range components {
		if c.Name == "" {
			return nil, fmt.Errorf("component without a name")
		}
		terms, err := compileTerms(c.Keywords, c.Patterns)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", c.Name, err)
		}
		m.components = append(m.components, compiledComponent{name: c.Name, terms: terms})
	}
	return m, nil
}

func (m *ComponentMatcher) Match(texts ...string) string {
	folded := foldAll(texts)
	for _, c := range m.components {
		if c.terms.any(folded...) {
			return c.name
		}
	}
	return m.fallback
}
