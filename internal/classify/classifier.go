package classify

import (
	"errors"
	"fmt"

	"fleetfaults/internal/util"
)

const DefaultMinScore = 1

type Category struct {
	Name          string
	Keywords      []string
	Patterns      []string
	Subcategories []Category
}

type Result struct {
	Category    string
	Subcategory string
	Score       int
}

type Classifier interface {
	Classify(complaint, description string) Result
	Categories() []string
}

type compiledCategory struct {
	name  string
	terms termSet
	subs  []compiledCategory
}

// score counts term hits in the complaint plus term hits in the description.
func (c compiledCategory) score(complaint, description string) int {
	return c.terms.hits(complaint) + c.terms.hits(description)
}

// RuleClassifier assigns the highest scoring category. Ties go to the category
// declared first; scores below minScore fall back.
type RuleClassifier struct {
	categories []compiledCategory
	names      []string
	fallback   string
	minScore   int
}

func NewRuleClassifier(categories []Category, fallback string, minScore int) (*RuleClassifier, error) {
	if len(categories) == 0 {
		return nil, errors.New("classifier: no categories configured")
	}
	if minScore < 1 {
		minScore = DefaultMinScore
	}

	rc := &RuleClassifier{fallback: fallback, minScore: minScore}
	seen := map[string]struct{}{}
	for _, c := range categories {
		if c.Name == "" {
			return nil, errors.New("classifier: category without a name")
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("classifier: duplicate category %q", c.Name)
		}
		seen[c.Name] = struct{}{}

		compiled, err := compileCategory(c)
		if err != nil {
			return nil, err
		}
		rc.categories = append(rc.categories, compiled)
		rc.names = append(rc.names, c.Name)
	}
	if _, ok := seen[fallback]; !ok {
		return nil, fmt.Errorf("classifier: fallback category %q is not a configured category", fallback)
	}
	return rc, nil
}

func compileCategory(c Category) (compiledCategory, error) {
	terms, err := compileTerms(c.Keywords, c.Patterns)
	if err != nil {
		return compiledCategory{}, fmt.Errorf("category %q: %w", c.Name, err)
	}
	out := compiledCategory{name: c.Name, terms: terms}
	for _, sub := range c.Subcategories {
		cs, err := compileCategory(sub)
		if err != nil {
			return compiledCategory{}, fmt.Errorf("category %q: %w", c.Name, err)
		}
		out.subs = append(out.subs, cs)
	}
	return out, nil
}

func (rc *RuleClassifier) Categories() []string {
	return append([]string(nil), rc.names...)
}

func (rc *RuleClassifier) Fallback() string { return rc.fallback }

func (rc *RuleClassifier) Classify(complaint, description string) Result {
	fc, fd := util.FoldText(complaint), util.FoldText(description)

	top, topScore := bestOf(rc.categories, fc, fd)
	if top < 0 || topScore < rc.minScore {
		return Result{Category: rc.fallback}
	}

	winner := rc.categories[top]
	res := Result{Category: winner.name, Score: topScore}
	if sub, subScore := bestOf(winner.subs, fc, fd); sub >= 0 && subScore > 0 {
		res.Subcategory = winner.subs[sub].name
	}
	return res
}

func bestOf(cats []compiledCategory, complaint, description string) (int, int) {
	idx, top := -1, 0
	for i, c := range cats {
		if s := c.score(complaint, description); s > top {
			idx, top = i, s
		}
	}
	return idx, top
}
