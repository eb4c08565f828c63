package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetfaults/internal"
)

func testCategories() []Category {
	return []Category{
		{Name: "Engine", Keywords: []string{"engine", "overheat", "coolant"}},
		{Name: "Electrical", Keywords: []string{"battery", "alternator", "starter"}, Subcategories: []Category{
			{Name: "Battery", Keywords: []string{"battery"}},
			{Name: "Charging", Keywords: []string{"alternator"}},
		}},
		{Name: "Brakes", Keywords: []string{"brake", "abs"}},
		{Name: "Others"},
	}
}

func TestClassifyHighestScoreWins(t *testing.T) {
	rc, err := NewRuleClassifier(testCategories(), "Others", 1)
	require.NoError(t, err)

	res := rc.Classify("Battery flat", "Replaced battery and checked alternator")
	assert.Equal(t, "Electrical", res.Category)
	assert.Equal(t, "Battery", res.Subcategory)
	assert.Equal(t, 3, res.Score)
}

func TestClassifyTieGoesToFirstDeclared(t *testing.T) {
	rc, err := NewRuleClassifier(testCategories(), "Others", 1)
	require.NoError(t, err)

	res := rc.Classify("engine light and brake noise", "")
	assert.Equal(t, "Engine", res.Category)
}

func TestClassifyFallbackBelowThreshold(t *testing.T) {
	rc, err := NewRuleClassifier(testCategories(), "Others", 2)
	require.NoError(t, err)

	assert.Equal(t, "Others", rc.Classify("Brake squeal", "").Category)
	assert.Equal(t, "Others", rc.Classify("", "").Category)
	assert.Equal(t, "Brakes", rc.Classify("Brake squeal", "Brake pads worn").Category)
}

func TestClassifyAlwaysInEnum(t *testing.T) {
	rc, err := NewRuleClassifier(testCategories(), "Others", 1)
	require.NoError(t, err)

	allowed := map[string]bool{}
	for _, c := range rc.Categories() {
		allowed[c] = true
	}
	inputs := []string{"", "???", "Engine overheat", "wipers", "ABS warning", "tyre puncture", "ÉNGINE"}
	for _, in := range inputs {
		res := rc.Classify(in, in)
		assert.True(t, allowed[res.Category], "category %q for %q", res.Category, in)
	}
}

func TestClassifyMatchesWordStartOnly(t *testing.T) {
	rc, err := NewRuleClassifier(testCategories(), "Others", 1)
	require.NoError(t, err)

	assert.Equal(t, "Others", rc.Classify("fabs panel", "").Category)
	assert.Equal(t, "Brakes", rc.Classify("brakes weak", "").Category)
}

func TestNewRuleClassifierRejectsBadConfig(t *testing.T) {
	_, err := NewRuleClassifier(nil, "Others", 1)
	assert.Error(t, err)

	_, err = NewRuleClassifier(testCategories(), "Misc", 1)
	assert.Error(t, err)

	_, err = NewRuleClassifier([]Category{{Name: "A"}, {Name: "A"}}, "A", 1)
	assert.Error(t, err)

	_, err = NewRuleClassifier([]Category{{Name: "A", Patterns: []string{"("}}}, "A", 1)
	assert.Error(t, err)
}

func TestSeverityRules(t *testing.T) {
	rules, err := NewSeverityRules(
		[]string{"urgent", "emergency", "critical", "immobili"},
		[]string{"routine", "regular", "normal"},
		"",
	)
	require.NoError(t, err)

	assert.Equal(t, internal.SeverityHigh, rules.Extract("Battery failed, vehicle immobilized, urgent"))
	assert.Equal(t, internal.SeverityHigh, rules.Extract("routine check", "found CRITICAL leak"))
	assert.Equal(t, internal.SeverityLow, rules.Extract("Routine servicing"))
	assert.Equal(t, internal.SeverityMedium, rules.Extract("Door handle loose"))
	assert.Equal(t, internal.SeverityMedium, rules.Extract())

	_, err = NewSeverityRules(nil, nil, internal.Severity("severe"))
	assert.Error(t, err)
}

func TestComponentMatcher(t *testing.T) {
	m, err := NewComponentMatcher([]Component{
		{Name: "Engine", Keywords: []string{"engine", "radiator"}},
		{Name: "Electrical System", Keywords: []string{"battery", "alternator"}},
		{Name: "Air Conditioning", Patterns: []string{`\ba/?c\b`, `aircon`}},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "Electrical System", m.Match("Battery failed, vehicle immobilized, urgent"))
	assert.Equal(t, "Engine", m.Match("radiator leak", "battery ok"))
	assert.Equal(t, "Air Conditioning", m.Match("A/C not cold"))
	assert.Equal(t, DefaultComponent, m.Match("Windscreen chipped"))
}
