package formats

import (
	"fmt"

	"fleetfaults/internal"
	"fleetfaults/internal/classify"
	"fleetfaults/internal/transform"
	"fleetfaults/internal/util"
)

const defaultScanRows = 10

type ColumnDef struct {
	Name     string
	Key      string
	Type     internal.FieldType
	Required bool
}

// FormatSpec describes one spreadsheet layout. It is built once when the
// registry loads and is read-only afterwards; accessors return copies.
type FormatSpec struct {
	key         string
	domain      string
	family      string
	description string

	sheets          []string
	headerRow       int
	columns         []ColumnDef
	requiredColumns []string
	dateLayouts     []string
	outputLayout    string

	anchors  []string
	scanRows int

	pipeline         transform.Pipeline
	classifier       *classify.RuleClassifier
	defaultComponent string
}

func (s *FormatSpec) Key() string         { return s.key }
func (s *FormatSpec) Domain() string      { return s.domain }
func (s *FormatSpec) Family() string      { return s.family }
func (s *FormatSpec) Description() string { return s.description }
func (s *FormatSpec) HeaderRow() int      { return s.headerRow }
func (s *FormatSpec) ScanRows() int       { return s.scanRows }

func (s *FormatSpec) OutputDateLayout() string { return s.outputLayout }
func (s *FormatSpec) DefaultComponent() string { return s.defaultComponent }

func (s *FormatSpec) Sheets() []string          { return append([]string(nil), s.sheets...) }
func (s *FormatSpec) Columns() []ColumnDef      { return append([]ColumnDef(nil), s.columns...) }
func (s *FormatSpec) RequiredColumns() []string { return append([]string(nil), s.requiredColumns...) }
func (s *FormatSpec) DateLayouts() []string     { return append([]string(nil), s.dateLayouts...) }
func (s *FormatSpec) DetectAnchors() []string   { return append([]string(nil), s.anchors...) }

func (s *FormatSpec) Pipeline() transform.Pipeline { return s.pipeline }

func (s *FormatSpec) Transforms() []string { return s.pipeline.Names() }

func (s *FormatSpec) Categories() []string { return s.classifier.Categories() }

func (s *FormatSpec) FallbackCategory() string { return s.classifier.Fallback() }

// Column finds a column by header text, ignoring case and spacing.
func (s *FormatSpec) Column(header string) (ColumnDef, bool) {
	k := util.HeaderKey(header)
	for _, c := range s.columns {
		if util.HeaderKey(c.Name) == k {
			return c, true
		}
	}
	return ColumnDef{}, false
}

func buildSpec(domain, key string, fd formatDoc, settings settingsDoc) (*FormatSpec, error) {
	spec := &FormatSpec{
		key:         key,
		domain:      domain,
		family:      fd.Processor,
		description: fd.Description,
		headerRow:   fd.HeaderRow,
		scanRows:    fd.Detect.ScanRows,
	}
	if spec.family == "" {
		spec.family = key
	}
	if spec.scanRows == 0 {
		spec.scanRows = defaultScanRows
	}
	if spec.scanRows <= spec.headerRow {
		spec.scanRows = spec.headerRow + 1
	}

	seen := map[string]string{}
	for _, name := range fd.Sheets {
		hk := util.HeaderKey(name)
		if prev, dup := seen[hk]; dup {
			return nil, fmt.Errorf("sheet %q duplicates %q", name, prev)
		}
		seen[hk] = name
		spec.sheets = append(spec.sheets, name)
	}

	if err := spec.buildColumns(fd); err != nil {
		return nil, err
	}
	if err := spec.buildDates(fd, settings); err != nil {
		return nil, err
	}
	if err := spec.buildPipeline(fd, settings); err != nil {
		return nil, err
	}

	spec.anchors = append([]string(nil), fd.Detect.HeaderContains...)
	if len(spec.anchors) == 0 {
		spec.anchors = spec.RequiredColumns()
	}
	return spec, nil
}

func (s *FormatSpec) buildColumns(fd formatDoc) error {
	keys := map[string]struct{}{}
	headers := map[string]struct{}{}
	for _, cd := range fd.Columns {
		col := ColumnDef{Name: cd.Name, Key: cd.Key, Type: internal.FieldType(cd.Type), Required: cd.Required}
		if col.Type == "" {
			col.Type = internal.FieldString
		}
		if !col.Type.Valid() {
			return fmt.Errorf("column %q: unknown type %q", col.Name, col.Type)
		}
		if _, dup := keys[col.Key]; dup {
			return fmt.Errorf("duplicate column key %q", col.Key)
		}
		keys[col.Key] = struct{}{}
		hk := util.HeaderKey(col.Name)
		if _, dup := headers[hk]; dup {
			return fmt.Errorf("duplicate column %q", col.Name)
		}
		headers[hk] = struct{}{}

		if allowed, known := internal.FieldTypes(col.Key); known && !containsType(allowed, col.Type) {
			return fmt.Errorf("column %q: key %q cannot hold type %s", col.Name, col.Key, col.Type)
		}
		s.columns = append(s.columns, col)
	}

	for _, name := range fd.Validations.RequiredColumns {
		idx := s.columnIndex(name)
		if idx < 0 {
			return fmt.Errorf("required column %q is not defined", name)
		}
		s.columns[idx].Required = true
	}
	for _, c := range s.columns {
		if c.Required {
			s.requiredColumns = append(s.requiredColumns, c.Name)
		}
	}

	for _, key := range []string{"work_order", "date"} {
		c, ok := s.columnByKey(key)
		if !ok {
			return fmt.Errorf("no column maps to %q", key)
		}
		if !c.Required {
			return fmt.Errorf("column %q (%s) must be required", c.Name, key)
		}
	}
	return nil
}

func (s *FormatSpec) buildDates(fd formatDoc, settings settingsDoc) error {
	for _, f := range fd.Validations.DateFormat {
		layout, err := toLayout(f)
		if err != nil {
			return err
		}
		s.dateLayouts = append(s.dateLayouts, layout)
	}
	if len(s.dateLayouts) == 0 {
		s.dateLayouts = append([]string(nil), DefaultDateLayouts...)
	}
	s.outputLayout = DefaultOutputLayout
	if settings.OutputDateFormat != "" {
		layout, err := toLayout(settings.OutputDateFormat)
		if err != nil {
			return err
		}
		s.outputLayout = layout
	}
	return nil
}

func (s *FormatSpec) buildPipeline(fd formatDoc, settings settingsDoc) error {
	for _, name := range fd.Transformations {
		if !transform.Known(name) {
			return &internal.UnknownTransformError{Format: s.key, Name: name}
		}
	}
	if last := fd.Transformations[len(fd.Transformations)-1]; last != transform.ClassifyFault {
		return fmt.Errorf("%s must be the last transformation, got %s", transform.ClassifyFault, last)
	}

	cats := make([]classify.Category, 0, len(settings.FaultCategories))
	for _, c := range settings.FaultCategories {
		cats = append(cats, toCategory(c))
	}
	classifier, err := classify.NewRuleClassifier(cats, settings.FallbackCategory, settings.MinMatchScore)
	if err != nil {
		return err
	}
	s.classifier = classifier

	var high, low []string
	var def internal.Severity
	if settings.Severity != nil {
		high, low, def = settings.Severity.High, settings.Severity.Low, internal.Severity(settings.Severity.Default)
	}
	severity, err := classify.NewSeverityRules(high, low, def)
	if err != nil {
		return err
	}

	comps := make([]classify.Component, 0, len(settings.Components))
	for _, c := range settings.Components {
		comps = append(comps, classify.Component{Name: c.Name, Keywords: c.Keywords, Patterns: c.Patterns})
	}
	components, err := classify.NewComponentMatcher(comps, settings.DefaultComponent)
	if err != nil {
		return err
	}
	s.defaultComponent = settings.DefaultComponent
	if s.defaultComponent == "" {
		s.defaultComponent = classify.DefaultComponent
	}

	p, err := transform.Compile(fd.Transformations, transform.Env{
		Classifier: classifier,
		Severity:   severity,
		Components: components,
	})
	if err != nil {
		return err
	}
	s.pipeline = p
	return nil
}

func toCategory(c categoryDoc) classify.Category {
	out := classify.Category{Name: c.Name, Keywords: c.Keywords, Patterns: c.Patterns}
	for _, sub := range c.Subcategories {
		out.Subcategories = append(out.Subcategories, toCategory(sub))
	}
	return out
}

func (s *FormatSpec) columnIndex(name string) int {
	k := util.HeaderKey(name)
	for i, c := range s.columns {
		if util.HeaderKey(c.Name) == k {
			return i
		}
	}
	return -1
}

func (s *FormatSpec) columnByKey(key string) (ColumnDef, bool) {
	for _, c := range s.columns {
		if c.Key == key {
			return c, true
		}
	}
	return ColumnDef{}, false
}

func containsType(types []internal.FieldType, t internal.FieldType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
