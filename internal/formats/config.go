package formats

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type fileDoc struct {
	FileFormats []mappingDoc         `yaml:"file_formats" validate:"dive"`
	Domains     map[string]domainDoc `yaml:"domains" validate:"dive"`
}

type mappingDoc struct {
	Pattern string `yaml:"pattern" validate:"required"`
	Format  string `yaml:"format" validate:"required"`
}

type domainDoc struct {
	Settings settingsDoc          `yaml:"settings"`
	Formats  map[string]formatDoc `yaml:"formats" validate:"required,min=1,dive"`
}

type formatDoc struct {
	Processor       string         `yaml:"processor"`
	Description     string         `yaml:"description"`
	Sheets          []string       `yaml:"sheets" validate:"dive,required"`
	HeaderRow       int            `yaml:"header_row" validate:"min=0"`
	Detect          detectDoc      `yaml:"detect"`
	Columns         []columnDoc    `yaml:"columns" validate:"required,min=1,dive"`
	Validations     validationsDoc `yaml:"validations"`
	Transformations []string       `yaml:"transformations" validate:"required,min=1,dive,required"`
	Settings        *settingsDoc   `yaml:"settings"`
}

type columnDoc struct {
	Name     string `yaml:"name" validate:"required"`
	Key      string `yaml:"key" validate:"required"`
	Type     string `yaml:"type" validate:"omitempty,oneof=string integer float datetime"`
	Required bool   `yaml:"required"`
}

type validationsDoc struct {
	RequiredColumns []string   `yaml:"required_columns" validate:"dive,required"`
	DateFormat      stringList `yaml:"date_format"`
}

type detectDoc struct {
	HeaderContains []string `yaml:"header_contains"`
	ScanRows       int      `yaml:"scan_rows" validate:"min=0"`
}

type settingsDoc struct {
	FaultCategories  []categoryDoc  `yaml:"fault_categories" validate:"dive"`
	FallbackCategory string         `yaml:"fallback_category"`
	MinMatchScore    int            `yaml:"min_match_score" validate:"min=0"`
	Severity         *severityDoc   `yaml:"severity"`
	Components       []componentDoc `yaml:"components" validate:"dive"`
	DefaultComponent string         `yaml:"default_component"`
	OutputDateFormat string         `yaml:"output_date_format"`
}

type categoryDoc struct {
	Name          string        `yaml:"name" validate:"required"`
	Keywords      []string      `yaml:"keywords"`
	Patterns      []string      `yaml:"patterns"`
	Subcategories []categoryDoc `yaml:"subcategories" validate:"dive"`
}

type severityDoc struct {
	High    []string `yaml:"high"`
	Low     []string `yaml:"low"`
	Default string   `yaml:"default" validate:"omitempty,oneof=low medium high"`
}

type componentDoc struct {
	Name     string   `yaml:"name" validate:"required"`
	Keywords []string `yaml:"keywords"`
	Patterns []string `yaml:"patterns"`
}

// stringList accepts either a scalar or a sequence.
type stringList []string

func (l *stringList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var one string
	if err := unmarshal(&one); err == nil {
		if one != "" {
			*l = stringList{one}
		}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*l = many
	return nil
}

var validate = validator.New()

func decode(name string, data []byte) (fileDoc, error) {
	var doc fileDoc
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return fileDoc{}, fmt.Errorf("%s: %w", name, err)
	}
	if err := validate.Struct(doc); err != nil {
		return fileDoc{}, fmt.Errorf("%s: %w", name, err)
	}
	return doc, nil
}

// merge overlays a format's own settings on its domain settings.
func merge(base settingsDoc, over *settingsDoc) settingsDoc {
	if over == nil {
		return base
	}
	out := base
	if len(over.FaultCategories) > 0 {
		out.FaultCategories = over.FaultCategories
	}
	if over.FallbackCategory != "" {
		out.FallbackCategory = over.FallbackCategory
	}
	if over.MinMatchScore > 0 {
		out.MinMatchScore = over.MinMatchScore
	}
	if over.Severity != nil {
		out.Severity = over.Severity
	}
	if len(over.Components) > 0 {
		out.Components = over.Components
	}
	if over.DefaultComponent != "" {
		out.DefaultComponent = over.DefaultComponent
	}
	if over.OutputDateFormat != "" {
		out.OutputDateFormat = over.OutputDateFormat
	}
	return out
}
