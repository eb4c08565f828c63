package pipeline

import (
	"errors"
	"log/slog"
	"sort"

	"fleetfaults/internal"
	"fleetfaults/internal/formats"
)

type Deps struct {
	Engine *ValidationEngine
	Logger *slog.Logger
}

type Constructor func(spec *formats.FormatSpec, deps Deps) Processor

// families is the closed set of processor implementations, keyed by the
// "processor" field of a format definition.
var families = map[string]Constructor{
	"kardex":  newKardexProcessor,
	"tabular": newTabularProcessor,
}

type Factory struct {
	registry *formats.Registry
	families map[string]Constructor
	deps     Deps
}

type FactoryOption func(*Factory)

// WithFamilies replaces the processor table. Used by tests.
func WithFamilies(table map[string]Constructor) FactoryOption {
	return func(f *Factory) {
		f.families = make(map[string]Constructor, len(table))
		for k, v := range table {
			f.families[k] = v
		}
	}
}

func WithProcessorLogger(l *slog.Logger) FactoryOption {
	return func(f *Factory) { f.deps.Logger = l }
}

func NewFactory(reg *formats.Registry, opts ...FactoryOption) *Factory {
	f := &Factory{registry: reg, families: families}
	for _, o := range opts {
		o(f)
	}
	if f.deps.Logger == nil {
		f.deps.Logger = slog.Default()
	}
	f.deps.Engine = NewValidationEngine(f.deps.Logger)
	return f
}

func (f *Factory) Create(formatKey string) (Processor, error) {
	spec, err := f.registry.Get(formatKey)
	if err != nil {
		return nil, &internal.UnregisteredProcessorError{FormatKey: formatKey, Err: err}
	}
	return f.ForSpec(spec)
}

func (f *Factory) ForSpec(spec *formats.FormatSpec) (Processor, error) {
	ctor, ok := f.families[spec.Family()]
	if !ok {
		return nil, &internal.UnregisteredProcessorError{FormatKey: spec.Key(), Family: spec.Family()}
	}
	return ctor(spec, f.deps), nil
}

// Check reports every registry format without a processor.
func (f *Factory) Check() error {
	var errs []error
	for _, spec := range f.registry.All() {
		if _, ok := f.families[spec.Family()]; !ok {
			errs = append(errs, &internal.UnregisteredProcessorError{FormatKey: spec.Key(), Family: spec.Family()})
		}
	}
	return errors.Join(errs...)
}

func (f *Factory) Families() []string {
	out := make([]string, 0, len(f.families))
	for k := range f.families {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
