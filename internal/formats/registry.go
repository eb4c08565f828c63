package formats

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fleetfaults/configs"
	"fleetfaults/internal"
)

type FileMapping struct {
	Pattern string
	Format  string
}

// Registry holds every configured FormatSpec. It is immutable once loaded and
// safe for concurrent use; reloading means building a new Registry.
type Registry struct {
	specs    map[string]*FormatSpec
	keys     []string
	mappings []FileMapping
	logger   *slog.Logger
}

type Option func(*Registry)

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

type source struct {
	name string
	data []byte
}

// Load reads a YAML file, or every *.yaml / *.yml file of a directory in name order.
func Load(path string, opts ...Option) (*Registry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	files := []string{path}
	if info.IsDir() {
		files = nil
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
		sort.Strings(files)
		if len(files) == 0 {
			return nil, fmt.Errorf("no format definitions in %s", path)
		}
	}

	sources := make([]source, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source{name: f, data: data})
	}
	return build(sources, opts)
}

func Parse(data []byte, opts ...Option) (*Registry, error) {
	return build([]source{{name: "inline", data: data}}, opts)
}

// LoadDefault loads the format definitions compiled into the binary.
func LoadDefault(opts ...Option) (*Registry, error) {
	return build([]source{{name: configs.FormatsFile, data: configs.Formats()}}, opts)
}

func build(sources []source, opts []Option) (*Registry, error) {
	r := &Registry{specs: map[string]*FormatSpec{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}

	for _, src := range sources {
		doc, err := decode(src.name, src.data)
		if err != nil {
			return nil, err
		}

		domains := make([]string, 0, len(doc.Domains))
		for name := range doc.Domains {
			domains = append(domains, name)
		}
		sort.Strings(domains)

		for _, domain := range domains {
			dd := doc.Domains[domain]
			for key, fd := range dd.Formats {
				if _, dup := r.specs[key]; dup {
					return nil, fmt.Errorf("%s: duplicate format %q", src.name, key)
				}
				spec, err := buildSpec(domain, key, fd, merge(dd.Settings, fd.Settings))
				if err != nil {
					return nil, fmt.Errorf("%s: format %q: %w", src.name, key, err)
				}
				r.specs[key] = spec
			}
		}
		for _, m := range doc.FileFormats {
			r.mappings = append(r.mappings, FileMapping{Pattern: m.Pattern, Format: m.Format})
		}
	}

	if len(r.specs) == 0 {
		return nil, fmt.Errorf("no formats defined")
	}
	for _, m := range r.mappings {
		if _, ok := r.specs[m.Format]; !ok {
			return nil, fmt.Errorf("file mapping %q points to unknown format %q", m.Pattern, m.Format)
		}
		if _, err := filepath.Match(m.Pattern, ""); err != nil {
			return nil, fmt.Errorf("file mapping %q: %w", m.Pattern, err)
		}
	}

	for key := range r.specs {
		r.keys = append(r.keys, key)
	}
	sort.Strings(r.keys)
	r.logger.Debug("format registry loaded", "formats", r.keys, "mappings", len(r.mappings))
	return r, nil
}

func (r *Registry) Get(key string) (*FormatSpec, error) {
	spec, ok := r.specs[key]
	if !ok {
		return nil, &internal.UnknownFormatError{Key: key}
	}
	return spec, nil
}

func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Registry) All() []*FormatSpec {
	out := make([]*FormatSpec, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.specs[k])
	}
	return out
}

func (r *Registry) Mappings() []FileMapping {
	return append([]FileMapping(nil), r.mappings...)
}

// Resolve picks the format for a file: first by file-name mapping, then by
// inspecting the workbook's sheets and header rows.
func (r *Registry) Resolve(path string) (*FormatSpec, error) {
	base := strings.ToLower(filepath.Base(path))
	for _, m := range r.mappings {
		if ok, _ := filepath.Match(strings.ToLower(m.Pattern), base); ok {
			r.logger.Debug("format resolved by mapping", "file", path, "pattern", m.Pattern, "format", m.Format)
			return r.specs[m.Format], nil
		}
	}

	spec, err := r.detect(path)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("format resolved by detection", "file", path, "format", spec.key)
	return spec, nil
}
