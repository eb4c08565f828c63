package transform

import (
	"fmt"

	"fleetfaults/internal"
)

type step struct {
	name  string
	apply Func
}

// Pipeline is an ordered, compiled list of transforms.
type Pipeline struct {
	steps []step
}

func Compile(names []string, env Env) (Pipeline, error) {
	p := Pipeline{steps: make([]step, 0, len(names))}
	for _, name := range names {
		b, ok := catalog[name]
		if !ok {
			return Pipeline{}, &internal.UnknownTransformError{Name: name}
		}
		fn, err := b(env)
		if err != nil {
			return Pipeline{}, fmt.Errorf("transform %q: %w", name, err)
		}
		p.steps = append(p.steps, step{name: name, apply: fn})
	}
	return p, nil
}

func (p Pipeline) Apply(rec internal.FaultRecord) internal.FaultRecord {
	for _, s := range p.steps {
		rec = s.apply(rec)
	}
	return rec
}

func (p Pipeline) Names() []string {
	out := make([]string, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.name
	}
	return out
}

func (p Pipeline) Has(name string) bool {
	for _, s := range p.steps {
		if s.name == name {
			return true
		}
	}
	return false
}
