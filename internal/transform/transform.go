package transform

import (
	"errors"
	"sort"
	"time"

	"fleetfaults/internal"
	"fleetfaults/internal/classify"
	"fleetfaults/internal/util"
)

// Func is a pure record transform.
type Func func(internal.FaultRecord) internal.FaultRecord

// Env carries the per-format rule sets transforms are bound to at compile time.
type Env struct {
	Classifier classify.Classifier
	Severity   *classify.SeverityRules
	Components *classify.ComponentMatcher
}

const (
	CleanWorkOrder   = "clean_work_order"
	CleanTextFields  = "clean_text_fields"
	FormatDates      = "format_dates"
	CleanDescription = "clean_description"
	ExtractSeverity  = "extract_severity_from_description"
	ExtractComponent = "extract_component_from_description"
	ClassifyFault    = "classify_fault_category"
)

type builder func(Env) (Func, error)

var catalog = map[string]builder{
	CleanWorkOrder:   static(cleanWorkOrder),
	CleanTextFields:  static(cleanTextFields),
	FormatDates:      static(formatDates),
	CleanDescription: static(cleanDescription),
	ExtractSeverity: func(env Env) (Func, error) {
		if env.Severity == nil {
			return nil, errors.New("severity rules not configured")
		}
		return func(rec internal.FaultRecord) internal.FaultRecord {
			rec.Severity = env.Severity.Extract(rec.Description, rec.Complaint)
			return rec
		}, nil
	},
	ExtractComponent: func(env Env) (Func, error) {
		if env.Components == nil {
			return nil, errors.New("component vocabulary not configured")
		}
		return func(rec internal.FaultRecord) internal.FaultRecord {
			rec.Component = env.Components.Match(rec.Description, rec.Complaint)
			return rec
		}, nil
	},
	ClassifyFault: func(env Env) (Func, error) {
		if env.Classifier == nil {
			return nil, errors.New("fault categories not configured")
		}
		return func(rec internal.FaultRecord) internal.FaultRecord {
			res := env.Classifier.Classify(rec.Complaint, rec.Description)
			rec.Category = res.Category
			rec.FaultCategory = res.Category
			rec.Subcategory = res.Subcategory
			return rec
		}, nil
	},
}

func static(fn Func) builder {
	return func(Env) (Func, error) { return fn, nil }
}

func Known(name string) bool {
	_, ok := catalog[name]
	return ok
}

func Names() []string {
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func cleanWorkOrder(rec internal.FaultRecord) internal.FaultRecord {
	if code := util.NormalizeCode(rec.WorkOrder); code != "" {
		rec.WorkOrder = code
	} else {
		rec.WorkOrder = util.CollapseSpaces(rec.WorkOrder)
	}
	return rec
}

func cleanTextFields(rec internal.FaultRecord) internal.FaultRecord {
	for _, f := range []*string{
		&rec.Location, &rec.Status, &rec.SRRNumber, &rec.Mechanic, &rec.CustomerID,
		&rec.CustomerName, &rec.SourceCategory, &rec.LeadTech, &rec.BillNumber,
	} {
		*f = util.CollapseSpaces(*f)
	}
	return rec
}

func cleanDescription(rec internal.FaultRecord) internal.FaultRecord {
	rec.Complaint = util.CleanText(rec.Complaint)
	rec.Description = util.CleanText(rec.Description)
	rec.FaultCodes = util.CleanText(rec.FaultCodes)
	rec.NextRecommendation = util.CleanText(rec.NextRecommendation)
	return rec
}

func formatDates(rec internal.FaultRecord) internal.FaultRecord {
	rec.OpenDate = CanonicalTime(rec.OpenDate)
	rec.CompletionDate = canonicalPtr(rec.CompletionDate)
	rec.ActualFinishDate = canonicalPtr(rec.ActualFinishDate)
	return rec
}

// CanonicalTime is UTC at whole-second precision.
func CanonicalTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Round(time.Second)
}

func canonicalPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := CanonicalTime(*t)
	return &c
}
