package internal

import (
	"math"
	"strconv"
	"time"
)

type fieldBinding struct {
	types []FieldType
	set   func(rec *FaultRecord, v any)
}

var fieldBindings = map[string]fieldBinding{
	"work_order":          textField(func(r *FaultRecord, s string) { r.WorkOrder = s }),
	"location":            textField(func(r *FaultRecord, s string) { r.Location = s }),
	"status":              textField(func(r *FaultRecord, s string) { r.Status = s }),
	"complaint":           textField(func(r *FaultRecord, s string) { r.Complaint = s }),
	"fault_codes":         textField(func(r *FaultRecord, s string) { r.FaultCodes = s }),
	"description":         textField(func(r *FaultRecord, s string) { r.Description = s }),
	"srr_no":              textField(func(r *FaultRecord, s string) { r.SRRNumber = s }),
	"mechanic":            textField(func(r *FaultRecord, s string) { r.Mechanic = s }),
	"customer":            textField(func(r *FaultRecord, s string) { r.CustomerID = s }),
	"customer_name":       textField(func(r *FaultRecord, s string) { r.CustomerName = s }),
	"next_recommendation": textField(func(r *FaultRecord, s string) { r.NextRecommendation = s }),
	"category":            textField(func(r *FaultRecord, s string) { r.SourceCategory = s }),
	"lead_tech":           textField(func(r *FaultRecord, s string) { r.LeadTech = s }),
	"bill_no":             textField(func(r *FaultRecord, s string) { r.BillNumber = s }),
	"mileage": {
		types: []FieldType{FieldInteger, FieldFloat},
		set: func(r *FaultRecord, v any) {
			switch n := v.(type) {
			case int64:
				r.Mileage = &n
			case float64:
				i := int64(math.Round(n))
				r.Mileage = &i
			}
		},
	},
	"date": {
		types: []FieldType{FieldDatetime},
		set: func(r *FaultRecord, v any) {
			if t, ok := v.(time.Time); ok {
				r.OpenDate = t
			}
		},
	},
	"completion_date":    timeField(func(r *FaultRecord, t *time.Time) { r.CompletionDate = t }),
	"actual_finish_date": timeField(func(r *FaultRecord, t *time.Time) { r.ActualFinishDate = t }),
	"interco_amount":     amountField(func(r *FaultRecord, f *float64) { r.IntercoAmount = f }),
	"cost":               amountField(func(r *FaultRecord, f *float64) { r.Cost = f }),
}

func textField(set func(*FaultRecord, string)) fieldBinding {
	return fieldBinding{
		types: []FieldType{FieldString},
		set: func(r *FaultRecord, v any) {
			if s, ok := v.(string); ok {
				set(r, s)
			}
		},
	}
}

func timeField(set func(*FaultRecord, *time.Time)) fieldBinding {
	return fieldBinding{
		types: []FieldType{FieldDatetime},
		set: func(r *FaultRecord, v any) {
			if t, ok := v.(time.Time); ok {
				set(r, &t)
			}
		},
	}
}

func amountField(set func(*FaultRecord, *float64)) fieldBinding {
	return fieldBinding{
		types: []FieldType{FieldFloat, FieldInteger},
		set: func(r *FaultRecord, v any) {
			switch n := v.(type) {
			case float64:
				set(r, &n)
			case int64:
				f := float64(n)
				set(r, &f)
			}
		},
	}
}

// FieldTypes reports the column types a known record key accepts.
// Unknown keys land in FaultRecord.Extra and accept any type.
func FieldTypes(key string) ([]FieldType, bool) {
	b, ok := fieldBindings[key]
	if !ok {
		return nil, false
	}
	return append([]FieldType(nil), b.types...), true
}

// SetField assigns a coerced value. A nil value leaves the field at its zero value.
func SetField(rec *FaultRecord, key string, v any) {
	if v == nil {
		return
	}
	if b, ok := fieldBindings[key]; ok {
		b.set(rec, v)
		return
	}
	if rec.Extra == nil {
		rec.Extra = map[string]string{}
	}
	rec.Extra[key] = FormatValue(v)
}

func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return ""
}
