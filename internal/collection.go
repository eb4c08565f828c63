package internal

import (
	"sort"
	"time"
)

type CollectionMeta struct {
	SourceFile  string
	FormatKey   string
	TotalRows   int
	TotalSheets int
	ProcessedAt time.Time
	Elapsed     time.Duration
}

// FaultCollection is the immutable result of processing one file.
type FaultCollection struct {
	records     []FaultRecord
	sheetCounts map[string]int
	sheetOrder  []string
	meta        CollectionMeta
}

func NewFaultCollection(records []FaultRecord, meta CollectionMeta) *FaultCollection {
	c := &FaultCollection{
		records:     append([]FaultRecord(nil), records...),
		sheetCounts: map[string]int{},
		meta:        meta,
	}
	for _, r := range c.records {
		if _, seen := c.sheetCounts[r.SourceSheet]; !seen {
			c.sheetOrder = append(c.sheetOrder, r.SourceSheet)
		}
		c.sheetCounts[r.SourceSheet]++
	}
	return c
}

func (c *FaultCollection) Len() int { return len(c.records) }

func (c *FaultCollection) Meta() CollectionMeta { return c.meta }

func (c *FaultCollection) Records() []FaultRecord {
	return append([]FaultRecord(nil), c.records...)
}

func (c *FaultCollection) Sheets() []string {
	return append([]string(nil), c.sheetOrder...)
}

func (c *FaultCollection) SheetCounts() map[string]int {
	out := make(map[string]int, len(c.sheetCounts))
	for k, v := range c.sheetCounts {
		out[k] = v
	}
	return out
}

func (c *FaultCollection) Filter(keep func(FaultRecord) bool) []FaultRecord {
	var out []FaultRecord
	for _, r := range c.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Summary struct {
	Total         int     `json:"total"`
	BySheet       []Count `json:"by_sheet"`
	ByCategory    []Count `json:"by_category"`
	BySeverity    []Count `json:"by_severity"`
	ByComponent   []Count `json:"by_component"`
	ByVehicleType []Count `json:"by_vehicle_type"`
	ByStatus      []Count `json:"by_status"`
	TotalCost     float64 `json:"total_cost"`
	TotalInterco  float64 `json:"total_interco"`
}

func (c *FaultCollection) Summary() Summary {
	s := Summary{Total: len(c.records)}
	for _, sheet := range c.sheetOrder {
		s.BySheet = append(s.BySheet, Count{Key: sheet, Count: c.sheetCounts[sheet]})
	}
	s.ByCategory = countBy(c.records, func(r FaultRecord) string { return r.Category })
	s.BySeverity = countBy(c.records, func(r FaultRecord) string { return string(r.Severity) })
	s.ByComponent = countBy(c.records, func(r FaultRecord) string { return r.Component })
	s.ByVehicleType = countBy(c.records, func(r FaultRecord) string { return r.VehicleType })
	s.ByStatus = countBy(c.records, func(r FaultRecord) string { return r.Status })
	for _, r := range c.records {
		if r.Cost != nil {
			s.TotalCost += *r.Cost
		}
		if r.IntercoAmount != nil {
			s.TotalInterco += *r.IntercoAmount
		}
	}
	return s
}

// countBy orders by count descending, then key. Empty keys are skipped.
func countBy(records []FaultRecord, key func(FaultRecord) string) []Count {
	counts := map[string]int{}
	for _, r := range records {
		if k := key(r); k != "" {
			counts[k]++
		}
	}
	out := make([]Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
