package syncer

import (
	"strings"

	"github.com/safechecks/safechecks/pkg/model"
)

// MergeStats counts what MergeRecords did.
type MergeStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// MergeRecords folds remote records into local, keyed by id. Local order
// is kept and remote-only records are appended in remote order. When both
// sides hold an id the local record is the base: non-empty remote metadata
// is overlaid and non-empty remote field values replace local ones, so an
// empty remote value never erases local data. Duplicate remote ids fold
// with the same rule.
func MergeRecords(local, remote []model.Record) ([]model.Record, MergeStats) {
	out := make([]model.Record, 0, len(local)+len(remote))
	index := make(map[string]int, len(local)+len(remote))
	for _, r := range local {
		if i, ok := index[r.ID]; ok {
			out[i] = mergeRecord(out[i], r)
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r.Clone())
	}

	var stats MergeStats
	for _, r := range remote {
		if r.ID == "" {
			continue
		}
		i, ok := index[r.ID]
		if !ok {
			index[r.ID] = len(out)
			out = append(out, r.Clone())
			stats.Added++
			continue
		}
		merged := mergeRecord(out[i], r)
		if !sameRecord(merged, out[i]) {
			if i < len(local) {
				stats.Updated++
			}
			out[i] = merged
		}
	}
	return out, stats
}

func mergeRecord(base, r model.Record) model.Record {
	out := base.Clone()
	if r.Dept != "" {
		out.Dept = r.Dept
	}
	if r.Date != "" {
		out.Date = r.Date
	}
	if r.Timestamp != "" {
		out.Timestamp = r.Timestamp
	}
	if !r.ISO.IsZero() {
		out.ISO = r.ISO
	}
	if strings.TrimSpace(r.Summary) != "" {
		out.Summary = r.Summary
	}
	if r.Source != "" {
		out.Source = r.Source
	}
	if r.Fields.HasValues() {
		if out.Fields == nil {
			out.Fields = model.Fields{}
		}
		for k, v := range r.Fields {
			if strings.TrimSpace(v) != "" {
				out.Fields[k] = v
			}
		}
	}
	return out
}

func sameRecord(a, b model.Record) bool {
	if a.ID != b.ID || a.Type != b.Type || a.Dept != b.Dept || a.Date != b.Date ||
		a.Timestamp != b.Timestamp || !a.ISO.Equal(b.ISO) || a.Summary != b.Summary ||
		a.Source != b.Source || len(a.Fields) != len(b.Fields) {
		return false
	}
	for k, v := range a.Fields {
		if bv, ok := b.Fields[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
