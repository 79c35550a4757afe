package model

import (
	"strings"
	"time"
)

const (
	// DateLayout is the partition key format of every record and draft.
	DateLayout = "2006-01-02"
	// TimestampLayout is the human-readable creation time shown to staff.
	TimestampLayout = "02/01/2006, 15:04:05"
)

// Fields is the open field-key to value mapping stored with a record.
// Its meaning depends on the record type; see FieldSet.
type Fields map[string]string

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// HasValues reports whether at least one field carries a non-blank value.
func (f Fields) HasValues() bool {
	for _, v := range f {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Record is an immutable fact about a completed check.
// ID and Type never change after creation.
type Record struct {
	ID        string     `json:"id"`
	Type      RecordType `json:"type"`
	Dept      Department `json:"dept,omitempty"`
	Date      string     `json:"date"`
	Timestamp string     `json:"timestamp"`
	ISO       time.Time  `json:"iso"`
	Fields    Fields     `json:"fields"`
	Summary   string     `json:"summary"`
	Source    Source     `json:"source,omitempty"`
}

// Typed decodes the open field map into the variant for the record type.
func (r Record) Typed() (FieldSet, error) {
	return DecodeFields(r.Type, r.Fields)
}

// Remote reports whether the record was hydrated from the row store.
func (r Record) Remote() bool {
	return r.Source == SourceRemote
}

// Clone returns a copy whose field map can be mutated independently.
func (r Record) Clone() Record {
	r.Fields = r.Fields.Clone()
	return r
}
