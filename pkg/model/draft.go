package model

import (
	"sort"
	"strings"
	"time"

	"github.com/safechecks/safechecks/pkg/errclass"
)

// Ticks maps check id to ticked state. Only true entries are meaningful.
type Ticks map[string]bool

// Clone returns an independent copy, never nil.
func (t Ticks) Clone() Ticks {
	out := make(Ticks, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Ticked returns the ticked ids in natural order.
func (t Ticks) Ticked() []string {
	ids := make([]string, 0, len(t))
	for id, v := range t {
		if v {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return NaturalLess(ids[i], ids[j]) })
	return ids
}

// Count returns the number of ticked ids.
func (t Ticks) Count() int {
	n := 0
	for _, v := range t {
		if v {
			n++
		}
	}
	return n
}

// DraftKey identifies a draft: one checklist, one department, one day.
type DraftKey struct {
	Type RecordType
	Dept Department
	Date string
}

// String renders the key used as the row key of the remote Drafts tab.
func (k DraftKey) String() string {
	return string(k.Type) + "|" + string(k.Dept) + "|" + k.Date
}

// ParseDraftKey parses the String form.
func ParseDraftKey(s string) (DraftKey, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return DraftKey{}, errclass.ErrParse.WithMessagef("draft key %q", s)
	}
	return DraftKey{Type: RecordType(parts[0]), Dept: Department(parts[1]), Date: parts[2]}, nil
}

// Draft is the in-progress tick state of a checklist not yet submitted.
type Draft struct {
	Ticks Ticks `json:"ticks"`
	// Unticked remembers when the owner removed a tick so that older
	// remote state cannot bring it back.
	Unticked  map[string]time.Time `json:"unticked,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
	// Finalized is set once the checklist was submitted on some device.
	Finalized bool `json:"finalized,omitempty"`
	// Pending marks a draft whose last push failed.
	Pending bool `json:"pending,omitempty"`
}

// Clone returns an independent copy.
func (d Draft) Clone() Draft {
	d.Ticks = d.Ticks.Clone()
	if d.Unticked != nil {
		u := make(map[string]time.Time, len(d.Unticked))
		for k, v := range d.Unticked {
			u[k] = v
		}
		d.Unticked = u
	}
	return d
}
