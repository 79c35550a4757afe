package sheets

import (
	"context"
	"sync"

	"github.com/safechecks/safechecks/pkg/errclass"
)

// Memory is an in-process RowStore. It backs the "memory" remote driver
// used for demos and tests; SetOffline simulates a lost connection.
type Memory struct {
	mu       sync.Mutex
	tabs     map[string][]Row
	settings []byte
	offline  bool
	calls    int
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{tabs: make(map[string][]Row)}
}

// SetOffline makes every call fail with E_TRANSPORT until reset.
func (m *Memory) SetOffline(off bool) {
	m.mu.Lock()
	m.offline = off
	m.mu.Unlock()
}

// Calls returns the number of operations attempted.
func (m *Memory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Rows returns a copy of the rows of tab.
func (m *Memory) Rows(tab string) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRows(m.tabs[tab])
}

func (m *Memory) begin(ctx context.Context) error {
	m.calls++
	if err := ctx.Err(); err != nil {
		return errclass.ErrTransport.WithMessage(err.Error())
	}
	if m.offline {
		return errclass.ErrTransport.WithMessage("remote unreachable")
	}
	return nil
}

func zipRow(headers, row []string) Row {
	r := make(Row, len(headers))
	for i, h := range headers {
		if i < len(row) {
			r[h] = row[i]
		} else {
			r[h] = ""
		}
	}
	return r
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		c := make(Row, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

func (m *Memory) Append(ctx context.Context, tab string, headers, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx); err != nil {
		return err
	}
	m.tabs[tab] = append(m.tabs[tab], zipRow(headers, row))
	return nil
}

func (m *Memory) Upsert(ctx context.Context, tab, key string, headers, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx); err != nil {
		return err
	}
	r := zipRow(headers, row)
	for i, existing := range m.tabs[tab] {
		if existing[ColKey] == key {
			m.tabs[tab][i] = r
			return nil
		}
	}
	m.tabs[tab] = append(m.tabs[tab], r)
	return nil
}

func (m *Memory) Read(ctx context.Context, tab string) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx); err != nil {
		return nil, err
	}
	return cloneRows(m.tabs[tab]), nil
}

func (m *Memory) SaveSettings(ctx context.Context, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx); err != nil {
		return err
	}
	m.settings = append([]byte(nil), blob...)
	return nil
}

func (m *Memory) ReadSettings(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx); err != nil {
		return nil, err
	}
	if m.settings == nil {
		return nil, nil
	}
	return append([]byte(nil), m.settings...), nil
}
