package journal_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/safechecks/safechecks/internal/journal"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_AppendAndChain(t *testing.T) {
	j := journal.New(filepath.Join(t.TempDir(), "logs", "sync.jsonl"))

	require.NoError(t, j.Append(model.JournalRecordSent, "rec-1", "Temperature Log", nil))
	require.NoError(t, j.Append(model.JournalQueueDrained, "", "", map[string]any{"sent": 3}))

	entries, err := j.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.HashValue(""), entries[0].PrevHash)
	assert.Equal(t, entries[0].EntryHash, entries[1].PrevHash)
	assert.Equal(t, "rec-1", entries[0].RecordID)

	last, err := j.LastHash()
	require.NoError(t, err)
	assert.Equal(t, entries[1].EntryHash, last)

	n, err := j.Verify()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestJournal_EmptyFile(t *testing.T) {
	j := journal.New(filepath.Join(t.TempDir(), "missing.jsonl"))
	last, err := j.LastHash()
	require.NoError(t, err)
	assert.Empty(t, last)

	n, err := j.Verify()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestJournal_Tail(t *testing.T) {
	j := journal.New(filepath.Join(t.TempDir(), "sync.jsonl"))
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, j.Append(model.JournalRecordQueued, id, "", nil))
	}
	tail, err := j.Tail(2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "c", tail[0].RecordID)
	assert.Equal(t, "d", tail[1].RecordID)
}

func TestJournal_VerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.jsonl")
	j := journal.New(path)
	require.NoError(t, j.Append(model.JournalRecordSent, "rec-1", "Opening Checks", nil))
	require.NoError(t, j.Append(model.JournalRecordSent, "rec-2", "Opening Checks", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(string(data), "rec-1", "rec-9", 1)), 0644))

	n, err := j.Verify()
	assert.ErrorIs(t, err, errclass.ErrJournalChainBroken)
	assert.Zero(t, n)
}

func TestJournal_ConcurrentAppends(t *testing.T) {
	j := journal.New(filepath.Join(t.TempDir(), "sync.jsonl"))
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, j.Append(model.JournalDraftSent, "", "Drafts", nil))
		}()
	}
	wg.Wait()

	n, err := j.Verify()
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}
