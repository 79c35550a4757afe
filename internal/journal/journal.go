// Package journal keeps an append-only JSONL log of sync activity. Each
// entry carries the hash of the previous one so truncation or edits are
// detectable.
package journal

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/jsonutil"
	"github.com/safechecks/safechecks/pkg/model"
)

// Journal appends entries to a JSONL file with a hash chain.
type Journal struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New returns a journal writing to path. The file is created on first append.
func New(path string) *Journal {
	return &Journal{path: path, now: time.Now}
}

// Path returns the journal file path.
func (j *Journal) Path() string { return j.path }

// Append adds an entry.
func (j *Journal) Append(event model.JournalEvent, recordID, tab string, details map[string]any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return fmt.Errorf("lock journal: %w", err)
	}
	defer unlockFile(file)

	prev, err := lastHash(file)
	if err != nil {
		return err
	}

	entry := &model.JournalEntry{
		Timestamp: j.now().UTC(),
		Event:     event,
		RecordID:  recordID,
		Tab:       tab,
		Details:   details,
		PrevHash:  prev,
	}
	if entry.EntryHash, err = entryHash(entry); err != nil {
		return err
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	if _, err := file.Seek(0, 2); err != nil {
		return fmt.Errorf("seek journal: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return file.Sync()
}

// LastHash returns the hash of the newest entry, or "" for an empty journal.
func (j *Journal) LastHash() (model.HashValue, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()
	return lastHash(file)
}

func lastHash(file *os.File) (model.HashValue, error) {
	if _, err := file.Seek(0, 0); err != nil {
		return "", fmt.Errorf("seek journal: %w", err)
	}
	var last model.HashValue
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e model.JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		last = e.EntryHash
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan journal: %w", err)
	}
	return last, nil
}

// Entries reads every entry in order. Malformed lines are skipped.
func (j *Journal) Entries() ([]model.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	var out []model.JournalEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e model.JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, scanner.Err()
}

// Tail returns the newest n entries, oldest first.
func (j *Journal) Tail(n int) ([]model.JournalEntry, error) {
	all, err := j.Entries()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// Verify walks the chain and returns the number of entries checked.
func (j *Journal) Verify() (int, error) {
	entries, err := j.Entries()
	if err != nil {
		return 0, err
	}
	var prev model.HashValue
	for i := range entries {
		e := entries[i]
		if e.PrevHash != prev {
			return i, errclass.ErrJournalChainBroken.WithMessagef("entry %d: prev_hash mismatch", i+1)
		}
		want, err := entryHash(&e)
		if err != nil {
			return i, err
		}
		if want != e.EntryHash {
			return i, errclass.ErrJournalChainBroken.WithMessagef("entry %d: hash mismatch", i+1)
		}
		prev = e.EntryHash
	}
	return len(entries), nil
}

func entryHash(e *model.JournalEntry) (model.HashValue, error) {
	c := *e
	c.EntryHash = ""
	data, err := jsonutil.CanonicalMarshal(&c)
	if err != nil {
		return "", fmt.Errorf("canonical marshal: %w", err)
	}
	sum := sha256.Sum256(data)
	return model.HashValue(hex.EncodeToString(sum[:])), nil
}
