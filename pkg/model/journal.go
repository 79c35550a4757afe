package model

import "time"

// JournalEvent identifies a sync journal entry.
type JournalEvent string

const (
	JournalRecordSent   JournalEvent = "record_sent"
	JournalRecordQueued JournalEvent = "record_queued"
	JournalQueueDrained JournalEvent = "queue_drained"
	JournalDraftSent    JournalEvent = "draft_sent"
	JournalDraftPending JournalEvent = "draft_pending"
	JournalPull         JournalEvent = "pull"
	JournalPullFailed   JournalEvent = "pull_failed"
	JournalSettings     JournalEvent = "settings"
)

// JournalEntry is a single line in the sync journal (JSONL format).
type JournalEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Event     JournalEvent   `json:"event"`
	RecordID  string         `json:"record_id,omitempty"`
	Tab       string         `json:"tab,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	PrevHash  HashValue      `json:"prev_hash"`
	EntryHash HashValue      `json:"entry_hash"`
}
