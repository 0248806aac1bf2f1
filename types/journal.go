package types

import (
	"sync"
	"time"
)

// Severity grades a journal entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// JournalEntry is one line of the learning log shared by the engines.
type JournalEntry struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Message          string    `json:"message"`
	SourceActionID   string    `json:"source_action_id,omitempty"`
	SourceActionName string    `json:"source_action_name,omitempty"`
	SessionID        string    `json:"session_id,omitempty"`
	CycleID          string    `json:"cycle_id,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	Severity         Severity  `json:"severity,omitempty"`
}

// HasTag reports whether the entry carries tag.
func (e JournalEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Journal receives learning-log entries.
type Journal interface {
	Record(entry JournalEntry)
}

// JournalFunc adapts a function to Journal.
type JournalFunc func(JournalEntry)

// Record implements Journal.
func (f JournalFunc) Record(entry JournalEntry) { f(entry) }

// NopJournal discards every entry.
type NopJournal struct{}

// Record implements Journal.
func (NopJournal) Record(JournalEntry) {}

// LearningLog is an append-only in-memory Journal.
type LearningLog struct {
	mu      sync.RWMutex
	entries []JournalEntry
}

// NewLearningLog creates a log seeded with entries.
func NewLearningLog(entries ...JournalEntry) *LearningLog {
	l := &LearningLog{}
	l.entries = append(l.entries, entries...)
	return l
}

// Record implements Journal.
func (l *LearningLog) Record(entry JournalEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Severity == "" {
		entry.Severity = SeverityInfo
	}
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of the log in insertion order.
func (l *LearningLog) Entries() []JournalEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]JournalEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *LearningLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Replace swaps the log contents, used when a snapshot is restored.
func (l *LearningLog) Replace(entries []JournalEntry) {
	l.mu.Lock()
	l.entries = append([]JournalEntry(nil), entries...)
	l.mu.Unlock()
}

// Tagged returns the entries carrying tag.
func (l *LearningLog) Tagged(tag string) []JournalEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []JournalEntry
	for _, e := range l.entries {
		if e.HasTag(tag) {
			out = append(out, e)
		}
	}
	return out
}
