// Package ledger collects categorized, human-readable outcome messages for a run.
package ledger

import (
	"fmt"
	"sort"
)

// Well-known categories recorded by the updater pipeline.
const (
	Success          = "Success"
	Error            = "Error"
	LanguageMismatch = "Language mismatch"
	ImageExists      = "Image exists"
	NotWorkspace     = "Not a workspace question"
	NotAutograder    = "Not an external autograder question"
	FileNotFound     = "File not found"
	DryRun           = "Dry run"
)

// Ledger is an append-only multimap from category to messages.
// Messages keep insertion order within a category. It is not safe for
// concurrent use.
type Ledger struct {
	entries map[string][]string
	total   int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[string][]string)}
}

// Add appends message under category.
func (l *Ledger) Add(category, message string) {
	l.entries[category] = append(l.entries[category], message)
	l.total++
}

// Addf formats and appends a message under category.
func (l *Ledger) Addf(category, format string, args ...interface{}) {
	l.Add(category, fmt.Sprintf(format, args...))
}

// Categories returns the recorded category labels in lexicographic order.
func (l *Ledger) Categories() []string {
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Messages returns a copy of the messages recorded under category.
func (l *Ledger) Messages(category string) []string {
	msgs := l.entries[category]
	out := make([]string, len(msgs))
	copy(out, msgs)
	return out
}

// Count returns the number of messages under category.
func (l *Ledger) Count(category string) int {
	return len(l.entries[category])
}

// Len returns the total number of messages across all categories.
func (l *Ledger) Len() int {
	return l.total
}

// Lines renders the ledger as report lines: a "<Category>:" header followed
// by one indented "  - <message>" line per message.
func (l *Ledger) Lines() []string {
	lines := make([]string, 0, l.total+len(l.entries))
	for _, category := range l.Categories() {
		lines = append(lines, category+":")
		for _, msg := range l.entries[category] {
			lines = append(lines, "  - "+msg)
		}
	}
	return lines
}
