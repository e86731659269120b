// Package chat implements the query channel client: one duplex connection
// per outgoing query, driven through the staged/terminal protocol into a
// single transcript entry.
package chat

import (
	"sync"

	"github.com/google/uuid"

	"github.com/careconnect/referral-client/internal/domain"
)

// Sender identifies who produced a transcript entry.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Entry is one visible transcript item. While Pending is set the entry is
// the in-progress placeholder for an outstanding query; exactly one
// replacement ever resolves it.
type Entry struct {
	ID      string
	Sender  string
	Text    string
	Pending bool
	Answer  *domain.Answer
}

// Transcript is the ordered, concurrency-safe list of visible entries.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// AppendUser appends the user's outgoing message.
func (t *Transcript) AppendUser(text string) Entry {
	entry := Entry{ID: uuid.NewString(), Sender: SenderUser, Text: text}
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.mu.Unlock()
	return entry
}

// AppendPending appends the single in-progress placeholder for a query and
// returns its id.
func (t *Transcript) AppendPending(text string) string {
	entry := Entry{ID: uuid.NewString(), Sender: SenderBot, Text: text, Pending: true}
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.mu.Unlock()
	return entry.ID
}

// UpdatePending rewrites the placeholder text in place. It is a no-op once
// the placeholder has been resolved.
func (t *Transcript) UpdatePending(id, text string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].ID == id && t.entries[i].Pending {
			t.entries[i].Text = text
			return true
		}
	}
	return false
}

// Resolve replaces the placeholder with its final entry. The first call
// wins; later calls report false and change nothing.
func (t *Transcript) Resolve(id string, final Entry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].ID == id && t.entries[i].Pending {
			final.ID = id
			final.Pending = false
			if final.Sender == "" {
				final.Sender = SenderBot
			}
			t.entries[i] = final
			return true
		}
	}
	return false
}

// Entries returns a snapshot of the transcript.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Last returns the most recent entry.
func (t *Transcript) Last() (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.entries) == 0 {
		return Entry{}, false
	}
	return t.entries[len(t.entries)-1], true
}
