// Package feedback implements the feedback collection client: a one-shot
// per-session prompt over pending feedback questions, submitted as a batch.
package feedback

import "sync"

// Gate is the session-scoped dismissal flag. Once the prompt has been
// shown and resolved (answered or skipped), it never reappears until the
// session is cleared.
type Gate struct {
	mu        sync.Mutex
	dismissed bool
}

// NewGate returns an open gate.
func NewGate() *Gate {
	return &Gate{}
}

// Dismiss marks the prompt as resolved for this session.
func (g *Gate) Dismiss() {
	g.mu.Lock()
	g.dismissed = true
	g.mu.Unlock()
}

// Dismissed reports whether the prompt has already been resolved.
func (g *Gate) Dismissed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dismissed
}

// Reset reopens the gate. Wired to the session store's Clear.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.dismissed = false
	g.mu.Unlock()
}
