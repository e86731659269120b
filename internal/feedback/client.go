package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/careconnect/referral-client/internal/domain"
	"github.com/careconnect/referral-client/internal/protocol"
)

// MaxPrompts caps how many feedback questions one prompt shows.
const MaxPrompts = 5

// DefaultSubmitTimeout bounds the submission round trip, acknowledgement
// included.
const DefaultSubmitTimeout = 5 * time.Second

// Client collects referral feedback over its own connection. It shares the
// query protocol's connection lifecycle but adds the one-per-session
// interaction gate.
type Client struct {
	url     string
	gate    *Gate
	timeout time.Duration
}

// NewClient creates a feedback client against the profile/feedback
// endpoint. A non-positive timeout selects DefaultSubmitTimeout.
func NewClient(url string, gate *Gate, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &Client{url: url, gate: gate, timeout: timeout}
}

// Gate returns the session-scoped dismissal gate.
func (c *Client) Gate() *Gate {
	return c.gate
}

// PromptStore is the slice of the session store Submit works against: the
// current record for the request fields, and a merge to drop prompts the
// backend has acknowledged.
type PromptStore interface {
	Get() domain.SessionRecord
	Merge(patch domain.SessionPatch)
}

// PromptIfPending returns initialized answer slots for the record's pending
// prompts, or nil when the gate is set or nothing is pending. Showing the
// prompt does not set the gate; only Submit or Skip resolve it.
func (c *Client) PromptIfPending(rec domain.SessionRecord) []domain.FeedbackAnswer {
	if c.gate.Dismissed() || len(rec.FeedbackPrompts) == 0 {
		return nil
	}
	prompts := rec.FeedbackPrompts
	if len(prompts) > MaxPrompts {
		prompts = prompts[:MaxPrompts]
	}
	answers := make([]domain.FeedbackAnswer, 0, len(prompts))
	for _, prompt := range prompts {
		answers = append(answers, domain.FeedbackAnswer{Prompt: prompt, Value: domain.FeedbackUnanswered})
	}
	return answers
}

// Skip dismisses the prompt without sending anything.
func (c *Client) Skip() {
	c.gate.Dismiss()
	slog.Info("feedback prompt skipped")
}

// Submit sends the answered slots in one message and waits briefly for an
// acknowledgement. The gate is dismissed before any network activity: even
// a failed send never re-prompts this session, trading potential lost
// feedback for guaranteed non-intrusiveness. Once the backend acknowledges,
// the submitted prompts are discarded from the store's pending list so a
// later session cannot ask them again; an unacknowledged submission keeps
// them and returns the error.
func (c *Client) Submit(ctx context.Context, store PromptStore, answers []domain.FeedbackAnswer) error {
	c.gate.Dismiss()

	entries := make([]protocol.FeedbackEntry, 0, len(answers))
	for _, ans := range answers {
		if !ans.Answered() {
			continue
		}
		entries = append(entries, protocol.FeedbackEntry{
			ReferralID: ans.Prompt.ReferralID,
			Feedback:   string(ans.Value),
		})
	}
	if len(entries) == 0 {
		slog.Info("no answered feedback to submit")
		return nil
	}

	rec := store.Get()

	submitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, _, err := websocket.Dial(submitCtx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial feedback channel: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "feedback submitted"); closeErr != nil {
			slog.Debug("close feedback channel", "error", closeErr)
		}
	}()

	payload, err := json.Marshal(protocol.FeedbackRequest{
		Action:       protocol.ActionSendFeedback,
		UserID:       rec.UserID,
		Zipcode:      rec.Zipcode,
		Phone:        rec.Phone,
		Email:        rec.Email,
		Language:     rec.Language,
		FeedbackList: entries,
	})
	if err != nil {
		return fmt.Errorf("marshal feedback request: %w", err)
	}
	if err := conn.Write(submitCtx, websocket.MessageText, payload); err != nil {
		return fmt.Errorf("send feedback: %w", err)
	}

	// The acknowledgement content does not matter, but without it the
	// prompts stay pending so an unconfirmed batch can be asked again.
	if _, _, err := conn.Read(submitCtx); err != nil {
		return fmt.Errorf("feedback acknowledgement: %w", err)
	}

	c.discardSubmitted(store, entries)
	slog.Info("feedback submitted", "user_id", rec.UserID, "answers", len(entries))
	return nil
}

// discardSubmitted removes the acknowledged prompts from the pending list.
func (c *Client) discardSubmitted(store PromptStore, entries []protocol.FeedbackEntry) {
	submitted := make(map[string]bool, len(entries))
	for _, entry := range entries {
		submitted[entry.ReferralID] = true
	}
	remaining := []domain.FeedbackPrompt{}
	for _, prompt := range store.Get().FeedbackPrompts {
		if !submitted[prompt.ReferralID] {
			remaining = append(remaining, prompt)
		}
	}
	store.Merge(domain.SessionPatch{FeedbackPrompts: &remaining})
}
