package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/careconnect/referral-client/internal/domain"
	"github.com/careconnect/referral-client/internal/locale"
	"github.com/careconnect/referral-client/internal/protocol"
)

// ErrQueryInFlight is returned when SubmitQuery is called while a previous
// query is still outstanding. At most one query runs per client.
var ErrQueryInFlight = errors.New("a query is already in flight")

// ServerError is a terminal error/failed status reported by the backend.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server reported failure: %s", e.Message)
}

// Results attributed to this source get the localized fallback notice
// prepended, marking them as coming from outside the referral database.
const fallbackSourceTag = "perplexity"

func isFallbackSource(source string) bool {
	return strings.Contains(strings.ToLower(source), fallbackSourceTag)
}

// DefaultQueryTimeout bounds a whole query, connect included. A server that
// goes silent or closes without a terminal status ends in the network-error
// state no later than this.
const DefaultQueryTimeout = 60 * time.Second

// QueryContext carries the session fields sent with every query.
type QueryContext struct {
	UserID   string
	Zipcode  string
	Language string
}

// Client opens one connection per query against the chat endpoint.
type Client struct {
	url        string
	transcript *Transcript
	timeout    time.Duration
	inFlight   atomic.Bool
}

// NewClient creates a query channel client writing into transcript.
// A non-positive timeout selects DefaultQueryTimeout.
func NewClient(url string, transcript *Transcript, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Client{url: url, transcript: transcript, timeout: timeout}
}

// Transcript returns the transcript this client writes into.
func (c *Client) Transcript() *Transcript {
	return c.transcript
}

// Processing reports whether a query is currently outstanding.
func (c *Client) Processing() bool {
	return c.inFlight.Load()
}

// Per-request lifecycle. Each query moves through these states exactly
// once, and only the transition into stateDone resolves the placeholder.
type requestState int

const (
	stateConnecting requestState = iota
	stateAwaitingTerminal
	stateDone
)

type request struct {
	id         string
	state      requestState
	transcript *Transcript
	pendingID  string
	msgs       locale.Messages
}

func (r *request) transition(next requestState) {
	if r.state == stateDone || next <= r.state {
		return
	}
	r.state = next
}

func (r *request) progress(text string) {
	if r.state != stateAwaitingTerminal {
		return
	}
	r.transcript.UpdatePending(r.pendingID, text)
}

// finish is the single terminal transition: the first call replaces the
// placeholder, every later call is a no-op.
func (r *request) finish(final Entry) {
	if r.state == stateDone {
		return
	}
	r.state = stateDone
	if !r.transcript.Resolve(r.pendingID, final) {
		slog.Warn("placeholder already resolved", "request_id", r.id)
	}
}

func (r *request) complete(ans *domain.Answer) {
	r.finish(Entry{Sender: SenderBot, Text: ans.Headline, Answer: ans})
}

func (r *request) fail(message string) {
	r.finish(Entry{Sender: SenderBot, Text: message})
}

// SubmitQuery sends one query and blocks until its terminal update. The
// transcript gets the user entry plus exactly one placeholder, which is
// replaced exactly once regardless of how many staged updates arrive.
// Transport failures, malformed frames, and a silent or uncleanly closed
// server all resolve the placeholder with a localized error before the
// error is returned.
func (c *Client) SubmitQuery(ctx context.Context, text string, qc QueryContext) (*domain.Answer, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrQueryInFlight
	}
	defer c.inFlight.Store(false)

	msgs := locale.Lookup(qc.Language)
	req := &request{
		id:         uuid.NewString(),
		transcript: c.transcript,
		msgs:       msgs,
	}
	c.transcript.AppendUser(text)
	req.pendingID = c.transcript.AppendPending(msgs.Thinking)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	slog.Debug("opening query channel", "request_id", req.id, "user_id", qc.UserID)
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		req.fail(msgs.NetworkError)
		return nil, fmt.Errorf("dial query channel: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "query finished"); closeErr != nil {
			slog.Debug("close query channel", "request_id", req.id, "error", closeErr)
		}
	}()

	payload, err := json.Marshal(protocol.QueryRequest{
		Action:    protocol.ActionQuery,
		UserID:    qc.UserID,
		Zipcode:   qc.Zipcode,
		UserQuery: text,
		Language:  requestLanguage(qc.Language),
	})
	if err != nil {
		req.fail(msgs.ErrorProcessing)
		return nil, fmt.Errorf("marshal query request: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		req.fail(msgs.NetworkError)
		return nil, fmt.Errorf("send query request: %w", err)
	}
	req.transition(stateAwaitingTerminal)

	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			// Covers transport errors, unclean closes, and the watchdog
			// deadline: no terminal status arrived, so force the
			// network-error terminal state.
			req.fail(msgs.NetworkError)
			return nil, fmt.Errorf("query channel read: %w", err)
		}

		resp, derr := protocol.DecodeQueryResponse(frame)
		if derr != nil {
			slog.Warn("malformed query frame", "request_id", req.id, "error", derr)
			req.fail(msgs.ErrorProcessing)
			return nil, derr
		}

		switch {
		case resp.Staged():
			progress := resp.ProgressText()
			if progress == "" {
				progress = msgs.StagedDefault(resp.NormalizedStatus())
			}
			req.progress(progress)

		case resp.Succeeded():
			ans := resp.Answer()
			if isFallbackSource(ans.Source) {
				ans.Headline = msgs.FallbackNotice + ans.Headline
			}
			if ans.Headline == "" && len(ans.Services) == 0 {
				ans.Headline = msgs.NoUnderstanding
			}
			req.complete(ans)
			slog.Info("query complete", "request_id", req.id, "services", len(ans.Services))
			return ans, nil

		case resp.Terminal():
			message := resp.ProgressText()
			if message == "" {
				message = msgs.ErrorProcessing
			}
			req.fail(message)
			return nil, &ServerError{Message: message}

		default:
			// Unrecognized status tag: wait for further messages so
			// forward-compatible server additions do not break the client.
			slog.Debug("ignoring unknown status", "request_id", req.id, "status", resp.Status)
		}
	}
}

func requestLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return "english"
	}
	return language
}
