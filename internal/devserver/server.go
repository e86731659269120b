// Package devserver implements the referral backend's WebSocket contract
// for local development and integration tests: one request per connection,
// action dispatch, staged updates before the terminal frame.
package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/careconnect/referral-client/internal/middleware"
)

// Handler serves the stub protocol.
type Handler struct {
	store *FixtureStore

	// Envelope wraps every outbound frame as {"body":"<json string>"},
	// reproducing the double-encoded delivery some deployments exhibit.
	Envelope bool

	// StageDelay spaces staged updates out so progress is visible when a
	// human drives the stub. Zero for tests.
	StageDelay time.Duration
}

// NewHandler creates a stub handler over the given fixtures.
func NewHandler(store *FixtureStore) *Handler {
	return &Handler{store: store}
}

// Router returns the HTTP surface: a health heartbeat plus the WebSocket
// endpoints for the chat and user channels.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Get("/ws/chat", h.ServeWS)
	r.Get("/ws/user", h.ServeWS)
	return r
}

// inboundRequest is the union of all request shapes; Action selects the
// route.
type inboundRequest struct {
	Action    string `json:"action"`
	UserID    string `json:"user_id"`
	Zipcode   string `json:"zipcode"`
	UserQuery string `json:"user_query"`
	Language  string `json:"language"`

	FeedbackList []struct {
		ReferralID string `json:"referral_id"`
		Feedback   string `json:"feedback"`
	} `json:"feedback_list"`
}

// ServeWS accepts one connection, handles one request, and closes.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "request served"); closeErr != nil {
			slog.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	_, frame, err := ws.Read(ctx)
	if err != nil {
		slog.Debug("WebSocket closed before request", "error", err)
		return
	}

	var req inboundRequest
	if err := json.Unmarshal(frame, &req); err != nil {
		h.writeJSON(ctx, ws, map[string]string{"error": "malformed request"})
		return
	}

	slog.Info("stub request", "action", req.Action, "user_id", req.UserID)

	switch req.Action {
	case "query":
		h.handleQuery(ctx, ws, req)
	case "getUser":
		h.handleGetUser(ctx, ws, req)
	case "sendFeedback":
		h.handleSendFeedback(ctx, ws, req)
	default:
		h.writeJSON(ctx, ws, map[string]string{"error": fmt.Sprintf("Unknown route: %s", req.Action)})
	}
}

func (h *Handler) handleQuery(ctx context.Context, ws *websocket.Conn, req inboundRequest) {
	h.writeJSON(ctx, ws, map[string]any{
		"status":  "processing",
		"message": "Processing your request...",
	})
	h.pause()
	h.writeJSON(ctx, ws, map[string]any{
		"status":  "searching",
		"message": fmt.Sprintf("Searching for services near %s...", req.Zipcode),
	})
	h.pause()

	services := h.store.MatchServices(req.UserQuery, req.Zipcode)
	if len(services) == 0 {
		h.writeJSON(ctx, ws, map[string]any{
			"status":  "error",
			"message": fmt.Sprintf("No services found for %q", req.UserQuery),
		})
		return
	}

	h.store.RecordReferrals(req.UserID, services)
	h.writeJSON(ctx, ws, map[string]any{
		"status": "success",
		"response_data": map[string]any{
			"message":  fmt.Sprintf("Found %d services that may help.", len(services)),
			"services": services,
			"source":   "database",
		},
	})
}

func (h *Handler) handleGetUser(ctx context.Context, ws *websocket.Conn, req inboundRequest) {
	user, prompts := h.store.UserWithPrompts(req.UserID)
	h.writeJSON(ctx, ws, map[string]any{
		"user":               user,
		"feedback_questions": prompts,
		"message":            "User data retrieved successfully.",
		"language":           req.Language,
	})
}

func (h *Handler) handleSendFeedback(ctx context.Context, ws *websocket.Conn, req inboundRequest) {
	stored := 0
	for _, entry := range req.FeedbackList {
		if h.store.StoreFeedback(req.UserID, entry.ReferralID, entry.Feedback) {
			stored++
		}
	}
	h.writeJSON(ctx, ws, map[string]any{
		"message":   "Feedback stored successfully",
		"processed": stored,
	})
}

func (h *Handler) pause() {
	if h.StageDelay > 0 {
		time.Sleep(h.StageDelay)
	}
}

func (h *Handler) writeJSON(ctx context.Context, ws *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("stub marshal failed", "error", err)
		return
	}
	if h.Envelope {
		wrapped, err := json.Marshal(map[string]string{"body": string(data)})
		if err != nil {
			slog.Error("stub envelope marshal failed", "error", err)
			return
		}
		data = wrapped
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("stub write failed", "error", err)
	}
}

// queryTerms lowercases and splits a free-text query for fixture matching.
func queryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}
