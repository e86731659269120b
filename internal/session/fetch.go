package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/careconnect/referral-client/internal/domain"
	"github.com/careconnect/referral-client/internal/protocol"
)

// DefaultFetchTimeout is the bounded wait for a profile response. Past it
// the store proceeds with a locally constructed fallback record instead of
// blocking the caller.
const DefaultFetchTimeout = 3 * time.Second

// FetchWithFeedback opens a connection to the profile endpoint, requests
// the user record plus pending feedback prompts, normalizes the backend's
// field-name variants, and merges the result in. Every exit path leaves the
// store valid with the subject id populated: on timeout the fallback record
// is returned with no error; on transport or decode failure the fallback is
// merged and the error returned alongside it.
func (s *Store) FetchWithFeedback(ctx context.Context, subjectID, language string) (domain.SessionRecord, error) {
	language = normalizeLanguage(language)
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(fetchCtx, s.userURL, nil)
	if err != nil {
		return s.fallback(subjectID, language, "dial profile channel", err)
	}
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "profile fetch finished"); closeErr != nil {
			slog.Debug("close profile channel", "error", closeErr)
		}
	}()

	payload, err := json.Marshal(protocol.ProfileRequest{
		Action:   protocol.ActionGetUser,
		UserID:   subjectID,
		Language: language,
	})
	if err != nil {
		return s.fallback(subjectID, language, "marshal profile request", err)
	}
	if err := conn.Write(fetchCtx, websocket.MessageText, payload); err != nil {
		return s.fallback(subjectID, language, "send profile request", err)
	}

	_, frame, err := conn.Read(fetchCtx)
	if err != nil {
		return s.fallback(subjectID, language, "profile channel read", err)
	}

	resp, err := protocol.DecodeProfileResponse(frame)
	if err != nil {
		return s.fallback(subjectID, language, "decode profile response", err)
	}
	if resp.User == nil {
		reason := resp.Error
		if reason == "" {
			reason = "response missing user"
		}
		return s.fallback(subjectID, language, "profile response", errors.New(reason))
	}

	patch := resp.NormalizePatch()
	if patch.UserID == nil {
		patch.UserID = &subjectID
	}
	if patch.Language == nil {
		patch.Language = &language
	}
	s.Merge(patch)

	rec := s.Get()
	slog.Info("profile fetched", "user_id", rec.UserID,
		"referrals", len(rec.Referrals), "feedback_prompts", len(rec.FeedbackPrompts))
	return rec, nil
}

// fallback merges a minimal locally constructed record. The bounded-wait
// expiry resolves cleanly; other failures surface their error.
func (s *Store) fallback(subjectID, language, op string, err error) (domain.SessionRecord, error) {
	s.Merge(domain.SessionPatch{UserID: &subjectID, Language: &language})

	if errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("profile fetch timed out, using fallback record", "user_id", subjectID)
		return s.Get(), nil
	}
	slog.Warn("profile fetch failed, using fallback record", "user_id", subjectID, "op", op, "error", err)
	return s.Get(), fmt.Errorf("%s: %w", op, err)
}

func normalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return "english"
	}
	return language
}
