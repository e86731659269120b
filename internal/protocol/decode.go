package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/careconnect/referral-client/internal/domain"
)

// DecodeError marks a frame that could not be interpreted. Each inbound
// message is one complete JSON document; a failed parse is terminal for the
// operation that received it.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode inbound frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Unwrap peels the string-wrapped body envelope off a frame, at most once.
// Frames without an envelope come back unchanged.
func Unwrap(frame []byte) []byte {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil || len(env.Body) == 0 {
		return frame
	}
	var body string
	if err := json.Unmarshal(env.Body, &body); err != nil {
		// body was a JSON object, not a string: already unwrapped.
		return frame
	}
	return []byte(body)
}

// DecodeQueryResponse parses one inbound query-channel frame, unwrapping
// the envelope if present.
func DecodeQueryResponse(frame []byte) (*QueryResponse, error) {
	raw := Unwrap(frame)
	var resp QueryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &resp, nil
}

// NormalizedStatus lowercases the status tag for dispatch.
func (r *QueryResponse) NormalizedStatus() string {
	return strings.ToLower(strings.TrimSpace(r.Status))
}

// Staged reports whether the frame is a non-terminal progress update.
func (r *QueryResponse) Staged() bool {
	switch r.NormalizedStatus() {
	case StatusProcessing, StatusSearching:
		return true
	}
	return false
}

// Terminal reports whether the frame ends the operation.
func (r *QueryResponse) Terminal() bool {
	switch r.NormalizedStatus() {
	case StatusComplete, StatusSuccess, StatusError, StatusFailed:
		return true
	}
	return false
}

// Succeeded reports whether a terminal frame carries a result payload.
func (r *QueryResponse) Succeeded() bool {
	switch r.NormalizedStatus() {
	case StatusComplete, StatusSuccess:
		return true
	}
	return false
}

// ProgressText returns the server-supplied progress or headline message,
// preferring the top-level field over the payload one.
func (r *QueryResponse) ProgressText() string {
	if r.Message != "" {
		return r.Message
	}
	if r.ResponseData != nil {
		return r.ResponseData.Message
	}
	return ""
}

// Answer converts a successful terminal frame into the renderable result.
// Flat service fields win over the nested details shape when both are set.
func (r *QueryResponse) Answer() *domain.Answer {
	ans := &domain.Answer{}
	if r.ResponseData == nil {
		return ans
	}
	ans.Headline = r.ResponseData.Message
	ans.Source = r.ResponseData.Source
	for _, svc := range r.ResponseData.Services {
		entry := domain.ServiceEntry{
			Agency:          svc.Agency,
			Address:         svc.Address,
			City:            svc.City,
			State:           svc.State,
			Zipcode:         svc.Zipcode,
			Phone:           svc.Phone,
			Hours:           svc.Hours,
			ReferralProcess: svc.Process,
			AdditionalInfo:  svc.AdditionalInfo,
		}
		if svc.Details != nil {
			if entry.Phone == "" {
				entry.Phone = svc.Details.Phone
			}
			if entry.Hours == "" {
				entry.Hours = svc.Details.Hours
			}
			if entry.ReferralProcess == "" {
				entry.ReferralProcess = svc.Details.Process
			}
			if entry.AdditionalInfo == "" {
				entry.AdditionalInfo = svc.Details.AdditionalInfo
			}
		}
		ans.Services = append(ans.Services, entry)
	}
	return ans
}
