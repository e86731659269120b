// Package protocol defines the wire messages exchanged with the referral
// backend and the decoding rules the backend's inconsistencies require:
// double-encoded envelopes, case-insensitive status tags, two shapes of
// service entries, and per-field key variants in profile responses.
package protocol

import "encoding/json"

// Actions accepted by the backend.
const (
	ActionQuery        = "query"
	ActionGetUser      = "getUser"
	ActionSendFeedback = "sendFeedback"
)

// Status values carried by query responses. Staged statuses may arrive any
// number of times before exactly one terminal status.
const (
	StatusProcessing = "processing"
	StatusSearching  = "searching"
	StatusComplete   = "complete"
	StatusSuccess    = "success"
	StatusError      = "error"
	StatusFailed     = "failed"
)

// QueryRequest opens a chat query. Immutable once sent.
type QueryRequest struct {
	Action    string `json:"action"`
	UserID    string `json:"user_id"`
	Zipcode   string `json:"zipcode"`
	UserQuery string `json:"user_query"`
	Language  string `json:"language"`
}

// ProfileRequest asks for the user record plus pending feedback questions.
type ProfileRequest struct {
	Action   string `json:"action"`
	UserID   string `json:"user_id"`
	Language string `json:"language"`
}

// FeedbackRequest submits a batch of feedback answers. The capitalized
// profile keys match what the backend reads.
type FeedbackRequest struct {
	Action       string          `json:"action"`
	UserID       string          `json:"user_id"`
	Zipcode      string          `json:"Zipcode,omitempty"`
	Phone        string          `json:"Phone,omitempty"`
	Email        string          `json:"Email,omitempty"`
	Language     string          `json:"language"`
	FeedbackList []FeedbackEntry `json:"feedback_list"`
}

// FeedbackEntry is one answered prompt inside a feedback submission.
type FeedbackEntry struct {
	ReferralID string `json:"referral_id"`
	Feedback   string `json:"feedback"`
}

// QueryResponse is one inbound frame on the query channel.
type QueryResponse struct {
	Status       string        `json:"status"`
	Message      string        `json:"message"`
	ResponseData *ResponseData `json:"response_data"`
}

// ResponseData is the payload of a terminal query response.
type ResponseData struct {
	Message  string         `json:"message"`
	Services []ServiceEntry `json:"services"`
	Source   string         `json:"source"`
}

// ServiceEntry is one referral in a query result. The backend emits both a
// flat shape and a nested one where hours, phone, referral_process and
// additional_information live under a details object.
type ServiceEntry struct {
	Agency         string          `json:"agency"`
	Address        string          `json:"address"`
	City           string          `json:"city"`
	State          string          `json:"state"`
	Zipcode        string          `json:"zipcode"`
	Phone          string          `json:"phone"`
	Hours          string          `json:"hours"`
	Process        string          `json:"referral_process"`
	AdditionalInfo string          `json:"additional_information"`
	Details        *serviceDetails `json:"details,omitempty"`
}

type serviceDetails struct {
	Phone          string `json:"phone"`
	Hours          string `json:"hours"`
	Process        string `json:"referral_process"`
	AdditionalInfo string `json:"additional_information"`
}

// envelope is the double-encoded delivery wrapper: a JSON document whose
// body field is itself a JSON string.
type envelope struct {
	Body json.RawMessage `json:"body"`
}
