package domain

// FeedbackValue is the answer slot of a feedback prompt.
type FeedbackValue string

const (
	// FeedbackUnanswered is the default answer slot value.
	FeedbackUnanswered FeedbackValue = ""
	// FeedbackYes records a positive answer.
	FeedbackYes FeedbackValue = "Yes"
	// FeedbackNo records a negative answer.
	FeedbackNo FeedbackValue = "No"
)

// FeedbackPrompt is a server-generated question about a past referral,
// delivered as part of a profile fetch.
type FeedbackPrompt struct {
	ReferralID      string `json:"referral_id"`
	Question        string `json:"question"`
	Agency          string `json:"agency,omitempty"`
	ServiceCategory string `json:"service_category,omitempty"`
}

// FeedbackAnswer pairs a prompt with its locally recorded answer.
type FeedbackAnswer struct {
	Prompt FeedbackPrompt
	Value  FeedbackValue
}

// Answered reports whether the answer slot has been filled in.
func (a FeedbackAnswer) Answered() bool {
	return a.Value != FeedbackUnanswered
}
