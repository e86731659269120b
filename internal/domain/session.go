// Package domain contains core domain types for the referral assistant client.
package domain

// SessionRecord is the client-held representation of the authenticated
// user's profile and referral/feedback state. The subject identifier is
// stable once set; every other field is independently defaultable.
type SessionRecord struct {
	UserID             string           `json:"user_id"`
	Username           string           `json:"username"`
	FirstName          string           `json:"first_name,omitempty"`
	LastName           string           `json:"last_name,omitempty"`
	Language           string           `json:"language"`
	Zipcode            string           `json:"zipcode"`
	Phone              string           `json:"phone"`
	Email              string           `json:"email"`
	ChildrenBirthDates []string         `json:"children_birth_dates,omitempty"`
	ExpectedDueDate    string           `json:"expected_due_date,omitempty"`
	Referrals          []Referral       `json:"referrals"`
	FeedbackPrompts    []FeedbackPrompt `json:"feedback_prompts"`
}

// Referral is one past referral delivered as part of a profile fetch.
type Referral struct {
	ReferralID      string `json:"referral_id"`
	Agency          string `json:"agency"`
	Address         string `json:"address,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Zipcode         string `json:"zipcode,omitempty"`
	ServiceCategory string `json:"service_category,omitempty"`
	Timestamp       string `json:"timestamp,omitempty"`
	Feedback        string `json:"feedback,omitempty"`
}

// SessionPatch carries a partial update for Merge. Nil fields are left
// untouched; only non-nil fields overwrite.
type SessionPatch struct {
	UserID             *string
	Username           *string
	FirstName          *string
	LastName           *string
	Language           *string
	Zipcode            *string
	Phone              *string
	Email              *string
	ChildrenBirthDates *[]string
	ExpectedDueDate    *string
	Referrals          *[]Referral
	FeedbackPrompts    *[]FeedbackPrompt
}

// NewSessionRecord returns an empty record with defaulted list fields.
func NewSessionRecord() SessionRecord {
	return SessionRecord{
		Language:        "english",
		Referrals:       []Referral{},
		FeedbackPrompts: []FeedbackPrompt{},
	}
}

// Apply shallow-merges the patch into the record, last writer wins per field.
func (r *SessionRecord) Apply(p SessionPatch) {
	if p.UserID != nil {
		r.UserID = *p.UserID
	}
	if p.Username != nil {
		r.Username = *p.Username
	}
	if p.FirstName != nil {
		r.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		r.LastName = *p.LastName
	}
	if p.Language != nil {
		r.Language = *p.Language
	}
	if p.Zipcode != nil {
		r.Zipcode = *p.Zipcode
	}
	if p.Phone != nil {
		r.Phone = *p.Phone
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.ChildrenBirthDates != nil {
		r.ChildrenBirthDates = *p.ChildrenBirthDates
	}
	if p.ExpectedDueDate != nil {
		r.ExpectedDueDate = *p.ExpectedDueDate
	}
	if p.Referrals != nil {
		r.Referrals = *p.Referrals
	}
	if p.FeedbackPrompts != nil {
		r.FeedbackPrompts = *p.FeedbackPrompts
	}
}

// DisplayName returns the username if set, otherwise the subject identifier.
func (r *SessionRecord) DisplayName() string {
	if r.Username != "" {
		return r.Username
	}
	return r.UserID
}
