package protocol

import (
	"encoding/json"

	"github.com/careconnect/referral-client/internal/domain"
)

// ProfileResponse is the single frame answering a getUser request.
type ProfileResponse struct {
	User              *profileUser     `json:"user"`
	FeedbackQuestions []promptVariants `json:"feedback_questions"`
	Message           string           `json:"message"`
	Error             string           `json:"error"`
}

// profileUser tolerates the key variants the backend has been observed to
// emit for the same logical field. Exact tag matches win over Go's
// case-insensitive fallback, so each variant lands in its own field; the
// first non-empty value in declaration order is taken.
type profileUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Language string `json:"language"`

	ZipcodeCap string `json:"Zipcode"`
	Zipcode    string `json:"zipcode"`
	Zip        string `json:"zip"`
	PostalCode string `json:"postalCode"`

	PhoneCap    string `json:"Phone"`
	PhoneNumber string `json:"phoneNumber"`
	Phone       string `json:"phone"`
	PhoneForm   string `json:"phonenumber"`
	Mobile      string `json:"mobile"`

	EmailCap string `json:"Email"`
	Email    string `json:"email"`

	FirstNameCap string `json:"FirstName"`
	FirstName    string `json:"firstName"`
	LastNameCap  string `json:"LastName"`
	LastName     string `json:"lastName"`

	ChildrenBirthDates []string          `json:"children_birth_dates"`
	ExpectedDueDate    string            `json:"expected_due_date"`
	Referrals          []referralVariant `json:"referrals"`
}

type referralVariant struct {
	ReferralID         string `json:"referral_id"`
	Agency             string `json:"agency"`
	Address            string `json:"address"`
	City               string `json:"city"`
	State              string `json:"state"`
	Zipcode            string `json:"zipcode"`
	ServiceCategory    string `json:"serviceCategory"`
	ServiceCategoryAlt string `json:"service_category"`
	Timestamp          string `json:"timestamp"`
	Feedback           string `json:"feedback"`
}

type promptVariants struct {
	ReferralID      string `json:"referral_id"`
	Question        string `json:"question"`
	Agency          string `json:"agency"`
	ServiceCategory string `json:"service_category"`
}

// DecodeProfileResponse parses a getUser frame, unwrapping the envelope if
// present.
func DecodeProfileResponse(frame []byte) (*ProfileResponse, error) {
	raw := Unwrap(frame)
	var resp ProfileResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &resp, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// NormalizePatch reduces the response to a session patch with one value per
// logical field, applying the fixed variant precedence. Absent fields stay
// nil so a merge never clears them.
func (r *ProfileResponse) NormalizePatch() domain.SessionPatch {
	var patch domain.SessionPatch
	u := r.User
	if u == nil {
		return patch
	}

	setIf := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}

	setIf(&patch.UserID, u.UserID)
	setIf(&patch.Username, u.Username)
	setIf(&patch.Language, u.Language)
	setIf(&patch.Zipcode, firstNonEmpty(u.ZipcodeCap, u.Zipcode, u.Zip, u.PostalCode))
	setIf(&patch.Phone, firstNonEmpty(u.PhoneCap, u.PhoneNumber, u.Phone, u.PhoneForm, u.Mobile))
	setIf(&patch.Email, firstNonEmpty(u.EmailCap, u.Email))
	setIf(&patch.FirstName, firstNonEmpty(u.FirstNameCap, u.FirstName))
	setIf(&patch.LastName, firstNonEmpty(u.LastNameCap, u.LastName))
	setIf(&patch.ExpectedDueDate, u.ExpectedDueDate)
	if len(u.ChildrenBirthDates) > 0 {
		dates := append([]string(nil), u.ChildrenBirthDates...)
		patch.ChildrenBirthDates = &dates
	}

	if u.Referrals != nil {
		referrals := make([]domain.Referral, 0, len(u.Referrals))
		for _, ref := range u.Referrals {
			referrals = append(referrals, domain.Referral{
				ReferralID:      ref.ReferralID,
				Agency:          ref.Agency,
				Address:         ref.Address,
				City:            ref.City,
				State:           ref.State,
				Zipcode:         ref.Zipcode,
				ServiceCategory: firstNonEmpty(ref.ServiceCategory, ref.ServiceCategoryAlt),
				Timestamp:       ref.Timestamp,
				Feedback:        ref.Feedback,
			})
		}
		patch.Referrals = &referrals
	}

	prompts := make([]domain.FeedbackPrompt, 0, len(r.FeedbackQuestions))
	for _, q := range r.FeedbackQuestions {
		prompts = append(prompts, domain.FeedbackPrompt{
			ReferralID:      q.ReferralID,
			Question:        q.Question,
			Agency:          q.Agency,
			ServiceCategory: q.ServiceCategory,
		})
	}
	patch.FeedbackPrompts = &prompts

	return patch
}
