package devserver

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fixtureService is a referral database row, in the flat wire shape.
type fixtureService struct {
	Agency         string `json:"agency"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	Zipcode        string `json:"zipcode"`
	Phone          string `json:"phone"`
	Hours          string `json:"hours"`
	Process        string `json:"referral_process"`
	AdditionalInfo string `json:"additional_information"`

	category string
}

type storedReferral struct {
	ReferralID      string `json:"referral_id"`
	Agency          string `json:"agency"`
	Address         string `json:"address"`
	Zipcode         string `json:"zipcode"`
	ServiceCategory string `json:"serviceCategory"`
	State           string `json:"state"`
	Timestamp       string `json:"timestamp"`
	Feedback        string `json:"feedback,omitempty"`
}

// FixtureStore holds the stub's referral table and per-user referral
// history, mimicking the backend's user_data records.
type FixtureStore struct {
	mu        sync.Mutex
	services  []fixtureService
	referrals map[string][]storedReferral
}

// NewFixtureStore seeds the default referral table.
func NewFixtureStore() *FixtureStore {
	return &FixtureStore{
		services: []fixtureService{
			{
				Agency:         "Westside Food Pantry",
				Address:        "402 W Market St",
				City:           "Bloomington",
				State:          "IL",
				Zipcode:        "61701",
				Phone:          "(309) 555-0142",
				Hours:          "Mon-Fri 9am-4pm",
				Process:        "Walk in with a photo ID and proof of address.",
				AdditionalInfo: "Serves households within McLean County.",
				category:       "Food Assistance",
			},
			{
				Agency:         "Prairie Housing Coalition",
				Address:        "118 E Jefferson St",
				City:           "Bloomington",
				State:          "IL",
				Zipcode:        "61701",
				Phone:          "(309) 555-0178",
				Hours:          "Mon-Thu 8am-5pm",
				Process:        "Call to schedule an intake appointment.",
				AdditionalInfo: "Emergency shelter placement available.",
				category:       "Housing",
			},
			{
				Agency:         "Family Childcare Network",
				Address:        "77 Veterans Pkwy",
				City:           "Normal",
				State:          "IL",
				Zipcode:        "61761",
				Phone:          "(309) 555-0119",
				Hours:          "Mon-Fri 8am-6pm",
				Process:        "Apply online or in person.",
				AdditionalInfo: "Sliding-scale fees based on income.",
				category:       "Childcare",
			},
		},
		referrals: make(map[string][]storedReferral),
	}
}

// MatchServices returns fixtures whose category or agency matches a term of
// the query, preferring the caller's zipcode. An unmatched query returns
// nothing, which the handler turns into a terminal error.
func (s *FixtureStore) MatchServices(query, zipcode string) []fixtureService {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []fixtureService
	for _, svc := range s.services {
		haystack := strings.ToLower(svc.category + " " + svc.Agency)
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				matched = append(matched, svc)
				break
			}
		}
	}
	if len(matched) == 0 {
		return nil
	}

	// Same-zipcode services first.
	var local, remote []fixtureService
	for _, svc := range matched {
		if svc.Zipcode == zipcode {
			local = append(local, svc)
		} else {
			remote = append(remote, svc)
		}
	}
	return append(local, remote...)
}

// RecordReferrals appends served results to the user's referral history so
// a later getUser generates feedback questions for them.
func (s *FixtureStore) RecordReferrals(userID string, services []fixtureService) {
	if userID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	for _, svc := range services {
		s.referrals[userID] = append(s.referrals[userID], storedReferral{
			ReferralID:      uuid.NewString(),
			Agency:          svc.Agency,
			Address:         svc.Address,
			Zipcode:         svc.Zipcode,
			ServiceCategory: svc.category,
			State:           svc.State,
			Timestamp:       now,
		})
	}
}

// StoreFeedback records an answer against a referral, reporting whether the
// referral exists and was still unanswered.
func (s *FixtureStore) StoreFeedback(userID, referralID, feedback string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := s.referrals[userID]
	for i := range refs {
		if refs[i].ReferralID == referralID && refs[i].Feedback == "" {
			refs[i].Feedback = feedback
			return true
		}
	}
	return false
}

// UserWithPrompts builds the getUser payload: the user object (with the
// backend's capitalized profile keys) and feedback questions for up to five
// referrals still waiting on feedback.
func (s *FixtureStore) UserWithPrompts(userID string) (map[string]any, []map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs := s.referrals[userID]
	user := map[string]any{
		"user_id":   userID,
		"language":  "english",
		"Zipcode":   "61701",
		"Phone":     "(309) 555-0100",
		"Email":     userID + "@example.org",
		"referrals": refs,
	}

	prompts := []map[string]string{}
	for _, ref := range refs {
		if ref.Feedback != "" {
			continue
		}
		prompts = append(prompts, map[string]string{
			"referral_id":      ref.ReferralID,
			"question":         "Hi " + userID + ", Did the referral " + ref.Agency + ", " + ref.Address + ", " + ref.Zipcode + " help you in " + ref.ServiceCategory + "? Please reply with yes or no.",
			"agency":           ref.Agency,
			"service_category": ref.ServiceCategory,
		})
		if len(prompts) == 5 {
			break
		}
	}
	return user, prompts
}
