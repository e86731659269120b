package protocol

import "testing"

func TestNormalizePhonePrecedence(t *testing.T) {
	frame := []byte(`{"user":{"user_id":"u1","Phone":"111","phoneNumber":"222"}}`)
	resp, err := DecodeProfileResponse(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	patch := resp.NormalizePatch()
	if patch.Phone == nil || *patch.Phone != "111" {
		t.Errorf("expected Phone variant to win, got %v", patch.Phone)
	}
}

func TestNormalizePhoneSingleVariant(t *testing.T) {
	for _, tc := range []struct {
		key, want string
	}{
		{"Phone", "capital"},
		{"phoneNumber", "camel"},
		{"phone", "lower"},
		{"mobile", "alt"},
	} {
		frame := []byte(`{"user":{"user_id":"u1","` + tc.key + `":"` + tc.want + `"}}`)
		resp, err := DecodeProfileResponse(frame)
		if err != nil {
			t.Fatalf("decode %s: %v", tc.key, err)
		}
		patch := resp.NormalizePatch()
		if patch.Phone == nil || *patch.Phone != tc.want {
			t.Errorf("key %s: expected %q, got %v", tc.key, tc.want, patch.Phone)
		}
	}
}

func TestNormalizeZipcodeAndEmailVariants(t *testing.T) {
	frame := []byte(`{"user":{"user_id":"u1","Zipcode":"61701","zip":"99999","Email":"a@b.org"}}`)
	resp, err := DecodeProfileResponse(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	patch := resp.NormalizePatch()
	if patch.Zipcode == nil || *patch.Zipcode != "61701" {
		t.Errorf("zipcode precedence broken: %v", patch.Zipcode)
	}
	if patch.Email == nil || *patch.Email != "a@b.org" {
		t.Errorf("email not normalized: %v", patch.Email)
	}
}

func TestNormalizeAbsentFieldsStayNil(t *testing.T) {
	frame := []byte(`{"user":{"user_id":"u1"}}`)
	resp, err := DecodeProfileResponse(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	patch := resp.NormalizePatch()
	if patch.Phone != nil || patch.Zipcode != nil || patch.Email != nil || patch.Referrals != nil {
		t.Errorf("absent fields must stay nil: %+v", patch)
	}
	if patch.FeedbackPrompts == nil {
		t.Error("feedback prompts should always be set from the response")
	}
}

func TestNormalizeMissingUser(t *testing.T) {
	resp, err := DecodeProfileResponse([]byte(`{"feedback_questions":[]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	patch := resp.NormalizePatch()
	if patch.UserID != nil || patch.FeedbackPrompts != nil {
		t.Errorf("patch for missing user must be empty: %+v", patch)
	}
}

func TestNormalizeReferralsAndPrompts(t *testing.T) {
	frame := []byte(`{
		"user":{"user_id":"u1","referrals":[
			{"referral_id":"r1","agency":"Pantry","serviceCategory":"Food","zipcode":"61701","feedback":"Yes"},
			{"referral_id":"r2","agency":"Shelter","service_category":"Housing"}]},
		"feedback_questions":[
			{"referral_id":"r2","question":"Did it help?","agency":"Shelter","service_category":"Housing"}]}`)
	resp, err := DecodeProfileResponse(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	patch := resp.NormalizePatch()

	if patch.Referrals == nil || len(*patch.Referrals) != 2 {
		t.Fatalf("expected 2 referrals, got %v", patch.Referrals)
	}
	refs := *patch.Referrals
	if refs[0].ServiceCategory != "Food" || refs[1].ServiceCategory != "Housing" {
		t.Errorf("serviceCategory variants not normalized: %+v", refs)
	}
	if refs[0].Feedback != "Yes" {
		t.Errorf("feedback not carried: %+v", refs[0])
	}

	if patch.FeedbackPrompts == nil || len(*patch.FeedbackPrompts) != 1 {
		t.Fatalf("expected 1 prompt, got %v", patch.FeedbackPrompts)
	}
	prompt := (*patch.FeedbackPrompts)[0]
	if prompt.ReferralID != "r2" || prompt.Question != "Did it help?" {
		t.Errorf("prompt not mapped: %+v", prompt)
	}
}

func TestNormalizeProfileExtensionFields(t *testing.T) {
	frame := []byte(`{"user":{"user_id":"u1","firstName":"Ana","LastName":"Kos",
		"children_birth_dates":["2021-03-01"],"expected_due_date":"2026-01-15"}}`)
	resp, err := DecodeProfileResponse(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	patch := resp.NormalizePatch()
	if patch.FirstName == nil || *patch.FirstName != "Ana" {
		t.Errorf("first name: %v", patch.FirstName)
	}
	if patch.LastName == nil || *patch.LastName != "Kos" {
		t.Errorf("last name: %v", patch.LastName)
	}
	if patch.ChildrenBirthDates == nil || len(*patch.ChildrenBirthDates) != 1 {
		t.Errorf("children birth dates: %v", patch.ChildrenBirthDates)
	}
	if patch.ExpectedDueDate == nil || *patch.ExpectedDueDate != "2026-01-15" {
		t.Errorf("expected due date: %v", patch.ExpectedDueDate)
	}
}

func TestDecodeProfileResponseEnveloped(t *testing.T) {
	frame := []byte(`{"body":"{\"user\":{\"user_id\":\"u1\",\"Phone\":\"555\"}}"}`)
	resp, err := DecodeProfileResponse(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	patch := resp.NormalizePatch()
	if patch.Phone == nil || *patch.Phone != "555" {
		t.Errorf("enveloped profile not decoded: %v", patch.Phone)
	}
}
