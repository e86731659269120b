package domain

import "testing"

func ptr(s string) *string { return &s }

func TestApplySkipsNilFields(t *testing.T) {
	rec := NewSessionRecord()
	rec.UserID = "u1"
	rec.Zipcode = "61701"

	rec.Apply(SessionPatch{Phone: ptr("555-0100")})

	if rec.UserID != "u1" || rec.Zipcode != "61701" || rec.Phone != "555-0100" {
		t.Errorf("nil patch fields must not disturb the record: %+v", rec)
	}
}

func TestApplyOverwritesWithEmpty(t *testing.T) {
	rec := NewSessionRecord()
	rec.Zipcode = "61701"

	rec.Apply(SessionPatch{Zipcode: ptr("")})

	if rec.Zipcode != "" {
		t.Errorf("a present-but-empty field overwrites, got %q", rec.Zipcode)
	}
}

func TestApplyReplacesLists(t *testing.T) {
	rec := NewSessionRecord()
	rec.Referrals = []Referral{{ReferralID: "old"}}

	rec.Apply(SessionPatch{Referrals: &[]Referral{{ReferralID: "a"}, {ReferralID: "b"}}})

	if len(rec.Referrals) != 2 || rec.Referrals[0].ReferralID != "a" {
		t.Errorf("list patch must replace, not append: %+v", rec.Referrals)
	}
}

func TestNewSessionRecordDefaults(t *testing.T) {
	rec := NewSessionRecord()
	if rec.Language != "english" {
		t.Errorf("default language wrong: %q", rec.Language)
	}
	if rec.Referrals == nil || rec.FeedbackPrompts == nil {
		t.Error("list fields must start empty, not nil")
	}
}

func TestDisplayName(t *testing.T) {
	rec := SessionRecord{UserID: "u1"}
	if rec.DisplayName() != "u1" {
		t.Errorf("DisplayName without username = %q", rec.DisplayName())
	}
	rec.Username = "maria"
	if rec.DisplayName() != "maria" {
		t.Errorf("DisplayName with username = %q", rec.DisplayName())
	}
}

func TestServiceEntryLocation(t *testing.T) {
	cases := []struct {
		name string
		in   ServiceEntry
		want string
	}{
		{"full", ServiceEntry{Address: "402 W Market St", City: "Bloomington", State: "IL", Zipcode: "61701"}, "402 W Market St, Bloomington, IL 61701"},
		{"no zipcode", ServiceEntry{Address: "402 W Market St", City: "Bloomington"}, "402 W Market St, Bloomington"},
		{"zipcode only", ServiceEntry{Zipcode: "61701"}, "61701"},
		{"empty", ServiceEntry{}, ""},
	}
	for _, tc := range cases {
		if got := tc.in.Location(); got != tc.want {
			t.Errorf("%s: Location() = %q, want %q", tc.name, got, tc.want)
		}
	}
}
