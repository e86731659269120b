package domain

// Answer is the single renderable result of a completed query.
type Answer struct {
	Headline string
	Services []ServiceEntry
	Source   string
}

// ServiceEntry is one referral entry inside a query answer.
type ServiceEntry struct {
	Agency          string
	Address         string
	City            string
	State           string
	Zipcode         string
	Phone           string
	Hours           string
	ReferralProcess string
	AdditionalInfo  string
}

// Location joins the address parts the way they are rendered, skipping
// empty components.
func (s *ServiceEntry) Location() string {
	out := ""
	for _, part := range []string{s.Address, s.City, s.State} {
		if part == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += part
	}
	if s.Zipcode != "" {
		if out != "" {
			out += " "
		}
		out += s.Zipcode
	}
	return out
}
