package enrollment

import (
	"testing"
)

func validProfileInput() ProfileInput {
	return ProfileInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+1 202 555 0123",
		Address:   "12 Analytical Way",
	}
}

func TestValidateProfileAccepts(t *testing.T) {
	p, verr := validateProfile(validProfileInput(), "US")
	if verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
	if p.Phone != "+12025550123" {
		t.Errorf("phone not normalized to E.164: %q", p.Phone)
	}
}

func TestValidateProfileNationalNumberUsesRegion(t *testing.T) {
	in := validProfileInput()
	in.Phone = "(202) 555-0123"
	if _, verr := validateProfile(in, "US"); verr != nil {
		t.Fatalf("national format rejected: %v", verr)
	}
}

func TestValidateProfileRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ProfileInput)
		field  string
	}{
		{"missing first name", func(p *ProfileInput) { p.FirstName = "  " }, "firstName"},
		{"missing last name", func(p *ProfileInput) { p.LastName = "" }, "lastName"},
		{"missing address", func(p *ProfileInput) { p.Address = "" }, "address"},
		{"missing email", func(p *ProfileInput) { p.Email = "" }, "email"},
		{"malformed email", func(p *ProfileInput) { p.Email = "not-an-email" }, "email"},
		{"missing phone", func(p *ProfileInput) { p.Phone = "" }, "phone"},
		{"short phone", func(p *ProfileInput) { p.Phone = "12345" }, "phone"},
		{"alphabetic phone", func(p *ProfileInput) { p.Phone = "call me" }, "phone"},
	}

	for _, tc := range cases {
		in := validProfileInput()
		tc.mutate(&in)
		_, verr := validateProfile(in, "US")
		if verr == nil {
			t.Errorf("%s: accepted", tc.name)
			continue
		}
		if _, ok := verr.Fields[tc.field]; !ok {
			t.Errorf("%s: missing field %q in %v", tc.name, tc.field, verr.Fields)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if verr := validatePassword(PasswordInput{Password: "longenough", Confirm: "longenough"}); verr != nil {
		t.Fatalf("valid password rejected: %v", verr)
	}

	if verr := validatePassword(PasswordInput{Password: "short", Confirm: "short"}); verr == nil {
		t.Error("short password accepted")
	} else if _, ok := verr.Fields["password"]; !ok {
		t.Errorf("missing password field: %v", verr.Fields)
	}

	if verr := validatePassword(PasswordInput{Password: "longenough", Confirm: "different"}); verr == nil {
		t.Error("mismatched confirmation accepted")
	} else if _, ok := verr.Fields["confirm"]; !ok {
		t.Errorf("missing confirm field: %v", verr.Fields)
	}
}
