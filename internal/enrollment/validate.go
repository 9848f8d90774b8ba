package enrollment

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"enrollment-backend/internal/gateway"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ProfileInput is the raw profile form submission.
type ProfileInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// validateProfile checks the full profile field set and returns the cleaned
// profile. The phone number must parse and validate under international
// rules; region is the default country applied to numbers without a country
// code.
func validateProfile(in ProfileInput, region string) (gateway.Profile, *ValidationError) {
	fields := map[string]string{}

	p := gateway.Profile{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
	}

	if p.FirstName == "" {
		fields["firstName"] = "required"
	}
	if p.LastName == "" {
		fields["lastName"] = "required"
	}
	if p.Address == "" {
		fields["address"] = "required"
	}

	switch {
	case p.Email == "":
		fields["email"] = "required"
	case !emailPattern.MatchString(p.Email):
		fields["email"] = "invalid email address"
	}

	switch {
	case p.Phone == "":
		fields["phone"] = "required"
	default:
		num, err := phonenumbers.Parse(p.Phone, region)
		if err != nil || !phonenumbers.IsValidNumber(num) {
			fields["phone"] = "invalid phone number"
		} else {
			p.Phone = phonenumbers.Format(num, phonenumbers.E164)
		}
	}

	if len(fields) > 0 {
		return gateway.Profile{}, &ValidationError{Fields: fields}
	}
	return p, nil
}

// PasswordInput is the raw password form submission.
type PasswordInput struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

const minPasswordLength = 8

func validatePassword(in PasswordInput) *ValidationError {
	fields := map[string]string{}
	if len(in.Password) < minPasswordLength {
		fields["password"] = "must be at least 8 characters"
	}
	if in.Confirm != in.Password {
		fields["confirm"] = "does not match password"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
