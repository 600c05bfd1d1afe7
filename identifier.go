package authclient

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// NormalizeIdentifier prepares a login identifier before it goes on the wire:
// emails are lowercased, phone numbers are normalized to E.164 using the
// given default region, and anything else passes through as a username.
func NormalizeIdentifier(raw, region string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	if err := validation.Validate(s, is.Email); err == nil && strings.Contains(s, "@") {
		return strings.ToLower(s)
	}

	if looksLikePhone(s) {
		if num, err := phonenumbers.Parse(s, region); err == nil && phonenumbers.IsValidNumber(num) {
			return phonenumbers.Format(num, phonenumbers.E164)
		}
	}

	return s
}

// looksLikePhone filters out usernames before paying for a full parse.
func looksLikePhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 7
}
