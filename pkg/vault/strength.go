package vault

import (
	"strings"
	"unicode"
)

// StrengthThreshold is the minimum score for a password to be considered
// valid by ValidatePasswordStrength.
const StrengthThreshold = 60

var commonSubstrings = []string{
	"password", "123456", "qwerty", "abc123", "letmein",
	"welcome", "admin", "iloveyou", "monkey", "dragon",
}

// StrengthReport is the outcome of ValidatePasswordStrength.
type StrengthReport struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
	Score   int      `json:"score"`
}

// ValidatePasswordStrength scores a password on length and character-class
// variety and penalizes repeated runs and well-known substrings. A password
// is valid when it raises no errors and meets the score threshold.
func ValidatePasswordStrength(password string) StrengthReport {
	errs := make([]string, 0)
	score := 0

	if len(password) < minPasswordLen {
		errs = append(errs, "password must be at least 8 characters long")
	}

	score += 4 * len(password)
	if score > 40 {
		score = 40
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	for _, ok := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if ok {
			score += 15
		}
	}
	if !hasLower || !hasUpper {
		errs = append(errs, "password must mix upper and lower case letters")
	}
	if !hasDigit && !hasSymbol {
		errs = append(errs, "password must contain a digit or a symbol")
	}

	// runs of 3+ identical characters
	var prev rune
	run := 0
	for _, r := range password {
		if r == prev {
			run++
			if run >= 3 {
				score -= 10
				run = 0
			}
		} else {
			prev, run = r, 1
		}
	}

	lowered := strings.ToLower(password)
	for _, s := range commonSubstrings {
		if strings.Contains(lowered, s) {
			score -= 20
			errs = append(errs, "password contains a too common sequence")
			break
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return StrengthReport{
		IsValid: len(errs) == 0 && score >= StrengthThreshold,
		Errors:  errs,
		Score:   score,
	}
}
