package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxTransactionAmount is the per-transaction ceiling in currency units.
var MaxTransactionAmount = decimal.NewFromInt(50000)

var (
	emailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	saPhoneRegex = regexp.MustCompile(`^(\+27|0)[6-8][0-9]{8}$`)
	idRegex      = regexp.MustCompile(`^\d{13}$`)

	jsProtoRegex = regexp.MustCompile(`(?i)javascript:`)
	eventAttrRegex = regexp.MustCompile(`(?i)on\w+=`)
)

// ValidateEmail performs a structural check: one "@" with non-empty local and
// domain parts, and a dot in the domain. No DNS or mailbox verification.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePhoneNumber validates a South African cell number. Whitespace is
// stripped first; the number must start with +27 or 0, followed by a mobile
// range digit (6-8) and exactly eight more digits.
func ValidatePhoneNumber(phoneNumber string) bool {
	clean := strings.Join(strings.Fields(phoneNumber), "")
	return saPhoneRegex.MatchString(clean)
}

// ValidateIDNumber validates a 13-digit South African ID number using its
// Luhn-style check digit. Digits at even positions (0-indexed) are summed
// directly; digits at odd positions are doubled, subtracting 9 when the
// doubled value exceeds 9. The 13th digit must equal (10 - sum mod 10) mod 10.
func ValidateIDNumber(idNumber string) bool {
	if !idRegex.MatchString(idNumber) {
		return false
	}

	sum := 0
	for i := 0; i < 12; i++ {
		d := int(idNumber[i] - '0')
		if i%2 == 0 {
			sum += d
		} else {
			doubled := d * 2
			if doubled > 9 {
				doubled -= 9
			}
			sum += doubled
		}
	}

	checkDigit := (10 - (sum % 10)) % 10
	return checkDigit == int(idNumber[12]-'0')
}

// PasswordStrength reports which strength rules a password satisfies.
type PasswordStrength struct {
	Score        int                  `json:"score"`
	IsValid      bool                 `json:"is_valid"`
	Strength     string               `json:"strength"`
	Requirements PasswordRequirements `json:"requirements"`
}

// PasswordRequirements is the per-rule breakdown of a strength check.
type PasswordRequirements struct {
	MinLength      bool `json:"min_length"`
	HasUpperCase   bool `json:"has_upper_case"`
	HasLowerCase   bool `json:"has_lower_case"`
	HasNumber      bool `json:"has_number"`
	HasSpecialChar bool `json:"has_special_char"`
}

const passwordMinLength = 8

const specialChars = `!@#$%^&*(),.?":{}|<>`

// CheckPasswordStrength scores a password against five independent rules:
// minimum length, uppercase, lowercase, digit, and a symbol from a fixed
// punctuation set. Score is the count of satisfied rules; a password is valid
// with a score of 4 or more.
func CheckPasswordStrength(password string) PasswordStrength {
	reqs := PasswordRequirements{
		MinLength: len(password) >= passwordMinLength,
	}
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			reqs.HasUpperCase = true
		case unicode.IsLower(r):
			reqs.HasLowerCase = true
		case unicode.IsDigit(r):
			reqs.HasNumber = true
		}
		if strings.ContainsRune(specialChars, r) {
			reqs.HasSpecialChar = true
		}
	}

	score := 0
	for _, ok := range []bool{reqs.MinLength, reqs.HasUpperCase, reqs.HasLowerCase, reqs.HasNumber, reqs.HasSpecialChar} {
		if ok {
			score++
		}
	}

	strength := "strong"
	switch {
	case score <= 2:
		strength = "weak"
	case score == 3:
		strength = "medium"
	}

	return PasswordStrength{
		Score:        score,
		IsValid:      score >= 4,
		Strength:     strength,
		Requirements: reqs,
	}
}

// SanitizeInput strips angle brackets, "javascript:" protocol prefixes and
// inline event-handler tokens, then trims surrounding whitespace. This is a
// best-effort textual defense, not a full HTML sanitizer, and must not be
// relied on as a security guarantee.
func SanitizeInput(input string) string {
	s := strings.NewReplacer("<", "", ">", "").Replace(input)
	s = jsProtoRegex.ReplaceAllString(s, "")
	s = eventAttrRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// AmountCheck is the outcome of a transaction amount validation. When the
// amount is rejected, Error holds the first failing rule's reason.
type AmountCheck struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateTransactionAmount checks, in order, that the amount is positive,
// covered by the balance, and within the per-transaction ceiling. The first
// failing check's reason is returned.
func ValidateTransactionAmount(amount, balance decimal.Decimal) AmountCheck {
	if amount.LessThanOrEqual(decimal.Zero) {
		return AmountCheck{Valid: false, Error: "Invalid amount"}
	}
	if amount.GreaterThan(balance) {
		return AmountCheck{Valid: false, Error: "Insufficient funds"}
	}
	if amount.GreaterThan(MaxTransactionAmount) {
		return AmountCheck{Valid: false, Error: "Amount exceeds daily limit"}
	}
	return AmountCheck{Valid: true}
}
