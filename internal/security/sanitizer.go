// Package security provides input sanitization and abuse heuristics for
// booking submissions.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxInputLength is the maximum number of characters kept by SanitizeInput.
const MaxInputLength = 1000

// Warnings reported by DetectSuspiciousActivity.
const (
	WarnSuspiciousEmail = "Suspicious email pattern detected"
	WarnSuspiciousPhone = "Suspicious phone number pattern detected"
	WarnSuspiciousText  = "Suspicious text content detected"
)

var (
	emailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex   = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	zipCodeRegex = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// phoneSeparators are stripped before phone validation.
var phoneSeparators = strings.NewReplacer(" ", "", "\t", "", "-", "", "(", "", ")", "")

// tagStripper removes characters that could open or close markup.
var tagStripper = strings.NewReplacer("<", "", ">", "")

// suspiciousEmailWords flag throwaway addresses.
var suspiciousEmailWords = []string{"test", "example", "fake"}

// suspiciousTextWords flag bot-like free text.
var suspiciousTextWords = []string{"spam", "test", "fake", "bot", "script"}

// SanitizeInput trims whitespace, removes angle brackets and truncates the
// result to MaxInputLength characters.
func SanitizeInput(input string) string {
	s := tagStripper.Replace(strings.TrimSpace(input))
	if utf8.RuneCountInString(s) <= MaxInputLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxInputLength])
}

// ValidateEmail reports whether email looks like an address.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePhone reports whether phone is a plausible international number
// once separators are removed.
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(phoneSeparators.Replace(phone))
}

// ValidateZipCode accepts five digit US ZIP codes with an optional +4 suffix.
func ValidateZipCode(zip string) bool {
	return zipCodeRegex.MatchString(zip)
}

// Signals are the submitted fields inspected for abuse.
type Signals struct {
	Email               string
	Phone               string
	Address             string
	SpecialInstructions string
}

// DetectSuspiciousActivity returns a warning per suspicious field.
func DetectSuspiciousActivity(s Signals) []string {
	var warnings []string

	if s.Email != "" && containsAny(strings.ToLower(s.Email), suspiciousEmailWords) {
		warnings = append(warnings, WarnSuspiciousEmail)
	}

	if s.Phone != "" {
		digits := digitsOnly(s.Phone)
		if len(digits) < 10 || isRepeatedDigit(digits) {
			warnings = append(warnings, WarnSuspiciousPhone)
		}
	}

	if s.SpecialInstructions != "" && containsAny(strings.ToLower(s.SpecialInstructions), suspiciousTextWords) {
		warnings = append(warnings, WarnSuspiciousText)
	}

	return warnings
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isRepeatedDigit reports whether digits is ten or more copies of one digit.
func isRepeatedDigit(digits string) bool {
	if len(digits) < 10 {
		return false
	}
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
