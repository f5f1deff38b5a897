package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  Jane  ", "Jane"},
		{"strips tags", "<script>alert(1)</script>", "scriptalert(1)/script"},
		{"keeps plain text", "123 Main St.", "123 Main St."},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeInput(tt.input))
		})
	}

	t.Run("truncates long input", func(t *testing.T) {
		got := SanitizeInput(strings.Repeat("é", MaxInputLength+50))
		assert.Equal(t, MaxInputLength, len([]rune(got)))
	})
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"jane@topclass.com", "a.b+c@mail.co.uk"}
	invalid := []string{"", "jane", "jane@", "jane@host", "ja ne@host.com", "@host.com"}

	for _, e := range valid {
		assert.True(t, ValidateEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, ValidateEmail(e), e)
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"+1 (555) 123-4567", "5551234567", "+447911123456"}
	invalid := []string{"", "0123456789", "phone", "+", "12345678901234567"}

	for _, p := range valid {
		assert.True(t, ValidatePhone(p), p)
	}
	for _, p := range invalid {
		assert.False(t, ValidatePhone(p), p)
	}
}

func TestValidateZipCode(t *testing.T) {
	assert.True(t, ValidateZipCode("90210"))
	assert.True(t, ValidateZipCode("90210-1234"))
	assert.False(t, ValidateZipCode("9021"))
	assert.False(t, ValidateZipCode("90210-12"))
	assert.False(t, ValidateZipCode("ABCDE"))
}

func TestDetectSuspiciousActivity(t *testing.T) {
	t.Run("clean submission", func(t *testing.T) {
		warnings := DetectSuspiciousActivity(Signals{
			Email:               "jane@topclass.com",
			Phone:               "(555) 123-4567",
			SpecialInstructions: "Please use the side door.",
		})
		assert.Empty(t, warnings)
	})

	t.Run("flags every field", func(t *testing.T) {
		warnings := DetectSuspiciousActivity(Signals{
			Email:               "Fake.User@mail.com",
			Phone:               "555-1234",
			SpecialInstructions: "I am a BOT",
		})
		assert.Equal(t, []string{WarnSuspiciousEmail, WarnSuspiciousPhone, WarnSuspiciousText}, warnings)
	})

	t.Run("repeated digits", func(t *testing.T) {
		warnings := DetectSuspiciousActivity(Signals{Phone: "1111111111"})
		assert.Equal(t, []string{WarnSuspiciousPhone}, warnings)
	})

	t.Run("empty fields are skipped", func(t *testing.T) {
		assert.Empty(t, DetectSuspiciousActivity(Signals{}))
	})
}
