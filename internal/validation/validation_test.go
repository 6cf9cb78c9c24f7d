package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"reach me at ana@example.com thanks", "ana@example.com"},
		{"ANA@EXAMPLE.CO.UK", "ANA@EXAMPLE.CO.UK"},
		{"no contact here", ""},
		{"almost@an@email", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractEmail(tt.text), tt.text)
	}
}

func TestExtractPhone(t *testing.T) {
	assert.Equal(t, "+36 30 123 4567", ExtractPhone("call +36 30 123 4567 tomorrow"))
	assert.Equal(t, "(555) 010-2030", ExtractPhone("my number is (555) 010-2030"))
	assert.Equal(t, "", ExtractPhone("the price is 49 per month"))
	assert.Equal(t, "", ExtractPhone("we have 12 seats and 3 admins"))
}

func TestContainsContactInfo(t *testing.T) {
	assert.True(t, ContainsContactInfo("email me: bob@corp.io"))
	assert.True(t, ContainsContactInfo("call 555-010-2030 please"))
	assert.False(t, ContainsContactInfo("just browsing"))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("bob@corp.io"))
	assert.True(t, IsValidEmail("  bob@corp.io  "))
	assert.False(t, IsValidEmail("bob@corp.io and more text"))
	assert.False(t, IsValidEmail(""))
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("acme"))
	assert.True(t, IsValidSlug("acme-corp-2"))
	assert.False(t, IsValidSlug("Acme"))
	assert.False(t, IsValidSlug("-acme"))
	assert.False(t, IsValidSlug("ab"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  ", 100))
	assert.Equal(t, "he", SanitizeString("hello", 2))
	assert.Equal(t, "ab", SanitizeString("a\x00b", 100))
}

func TestValidate(t *testing.T) {
	errs := Validate(
		Required("name", ""),
		MaxLength("bio", "xxxxx", 3),
		ValidEmailField("email", "not-an-email"),
	)
	assert.Len(t, errs, 3)
	assert.Contains(t, errs.Error(), "name")

	errs = Validate(
		Required("name", "Acme"),
		ValidEmailField("email", ""),
	)
	assert.Empty(t, errs)
}
