package cep_test

import (
	"strings"
	"testing"

	"github.com/dukerupert/cepfinder/internal/cep"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		digits  string
		display string
	}{
		{name: "empty input", raw: "", digits: "", display: ""},
		{name: "complete code", raw: "12345678", digits: "12345678", display: "12345-678"},
		{name: "already formatted", raw: "01001-000", digits: "01001000", display: "01001-000"},
		{name: "five digits has no separator", raw: "12345", digits: "12345", display: "12345"},
		{name: "six digits gets separator", raw: "123456", digits: "123456", display: "12345-6"},
		{name: "letters and punctuation stripped", raw: "ab1.2c3 4-5/6x", digits: "123456", display: "12345-6"},
		{name: "extra digits dropped", raw: "1234567890", digits: "12345678", display: "12345-678"},
		{name: "only garbage", raw: "CEP: --", digits: "", display: ""},
		{name: "non ascii digits ignored", raw: "١٢٣45", digits: "45", display: "45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cep.Normalize(tt.raw)
			assert.Equal(t, tt.digits, got.Digits)
			assert.Equal(t, tt.display, got.Display)
		})
	}
}

func TestNormalize_DigitsInvariant(t *testing.T) {
	inputs := []string{
		"",
		"0",
		"99999999999999",
		"12a34b56c78d90",
		strings.Repeat("7", 100),
		"  01310-100  ",
		"\x00\xff12",
	}

	for _, raw := range inputs {
		got := cep.Normalize(raw)
		assert.LessOrEqual(t, len(got.Digits), cep.Length, "input %q", raw)
		for _, r := range got.Digits {
			assert.True(t, r >= '0' && r <= '9', "input %q produced non-digit %q", raw, r)
		}
	}
}

func TestFormat_SeparatorPosition(t *testing.T) {
	for n := 6; n <= cep.Length; n++ {
		display := cep.Format(strings.Repeat("1", n))
		assert.Equal(t, 1, strings.Count(display, "-"), "length %d", n)
		assert.Equal(t, 5, strings.IndexByte(display, '-'), "length %d", n)
	}
}

func TestIsComplete(t *testing.T) {
	for n := 0; n <= 10; n++ {
		digits := strings.Repeat("3", n)
		assert.Equal(t, n == cep.Length, cep.IsComplete(digits), "length %d", n)
	}

	assert.False(t, cep.IsComplete("1234567a"))
	assert.False(t, cep.IsComplete("12345-67"))
}

func TestNormalize_Scenario(t *testing.T) {
	code := cep.Normalize("12345678")

	assert.Equal(t, "12345678", code.Digits)
	assert.Equal(t, "12345-678", code.Display)
	assert.True(t, code.Complete())
}
