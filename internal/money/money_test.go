package money

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheDarkness2001/SMS-sub002/internal/i18n"
)

func TestFormatMinor(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		lang   i18n.Language
		want   string
	}{
		{"uzbek grouping", 5000000, i18n.Uzbek, "50 000 so'm"},
		{"english grouping", 5000000, i18n.English, "50,000 UZS"},
		{"russian grouping", 100000000, i18n.Russian, "1 000 000 сум"},
		{"zero", 0, i18n.Uzbek, "0 so'm"},
		{"fraction", 50025, i18n.English, "500.25 UZS"},
		{"small fraction", 5, i18n.English, "0.05 UZS"},
		{"negative", -150000, i18n.English, "-1,500 UZS"},
		{"unknown language", 100, i18n.Language("xx"), "1 so'm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMinor(tt.amount, tt.lang))
		})
	}
}

func TestFormatMajor(t *testing.T) {
	assert.Equal(t, "500.25", FormatMajor(50025))
	assert.Equal(t, "1000000", FormatMajor(100000000))
	assert.Equal(t, "0", FormatMajor(0))
}

func TestParseMajor(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"50000", 5000000},
		{"50 000", 5000000},
		{"50,000", 5000000},
		{"1,000,000", 100000000},
		{"500.25", 50025},
		{"500,5", 50050},
		{"50 000 so'm", 5000000},
		{"50,000 UZS", 5000000},
		{"1 000 сум", 100000},
		{"+100", 10000},
		{"0.005", 1},
		{"-25", -2500},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMajor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMajor_Errors(t *testing.T) {
	_, err := ParseMajor("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ParseMajor("   so'm")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ParseMajor("abc")
	assert.ErrorIs(t, err, ErrNotANumber)

	_, err = ParseMajor("12..5")
	assert.ErrorIs(t, err, ErrNotANumber)

	_, err = ParseMajor("999999999999999999999")
	assert.ErrorIs(t, err, ErrOutOfRange)

	for _, in := range []string{"5e4", "1E2", "1e99999999", "1e-9999999", "0x10", ".", "-"} {
		start := time.Now()
		_, err = ParseMajor(in)
		assert.ErrorIs(t, err, ErrNotANumber, in)
		assert.Less(t, time.Since(start), time.Second, in)
	}
}

func TestRoundTrip(t *testing.T) {
	amounts := []int64{0, 1, 5, 99, 100, 12345, 5000000, 100000000, 123456789012}
	for _, lang := range i18n.Supported() {
		for _, x := range amounts {
			got, err := ParseMajor(FormatMinor(x, lang))
			require.NoError(t, err, "lang=%s amount=%d", lang, x)
			assert.Equal(t, x, got, "lang=%s", lang)
		}
	}
	for _, x := range amounts {
		got, err := ParseMajor(FormatMajor(x))
		require.NoError(t, err)
		assert.Equal(t, x, got)
	}
}

func TestSigned(t *testing.T) {
	assert.Equal(t, "+50 000 so'm", Signed(5000000, "credit", i18n.Uzbek))
	assert.Equal(t, "-50 000 so'm", Signed(5000000, "debit", i18n.Uzbek))
	assert.Equal(t, "-1,000 UZS", Signed(-100000, "DEBIT", i18n.English))
	assert.Equal(t, "+1,000 UZS", Signed(100000, "", i18n.English))
}

func TestToMinor(t *testing.T) {
	assert.Equal(t, int64(100000), ToMinor(1000))
}
