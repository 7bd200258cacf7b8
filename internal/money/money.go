// Package money converts between integer minor units ("tyiyn", 1/100 of the
// display currency) and the strings shown to or typed by users.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/TheDarkness2001/SMS-sub002/internal/i18n"
)

// MinorPerMajor is the number of minor units in one display unit
const MinorPerMajor = 100

// Errors returned by ParseMajor
var (
	ErrEmpty      = errors.New("money: empty amount")
	ErrNotANumber = errors.New("money: amount is not a number")
	ErrOutOfRange = errors.New("money: amount out of range")
)

var (
	hundred        = decimal.NewFromInt(MinorPerMajor)
	maxMinor       = decimal.NewFromInt(1<<63 - 1)
	minMinor       = decimal.NewFromInt(-1 << 63)
	currencySuffix = map[i18n.Language]string{
		i18n.English: "UZS",
		i18n.Russian: "сум",
		i18n.Uzbek:   "so'm",
	}
	groupSeparator = map[i18n.Language]string{
		i18n.English: ",",
		i18n.Russian: " ",
		i18n.Uzbek:   " ",
	}
)

// Suffix returns the currency suffix for a language
func Suffix(lang i18n.Language) string {
	if s, ok := currencySuffix[lang]; ok {
		return s
	}
	return currencySuffix[i18n.DefaultLanguage]
}

// FormatMinor renders a minor-unit amount as a display string with thousands
// separators and the language's currency suffix, e.g. 5000000 -> "50 000 so'm".
// The fractional part is shown only when it is non-zero.
func FormatMinor(amount int64, lang i18n.Language) string {
	sep, ok := groupSeparator[lang]
	if !ok {
		sep = groupSeparator[i18n.DefaultLanguage]
	}
	return formatNumber(amount, sep) + " " + Suffix(lang)
}

// FormatMajor renders a minor-unit amount as a plain major-unit number suitable
// for prefilling a form field, e.g. 50025 -> "500.25".
func FormatMajor(amount int64) string {
	return formatNumber(amount, "")
}

// Signed renders an amount with a "+" for credits and "-" for debits.
// amount is expected to be non-negative; only its magnitude is used.
func Signed(amount int64, direction string, lang i18n.Language) string {
	sign := "+"
	if strings.EqualFold(direction, "debit") {
		sign = "-"
	}
	return sign + FormatMinor(abs(amount), lang)
}

// ToMinor converts whole major units to minor units
func ToMinor(major int64) int64 {
	return major * MinorPerMajor
}

// ParseMajor parses user input in major units into minor units, rounding to the
// nearest minor unit. Grouping separators and a trailing currency suffix are
// accepted, so the output of FormatMinor and FormatMajor parses back exactly.
func ParseMajor(input string) (int64, error) {
	s := normalise(input)
	if s == "" {
		return 0, ErrEmpty
	}

	if !plainNumber(s) {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, input)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, input)
	}

	minor := d.Mul(hundred).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, ErrOutOfRange
	}
	return minor.IntPart(), nil
}

func normalise(input string) string {
	s := strings.TrimSpace(strings.ToLower(input))
	for _, suffix := range []string{"uzs", "сум", "so'm", "so‘m", "soʻm", "som"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "_", "").Replace(s)
	s = strings.TrimPrefix(s, "+")

	// A single comma not followed by exactly three digits is a decimal comma
	// ("500,5"); anything else is grouping ("1,000,000").
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		if after := s[strings.Index(s, ",")+1:]; len(after) != 3 {
			return strings.Replace(s, ",", ".", 1)
		}
	}
	return strings.ReplaceAll(s, ",", "")
}

// plainNumber accepts an optional minus sign, digits and at most one '.'.
// Exponents are refused since decimal expands them digit by digit.
func plainNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

func formatNumber(amount int64, sep string) string {
	neg := amount < 0
	u := uint64(amount)
	if neg {
		u = uint64(-(amount + 1)) + 1
	}
	major, minor := u/MinorPerMajor, u%MinorPerMajor

	digits := strconv.FormatUint(major, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && sep != "" && (len(digits)-i)%3 == 0 {
			b.WriteString(sep)
		}
		b.WriteRune(r)
	}
	if minor != 0 {
		fmt.Fprintf(&b, ".%02d", minor)
	}
	return b.String()
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
