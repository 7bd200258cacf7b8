package money

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
)

// Color is a display colour in #rrggbb form
type Color string

// Palette used for status and type badges
const (
	ColorSuccess Color = "#16a34a"
	ColorWarning Color = "#f59e0b"
	ColorDanger  Color = "#dc2626"
	ColorInfo    Color = "#2563eb"
	ColorMuted   Color = "#6b7280"
	ColorPurple  Color = "#7c3aed"
	ColorTeal    Color = "#0d9488"
	ColorNeutral Color = "#9ca3af"
)

var (
	transactionStatusColors = map[string]Color{
		"completed": ColorSuccess,
		"pending":   ColorWarning,
		"failed":    ColorDanger,
		"reversed":  ColorMuted,
	}
	transactionTypeColors = map[string]Color{
		"top-up":          ColorSuccess,
		"class-deduction": ColorInfo,
		"penalty":         ColorDanger,
		"refund":          ColorTeal,
		"adjustment":      ColorPurple,
	}
	earningStatusColors = map[string]Color{
		"pending":   ColorWarning,
		"approved":  ColorInfo,
		"paid":      ColorSuccess,
		"cancelled": ColorMuted,
	}
	earningTypeColors = map[string]Color{
		"per-class":  ColorInfo,
		"hourly":     ColorTeal,
		"commission": ColorPurple,
		"bonus":      ColorSuccess,
		"adjustment": ColorWarning,
		"penalty":    ColorDanger,
	}
	payoutStatusColors = map[string]Color{
		"pending":   ColorWarning,
		"completed": ColorSuccess,
		"cancelled": ColorMuted,
	}
)

// TransactionStatusColor maps a wallet transaction status to its colour
func TransactionStatusColor(status string) Color {
	return lookup(transactionStatusColors, status)
}

// TransactionTypeColor maps a wallet transaction type to its colour
func TransactionTypeColor(txType string) Color {
	return lookup(transactionTypeColors, txType)
}

// EarningStatusColor maps a staff earning status to its colour
func EarningStatusColor(status string) Color {
	return lookup(earningStatusColors, status)
}

// EarningTypeColor maps a staff earning type to its colour
func EarningTypeColor(earningType string) Color {
	return lookup(earningTypeColors, earningType)
}

// PayoutStatusColor maps a salary payout status to its colour
func PayoutStatusColor(status string) Color {
	return lookup(payoutStatusColors, status)
}

// lookup accepts "TOP_UP", "top_up" and "top-up" alike
func lookup(m map[string]Color, key string) Color {
	if c, ok := m[api.Canonical(key)]; ok {
		return c
	}
	return ColorNeutral
}

// RGB splits the colour into its components. Malformed values yield the
// neutral grey.
func (c Color) RGB() (r, g, b uint8) {
	s := strings.TrimPrefix(string(c), "#")
	if len(s) != 6 {
		s = strings.TrimPrefix(string(ColorNeutral), "#")
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		v, _ = strconv.ParseUint(strings.TrimPrefix(string(ColorNeutral), "#"), 16, 32)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

// ANSI wraps text in a 24-bit foreground colour escape sequence
func (c Color) ANSI(text string) string {
	r, g, b := c.RGB()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", r, g, b, text)
}
