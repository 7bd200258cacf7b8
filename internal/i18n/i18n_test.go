package i18n

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapPrefs map[string]string

func (m mapPrefs) Get(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (m mapPrefs) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"en", English, false},
		{"en-US", English, false},
		{"ru-RU", Russian, false},
		{"uz-Latn", Uzbek, false},
		{"ru;q=0.9, en;q=0.8", Russian, false},
		{"", "", true},
		{"fr", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLanguage(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocale_T(t *testing.T) {
	loc, err := NewLocale(English)
	require.NoError(t, err)

	assert.Equal(t, "Balance", loc.T("wallet.balance"))
	assert.Equal(t, "Signed in as Aziz (teacher)", loc.T("auth.logged_in", "Aziz", "teacher"))

	require.NoError(t, loc.SetLanguage(context.Background(), Russian))
	assert.Equal(t, "Баланс", loc.T("wallet.balance"))
	// Missing in the Russian catalog: falls back to English.
	assert.Equal(t, "Card number is not valid", loc.T("validation.card_invalid"))

	require.NoError(t, loc.SetLanguage(context.Background(), Uzbek))
	assert.Equal(t, "Balans", loc.T("wallet.balance"))
	assert.Equal(t, "(ushlab qolish)", loc.T("earnings.deduction"))

	assert.Equal(t, "no.such.key", loc.T("no.such.key"))
}

func TestLocale_InvalidDefaultsToUzbek(t *testing.T) {
	loc, err := NewLocale(Language("xx"))
	require.NoError(t, err)
	assert.Equal(t, Uzbek, loc.Language())
}

func TestLocale_SetLanguageRejectsUnsupported(t *testing.T) {
	loc, err := NewLocale(English)
	require.NoError(t, err)

	require.Error(t, loc.SetLanguage(context.Background(), Language("de")))
	assert.Equal(t, English, loc.Language())
}

func TestLocale_Preferences(t *testing.T) {
	ctx := context.Background()
	prefs := mapPrefs{PreferenceKey: "ru"}

	loc, err := NewLocale(English)
	require.NoError(t, err)
	loc.WithPreferences(ctx, prefs)
	assert.Equal(t, Russian, loc.Language())

	require.NoError(t, loc.SetLanguage(ctx, Uzbek))
	assert.Equal(t, "uz", prefs[PreferenceKey])

	loc2, err := NewLocale(English)
	require.NoError(t, err)
	loc2.WithPreferences(ctx, mapPrefs{PreferenceKey: "klingon"})
	assert.Equal(t, English, loc2.Language())
}

func TestSupported(t *testing.T) {
	langs := Supported()
	assert.Equal(t, []Language{English, Russian, Uzbek}, langs)
	langs[0] = "zz"
	assert.Equal(t, English, Supported()[0])
}
