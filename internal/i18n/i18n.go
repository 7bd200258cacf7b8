// Package i18n holds the UI language context: which language is selected and how
// message keys are rendered in it.
package i18n

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Language is a supported UI language code
type Language string

// Supported languages
const (
	English Language = "en"
	Russian Language = "ru"
	Uzbek   Language = "uz"
)

// DefaultLanguage is used when nothing is stored or the stored value is unknown
const DefaultLanguage = Uzbek

// PreferenceKey is the durable storage key holding the selected language
const PreferenceKey = "language"

//go:embed locales/*.yaml
var localeFS embed.FS

var (
	supported = []Language{English, Russian, Uzbek}
	tags      = map[Language]language.Tag{
		English: language.English,
		Russian: language.Russian,
		Uzbek:   language.Uzbek,
	}
	matcher = language.NewMatcher([]language.Tag{language.Uzbek, language.English, language.Russian})
)

// Supported returns the supported languages in display order
func Supported() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// Tag returns the BCP 47 tag for a language
func (l Language) Tag() language.Tag {
	if t, ok := tags[l]; ok {
		return t
	}
	return tags[DefaultLanguage]
}

// Valid reports whether l is one of the supported languages
func (l Language) Valid() bool {
	_, ok := tags[l]
	return ok
}

// ParseLanguage resolves free-form input such as "ru-RU", "uz-Latn" or an
// Accept-Language header to a supported language.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty language")
	}
	desired, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(desired) == 0 {
		return "", fmt.Errorf("unrecognised language %q", s)
	}
	_, idx, conf := matcher.Match(desired...)
	if conf == language.No {
		return "", fmt.Errorf("unsupported language %q", s)
	}
	return []Language{Uzbek, English, Russian}[idx], nil
}

// Preferences is the durable key/value storage the locale persists its selection to
type Preferences interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Locale is the process-wide language context. It is safe for concurrent use.
type Locale struct {
	mu       sync.RWMutex
	current  Language
	printers map[Language]*message.Printer
	prefs    Preferences
}

// NewLocale builds the message catalogs and selects lang
func NewLocale(lang Language) (*Locale, error) {
	builder, err := buildCatalog()
	if err != nil {
		return nil, err
	}
	if !lang.Valid() {
		lang = DefaultLanguage
	}

	printers := make(map[Language]*message.Printer, len(supported))
	for _, l := range supported {
		printers[l] = message.NewPrinter(l.Tag(), message.Catalog(builder))
	}

	return &Locale{current: lang, printers: printers}, nil
}

// WithPreferences restores the stored language (if any) and persists future changes
func (l *Locale) WithPreferences(ctx context.Context, prefs Preferences) *Locale {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prefs = prefs
	if stored, err := prefs.Get(ctx, PreferenceKey); err == nil {
		if lang := Language(stored); lang.Valid() {
			l.current = lang
		}
	}
	return l
}

// Language returns the selected language
func (l *Locale) Language() Language {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// SetLanguage switches the UI language
func (l *Locale) SetLanguage(ctx context.Context, lang Language) error {
	if !lang.Valid() {
		return fmt.Errorf("unsupported language %q", lang)
	}

	l.mu.Lock()
	l.current = lang
	prefs := l.prefs
	l.mu.Unlock()

	if prefs != nil {
		if err := prefs.Set(ctx, PreferenceKey, string(lang)); err != nil {
			return fmt.Errorf("saving language preference: %w", err)
		}
	}
	return nil
}

// T renders a message key in the selected language. Keys missing from every
// catalog are returned as-is.
func (l *Locale) T(key string, args ...interface{}) string {
	l.mu.RLock()
	p := l.printers[l.current]
	l.mu.RUnlock()
	return p.Sprintf(key, args...)
}

func buildCatalog() (*catalog.Builder, error) {
	messages := make(map[Language]map[string]string, len(supported))
	for _, lang := range supported {
		data, err := localeFS.ReadFile("locales/" + string(lang) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("reading %s catalog: %w", lang, err)
		}
		var m map[string]string
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing %s catalog: %w", lang, err)
		}
		messages[lang] = m
	}

	builder := catalog.NewBuilder(catalog.Fallback(English.Tag()))
	for _, lang := range supported {
		// Keys absent from a translation fall back to the English text.
		for key, text := range messages[English] {
			if translated, ok := messages[lang][key]; ok && translated != "" {
				text = translated
			}
			if err := builder.SetString(lang.Tag(), key, text); err != nil {
				return nil, fmt.Errorf("adding %s/%s: %w", lang, key, err)
			}
		}
	}
	return builder, nil
}
