// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

// Package i18n provides translations for Bedrock applications. It uses the
// go-i18n library to load message files: the framework's own messages are
// embedded, applications add theirs from directories of YAML, JSON or TOML
// files named like "active.de.yaml".
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"
)

// localeFS embeds the framework's translation files.
//
//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLocale is used when no locale or fallback is configured.
const DefaultLocale = "en"

// Translator translates message IDs for the active locale, falling back to
// the fallback locale and finally to the message ID itself.
type Translator struct {
	mu        sync.RWMutex
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	locale    string
	fallback  string
}

// New builds a translator. paths are directories whose message files are
// loaded after the embedded ones, so applications can override framework
// messages.
func New(locale, fallback string, paths ...string) (*Translator, error) {
	if fallback == "" {
		fallback = DefaultLocale
	}
	if locale == "" {
		locale = fallback
	}
	fallbackTag, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("i18n: invalid fallback locale %q: %w", fallback, err)
	}

	bundle := i18n.NewBundle(fallbackTag)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	bundle.RegisterUnmarshalFunc("yml", yaml.Unmarshal)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			return nil, fmt.Errorf("i18n: parse embedded %s: %w", f.Name(), err)
		}
	}

	for _, dir := range paths {
		if err := loadDir(bundle, dir); err != nil {
			return nil, err
		}
	}

	t := &Translator{bundle: bundle, fallback: fallback}
	t.SetLocale(locale)
	return t, nil
}

func loadDir(bundle *i18n.Bundle, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("i18n: read %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !IsMessageFile(e.Name()) {
			continue
		}
		if _, err := bundle.LoadMessageFile(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("i18n: load %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Files returns the embedded framework message files.
func Files() fs.FS {
	sub, err := fs.Sub(localeFS, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}

// IsMessageFile reports whether name has an extension the bundle can parse.
func IsMessageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json", ".toml":
		return true
	}
	return false
}

// SetLocale switches the active locale.
func (t *Translator) SetLocale(locale string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locale = locale
	t.localizer = i18n.NewLocalizer(t.bundle, locale, t.fallback)
}

// Locale returns the active locale.
func (t *Translator) Locale() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.locale
}

// Fallback returns the fallback locale.
func (t *Translator) Fallback() string { return t.fallback }

// T translates id. A single map[string]any argument is used as template
// data; any other arguments are applied with fmt.Sprintf. Unknown IDs are
// returned unchanged.
func (t *Translator) T(id string, args ...any) string {
	cfg := &i18n.LocalizeConfig{MessageID: id}
	var fmtArgs []any
	if len(args) == 1 {
		if data, ok := args[0].(map[string]any); ok {
			cfg.TemplateData = data
		} else {
			fmtArgs = args
		}
	} else {
		fmtArgs = args
	}
	return t.localize(cfg, fmtArgs)
}

// Plural translates id choosing the plural form for count. count is also
// available to the template as {{.Count}}.
func (t *Translator) Plural(id string, count int, data map[string]any) string {
	tmpl := make(map[string]any, len(data)+1)
	for k, v := range data {
		tmpl[k] = v
	}
	if _, ok := tmpl["Count"]; !ok {
		tmpl["Count"] = count
	}
	return t.localize(&i18n.LocalizeConfig{MessageID: id, PluralCount: count, TemplateData: tmpl}, nil)
}

func (t *Translator) localize(cfg *i18n.LocalizeConfig, fmtArgs []any) string {
	t.mu.RLock()
	loc := t.localizer
	t.mu.RUnlock()

	msg, err := loc.Localize(cfg)
	if err != nil {
		// go-i18n reports unknown IDs as errors; the ID is the fallback.
		return cfg.MessageID
	}
	if len(fmtArgs) > 0 {
		return fmt.Sprintf(msg, fmtArgs...)
	}
	return msg
}

// translatable is implemented by errors that carry a message ID.
type translatable interface {
	MessageID() string
	TemplateData() map[string]any
}

// Error returns a translated message for err when any error in its chain
// carries a message ID, otherwise err.Error().
func (t *Translator) Error(err error) string {
	if err == nil {
		return ""
	}
	var te translatable
	if errors.As(err, &te) {
		if msg := t.T(te.MessageID(), te.TemplateData()); msg != te.MessageID() {
			return msg
		}
	}
	return err.Error()
}

// Locales returns every loaded locale keyed by its tag, with its name in its
// own language.
func (t *Translator) Locales() map[string]string {
	out := make(map[string]string)
	for _, tag := range t.bundle.LanguageTags() {
		name := display.Self.Name(tag)
		if name == "" {
			name = tag.String()
		}
		out[tag.String()] = name
	}
	return out
}

var (
	defaultMu sync.RWMutex
	def       *Translator
)

// Init replaces the package-level translator with one for lang using only
// the embedded messages.
func Init(lang string) {
	t, err := New(lang, DefaultLocale)
	if err != nil {
		t, _ = New(DefaultLocale, DefaultLocale)
	}
	SetDefault(t)
}

// SetDefault installs t as the package-level translator.
func SetDefault(t *Translator) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	def = t
}

// Default returns the package-level translator, initialising it in English
// on first use.
func Default() *Translator {
	defaultMu.RLock()
	t := def
	defaultMu.RUnlock()
	if t == nil {
		Init(DefaultLocale)
		defaultMu.RLock()
		t = def
		defaultMu.RUnlock()
	}
	return t
}

// T translates id with the package-level translator.
func T(id string, args ...any) string {
	return Default().T(id, args...)
}

// Plural translates id for count with the package-level translator.
func Plural(id string, count int, data map[string]any) string {
	return Default().Plural(id, count, data)
}

// SetLang changes the language of the package-level translator.
func SetLang(lang string) {
	Default().SetLocale(lang)
}

// GetLang returns the language of the package-level translator.
func GetLang() string {
	return Default().Locale()
}

// GetAvailableLocales lists the locales of the package-level translator.
func GetAvailableLocales() map[string]string {
	return Default().Locales()
}
