// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.
package i18n

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/toeirei/bedrock/manager"
)

func TestInitAndAvailableLocales(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}

	av := GetAvailableLocales()
	for _, k := range []string{"en", "de"} {
		if _, ok := av[k]; !ok {
			t.Fatalf("expected available locale %q to be present, got %v", k, av)
		}
	}
	if av["de"] != "Deutsch" {
		t.Fatalf("unexpected display name for de: %q", av["de"])
	}
}

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")

	if got := T("console.hash.match"); got != "The value matches the hash." {
		t.Fatalf("unexpected translation: %q", got)
	}

	// fmt-style formatting via non-map args
	if got := T("console.make.created", "providers/app_provider.go"); got != "Created providers/app_provider.go" {
		t.Fatalf("unexpected formatted translation: %q", got)
	}

	SetLang("de")
	defer SetLang("en")
	if GetLang() != "de" {
		t.Fatalf("expected lang 'de', got %q", GetLang())
	}
	if got := T("console.hash.match"); got != "Der Wert passt zum Hash." {
		t.Fatalf("expected German translation, got %q", got)
	}
}

func TestT_MissingIDReturnsID(t *testing.T) {
	tr, err := New("en", "en")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := tr.T("does.not.exist"); got != "does.not.exist" {
		t.Fatalf("expected message id fallback, got %q", got)
	}
	if got := tr.T("does.not.exist", 1, 2); got != "does.not.exist" {
		t.Fatalf("expected unformatted id fallback, got %q", got)
	}
}

func TestT_TemplateDataAndPlural(t *testing.T) {
	tr, err := New("en", "en")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := tr.T("errors.driver.unsupported_driver", map[string]any{"manager": "hash", "driver": "md5"})
	if got != `hash: driver "md5" is not supported` {
		t.Fatalf("unexpected template output: %q", got)
	}
	if got := tr.Plural("console.db.migrated_count", 1, nil); got != "Applied 1 migration" {
		t.Fatalf("unexpected singular: %q", got)
	}
	if got := tr.Plural("console.db.migrated_count", 3, nil); got != "Applied 3 migrations" {
		t.Fatalf("unexpected plural: %q", got)
	}
}

func TestPlural_LeavesCallerDataAlone(t *testing.T) {
	tr, err := New("en", "en")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := map[string]any{"Extra": "x"}
	if got := tr.Plural("console.db.migrated_count", 2, data); got != "Applied 2 migrations" {
		t.Fatalf("unexpected plural: %q", got)
	}
	if _, ok := data["Count"]; ok || len(data) != 1 {
		t.Fatalf("caller map modified: %v", data)
	}
}

func TestFallbackLocale(t *testing.T) {
	dir := t.TempDir()
	// French only defines one message; everything else falls back to English.
	if err := os.WriteFile(filepath.Join(dir, "active.fr.yaml"), []byte("console.hash.match: \"La valeur correspond.\"\n"), 0o600); err != nil {
		t.Fatalf("write locale: %v", err)
	}
	tr, err := New("fr", "en", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := tr.T("console.hash.match"); got != "La valeur correspond." {
		t.Fatalf("expected French message, got %q", got)
	}
	if got := tr.T("console.hash.mismatch"); got != "The value does not match the hash." {
		t.Fatalf("expected English fallback, got %q", got)
	}
	if _, ok := tr.Locales()["fr"]; !ok {
		t.Fatalf("expected fr in locales: %v", tr.Locales())
	}
}

func TestApplicationMessagesOverrideEmbedded(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"console.hash.match": "Yes!"}`), 0o600); err != nil {
		t.Fatalf("write locale: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600); err != nil {
		t.Fatalf("write txt: %v", err)
	}
	tr, err := New("en", "en", dir, filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := tr.T("console.hash.match"); got != "Yes!" {
		t.Fatalf("expected override, got %q", got)
	}
}

func TestError_TranslatesDriverErrors(t *testing.T) {
	tr, err := New("de", "en")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m := manager.New[int](nil, manager.WithName[int]("hash"))
	_, derr := m.Driver("md5")
	wrapped := fmt.Errorf("boot: %w", derr)

	if got := tr.Error(wrapped); got != `hash: Treiber "md5" wird nicht unterstützt` {
		t.Fatalf("unexpected translated error: %q", got)
	}
	plain := errors.New("plain failure")
	if got := tr.Error(plain); got != "plain failure" {
		t.Fatalf("expected plain error text, got %q", got)
	}
	if tr.Error(nil) != "" {
		t.Fatalf("nil error should translate to empty string")
	}
}

func TestNew_InvalidFallback(t *testing.T) {
	if _, err := New("en", "not a locale!"); err == nil {
		t.Fatalf("expected error for invalid fallback locale")
	}
}
