// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LocaleReport lists the keys of the primary locale a locale lacks.
type LocaleReport struct {
	Locale  string
	File    string
	Missing []string
}

// LintReport is the result of Lint.
type LintReport struct {
	Primary     string
	PrimaryFile string
	Keys        int
	Locales     []LocaleReport
	// Orphaned holds primary keys not referenced from scanned sources.
	Orphaned []string
}

// HasMissing reports whether any locale lacks a key.
func (r *LintReport) HasMissing() bool {
	for _, l := range r.Locales {
		if len(l.Missing) > 0 {
			return true
		}
	}
	return false
}

// messageFields are the keys of a go-i18n message definition. A map made of
// these is one message, not a namespace.
var messageFields = map[string]struct{}{
	"id": {}, "hash": {}, "description": {}, "leftdelim": {}, "rightdelim": {},
	"zero": {}, "one": {}, "two": {}, "few": {}, "many": {}, "other": {},
}

// LocaleOf returns the locale encoded in a message file name:
// "active.de.yaml" and "de.yaml" both give "de".
func LocaleOf(name string) string {
	base := strings.TrimSuffix(path.Base(filepath.ToSlash(name)), path.Ext(name))
	if i := strings.LastIndex(base, "."); i >= 0 {
		return base[i+1:]
	}
	return base
}

// LoadKeys reads a message file and returns its flattened message IDs.
func LoadKeys(fsys fs.FS, name string) (map[string]struct{}, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	switch strings.ToLower(path.Ext(name)) {
	case ".toml":
		err = toml.Unmarshal(content, &data)
	default:
		// YAML is a superset of JSON.
		err = yaml.Unmarshal(content, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	keys := make(map[string]struct{})
	flatten("", data, keys)
	return keys, nil
}

func flatten(prefix string, node any, keys map[string]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		if prefix != "" && isMessage(v) {
			keys[prefix] = struct{}{}
			return
		}
		for k, val := range v {
			next := k
			if prefix != "" {
				next = prefix + "." + k
			}
			flatten(next, val, keys)
		}
	default:
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
	}
}

func isMessage(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if _, ok := messageFields[strings.ToLower(k)]; !ok {
			return false
		}
	}
	return true
}

// Lint compares every message file in fsys against the file of the primary
// locale and reports the keys the others lack.
func Lint(fsys fs.FS, primary string) (*LintReport, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var files []string
	primaryFile := ""
	for _, e := range entries {
		if e.IsDir() || !IsMessageFile(e.Name()) {
			continue
		}
		if LocaleOf(e.Name()) == primary && primaryFile == "" {
			primaryFile = e.Name()
			continue
		}
		files = append(files, e.Name())
	}
	if primaryFile == "" {
		return nil, fmt.Errorf("i18n: no message file for primary locale %q", primary)
	}

	primaryKeys, err := LoadKeys(fsys, primaryFile)
	if err != nil {
		return nil, err
	}
	report := &LintReport{Primary: primary, PrimaryFile: primaryFile, Keys: len(primaryKeys)}
	sort.Strings(files)
	for _, f := range files {
		keys, err := LoadKeys(fsys, f)
		if err != nil {
			return nil, err
		}
		lr := LocaleReport{Locale: LocaleOf(f), File: f}
		for k := range primaryKeys {
			if _, ok := keys[k]; !ok {
				lr.Missing = append(lr.Missing, k)
			}
		}
		sort.Strings(lr.Missing)
		report.Locales = append(report.Locales, lr)
	}
	return report, nil
}

var usedKeyRe = regexp.MustCompile(`\b(?:T|Plural)\("([a-z0-9_]+(?:\.[a-z0-9_]+)+)"`)

// UsedKeys scans the Go files below root for literal message IDs passed to
// T or Plural. Test files and vendor directories are skipped.
func UsedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if p != root && (name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(p, ".go") || strings.HasSuffix(p, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		for _, m := range usedKeyRe.FindAllStringSubmatch(string(content), -1) {
			keys[m[1]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// Orphans returns the keys of primary that are missing from used, sorted.
func Orphans(primary, used map[string]struct{}) []string {
	var out []string
	for k := range primary {
		if _, ok := used[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
