// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/toeirei/bedrock/internal/logging"
	"github.com/toeirei/bedrock/util/mapst"
)

const (
	defaultName      = "bedrock"
	defaultType      = "yaml"
	defaultEnvPrefix = "bedrock"
)

// Loader reads configuration from defaults, a config file, the environment
// and command-line flags, in increasing order of precedence.
type Loader struct {
	// Name is the config file base name searched for in Paths.
	Name string
	// Type is the config file format understood by viper.
	Type string
	// File is an explicit config file; it must exist when set.
	File string
	// Paths are searched before the user, system and working directories.
	Paths []string
	// EnvPrefix prefixes environment overrides (BEDROCK_APP_NAME -> app.name).
	EnvPrefix string
	// Defaults are dot-path keys applied below every other source.
	Defaults map[string]any
	// Flags are bound by name; flags named "app.name" override that key.
	Flags *pflag.FlagSet
	// CachePath points at a compiled snapshot written by WriteCache.
	CachePath string
	// UseCache makes Load return the snapshot when CachePath exists.
	UseCache bool

	fileUsed string
}

// ConfigPath returns the default config file location for the user or the
// whole system.
func ConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Bedrock")
		default:
			configDir = "/etc/bedrock"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "bedrock")
	}

	return filepath.Join(configDir, defaultName+"."+defaultType), nil
}

// FileUsed returns the config file read by the last Load, if any.
func (l *Loader) FileUsed() string { return l.fileUsed }

// Load builds a Repository from all configured sources.
func (l *Loader) Load() (*Repository, error) {
	l.fileUsed = ""
	if l.UseCache && l.CachePath != "" {
		repo, err := ReadCache(l.CachePath)
		switch {
		case err == nil:
			logging.Debugf("config: loaded cached configuration from %s", l.CachePath)
			l.fileUsed = l.CachePath
			l.applyFlags(repo)
			return repo, nil
		case !errors.Is(err, ErrCacheNotFound):
			// A broken snapshot must not lock out config:clear.
			logging.Warnf("config: ignoring unreadable cache %s: %v", l.CachePath, err)
		}
	}

	v := viper.New()

	for key, value := range l.Defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(orDefault(l.Name, defaultName))
	v.SetConfigType(orDefault(l.Type, defaultType))

	if l.File != "" {
		if _, err := os.Stat(l.File); err != nil {
			return nil, fmt.Errorf("config file %s not accessible: %w", l.File, err)
		}
		v.SetConfigFile(l.File)
	}
	for _, p := range l.Paths {
		v.AddConfigPath(p)
	}
	if userConfigPath, err := ConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := ConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; the application runs on defaults.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		l.fileUsed = v.ConfigFileUsed()
		logging.Debugf("config: using %s", l.fileUsed)
	}

	v.AutomaticEnv()
	v.SetEnvPrefix(orDefault(l.EnvPrefix, defaultEnvPrefix))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if l.Flags != nil {
		if err := v.BindPFlags(l.Flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	// Every key viper knows about is resolved through its precedence chain:
	// changed flag > env > file > default > flag default.
	return New(l.settings(v)), nil
}

// applyFlags sets the keys of changed flags on a repository that did not
// come through viper.
func (l *Loader) applyFlags(repo *Repository) {
	if l.Flags == nil {
		return
	}
	l.Flags.Visit(func(f *pflag.Flag) {
		repo.Set(f.Name, flagValue(l.Flags, f))
	})
}

func flagValue(fs *pflag.FlagSet, f *pflag.Flag) any {
	raw := f.Value.String()
	switch f.Value.Type() {
	case "bool":
		return cast.ToBool(raw)
	case "int", "int32", "int64":
		return cast.ToInt(raw)
	case "uint", "uint32", "uint64":
		return cast.ToUint(raw)
	case "float64", "float32":
		return cast.ToFloat64(raw)
	case "duration":
		return cast.ToDuration(raw)
	case "stringSlice", "stringArray":
		if v, err := fs.GetStringSlice(f.Name); err == nil {
			return v
		}
		return strings.Split(strings.Trim(raw, "[]"), ",")
	}
	return raw
}

func (l *Loader) settings(v *viper.Viper) map[string]any {
	out := make(map[string]any)
	for _, key := range v.AllKeys() {
		mapst.Set(out, key, v.Get(key))
	}
	return out
}

// WriteFile persists the repository as YAML at path. Parent directories are
// created; the file is written with 0600 since it may contain secrets.
func WriteFile(path string, repo *Repository) error {
	data, err := yaml.Marshal(repo.All())
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	return os.WriteFile(path, data, 0o600)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
