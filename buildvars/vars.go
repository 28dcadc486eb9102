// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars

import "runtime/debug"

// ModulePath is the import path of this module.
const ModulePath = "github.com/toeirei/bedrock"

// Set at link time via `-ldflags -X github.com/toeirei/bedrock/buildvars.Version=...`.
// They are left at their defaults for local or development builds.
var (
	Version = "dev"
	Commit  = "dev"
	Date    = ""
)

// VersionOrDefault returns `Version` if set, otherwise returns the provided default.
func VersionOrDefault(def string) string {
	if len(Version) > 0 && Version != "dev" {
		return Version
	}
	return def
}

// Resolve combines the link-time variables with the module build info.
// A nil info reads the running binary's build info.
func Resolve(info *debug.BuildInfo) (version, commit, date string) {
	version, commit, date = Version, Commit, Date

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}
	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		// When built as a dependency, Main is the host application.
		if version == "dev" || version == "(devel)" {
			for _, dep := range info.Deps {
				if dep.Path == ModulePath && dep.Version != "" {
					version = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					commit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					date = s.Value
				}
			}
		}
	}

	if version == "dev" && commit != "dev" && commit != "" {
		version = commit
	}
	return version, commit, date
}

// String formats the resolved build as "v1.2.3 (abc123) built: <date>".
func String() string {
	v, c, d := Resolve(nil)
	out := v
	if c != "" && c != "dev" && c != v {
		out += " (" + c + ")"
	}
	if d != "" {
		out += " built: " + d
	}
	return out
}
