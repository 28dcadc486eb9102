// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config provides the configuration repository used by Bedrock
// applications. Values live in a nested tree addressed with dot-notation keys
// ("app.logger.driver"). The package also loads configuration with Viper
// (files, environment, flags), persists it as YAML, caches compiled snapshots
// and watches config files for changes.
package config
