// Package config holds the command line tool's settings.
//
// Settings are resolved in layers, each overriding the previous one:
//
//  1. built-in defaults
//  2. a TOML file (by default $XDG_CONFIG_HOME/pathtree/config.toml)
//  3. PATHTREE_* environment variables
//  4. command line flags, applied by the caller
//
// Example file:
//
//	[log]
//	level = "debug"
//	pretty = true
//
//	[watch]
//	debounce = "250ms"
//
//	[listen]
//	patterns = ["users.*", "settings.**"]
//	batched = false
//
//	[output]
//	format = "json"
//	color = "auto"
package config
