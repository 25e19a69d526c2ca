// Package config loads, normalizes, and validates SlateLink configuration.
//
// It supplies repository defaults, expands tilde paths, reads TOML files, and
// validates every knob the CLI and resolution engine need: join-key priority,
// fuzzy acceptance constants, overlay layout policy, the optional export
// journal, and log output. Always obtain settings through this package so
// downstream code receives sanitized paths and canonical log formats.
package config
