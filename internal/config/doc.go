// Package config loads, normalizes, and validates ChronoClean configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files as well as the YAML files written by earlier
// ChronoClean releases. The Config type centralizes the knobs that shape
// destination paths, collision handling, and the state directory where run
// records and verification reports live.
//
// Always obtain settings through this package so downstream code receives
// absolute state paths and values that already passed validation.
package config
