// Package config loads, normalizes, and validates cardvault configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CARDVAULT_PRIMARY_DIR. The Config type centralizes every knob the import
// pipeline and CLI need so archive roots, media mount points, and the session
// break threshold are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
