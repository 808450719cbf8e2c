// Package config loads, normalizes, and validates labelq configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LABELQ_ETCD_ENDPOINTS. The Config type centralizes every knob the library
// and CLI need: where the SQLite database lives, which fast queue backend
// mirrors queue membership, how fills claim eligible data, and how logs are
// shaped.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
