// Package services defines shared utilities consumed by the fill and
// assignment paths and by the backing store integrations.
//
// Key responsibilities:
//   - Context helpers that stamp project, queue and correlation identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (store unavailable, validation, not found, integrity) so callers can
//     react with errors.Is instead of string matching.
//
// Use these helpers when wiring new store or queue logic so operational
// behaviour (error classification, observability) stays uniform.
package services
