// Package store persists projects, users, data, queues and their membership
// in SQLite.
//
// The store is the durable half of every queue: membership rows say which
// data belong to which queue, while the fast queue (package fastqueue) owns
// pop order and emptiness. Eligibility for filling (no label, no active
// assignment, no membership) is computed here through EligibleData, which
// streams rows lazily so the filler can reservoir-sample a project without
// loading it.
//
// Writes retry on SQLITE_BUSY with a short exponential backoff. Callers treat
// ErrNotFound and ErrAlreadyAssigned as normal outcomes; any other error means
// the database could not serve the request.
package store
