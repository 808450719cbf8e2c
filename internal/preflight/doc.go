// Package preflight provides readiness checks for the paths and stores that
// labelq depends on.
//
// The CLI "labelq health" command runs RunAll and prints each Result. The
// checks cover directory access, free disk space next to the database,
// database and fast queue reachability, and drift between the durable and
// fast halves of every queue. Drift is reported, never repaired here; a fast
// queue rebuild repairs it.
package preflight
