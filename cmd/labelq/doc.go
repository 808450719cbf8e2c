// Command labelq is the operator CLI for labelq's queue fill and assignment
// subsystem.
//
// It seeds projects, users and data, creates and fills queues, hands out work
// with "assign", records labels, rebuilds fast queues from the database and
// runs a periodic refill loop that can expose Prometheus metrics. Every
// command reads the TOML configuration selected by --config, falling back to
// ~/.config/labelq/config.toml and then ./labelq.toml.
//
// With the memory fast queue backend each invocation rebuilds the in-process
// queues from durable membership before running.
package main
