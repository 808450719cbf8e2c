// Package sampling draws uniform random samples from lazily produced
// sequences without materializing them.
//
// Reservoir keeps at most k items in memory regardless of how long the input
// is, which lets the queue filler sample from a database cursor over every
// eligible item in a project. The random source is always passed in so
// callers can seed it for reproducible tests.
package sampling
