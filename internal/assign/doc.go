// Package assign hands one datum at a time to labelers.
//
// Coordinator.Assign picks the requester's first non-empty personal queue, or
// failing that the first non-empty shared queue of the project, pops one id
// from the fast queue and then reconciles the durable store: the membership
// row is deleted and an assignment recorded. The pop is the only atomic step.
// A queue that empties between selection and pop yields no work for that
// call; the caller may ask again.
package assign
