// Package fastqueue provides the ordered, atomically poppable list that
// mirrors each queue's durable membership.
//
// PopOne is the synchronization point of assignment: no two callers ever
// receive the same entry, and an empty result is returned immediately rather
// than waiting for work. Two backends implement Queue. The memory backend
// keeps per-queue slices in process and suits a single CLI or test process.
// The etcd backend stores one key per entry and claims entries with a single
// delete, so any number of processes may pop concurrently.
package fastqueue
