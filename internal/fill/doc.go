// Package fill tops queues up to their target length.
//
// A fill reservoir-samples the project's eligible data (no label, no active
// assignment, no queue membership), records the chosen data as durable
// membership and then pushes exactly the recorded ids onto the fast queue.
// When fewer eligible data exist than the queue has room for, the whole
// eligible population is taken and the queue stays under capacity.
//
// Two claim modes exist. In baseline mode eligibility is read without a lock,
// so fills running at the same time over one project can select the same
// datum, and concurrent fills of one queue can overshoot its length. In
// exclusive mode fills are serialized across processes with an advisory file
// lock and every membership row re-checks eligibility as it is written.
//
// Rebuild restores the fast queue from durable membership, which is how the
// memory backend is repopulated on process start.
package fill
