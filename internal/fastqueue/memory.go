package fastqueue

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Queue. A single mutex guards every list, so each
// operation is one critical section.
type Memory struct {
	mu     sync.Mutex
	queues map[int64][]int64
}

// NewMemory returns an empty in-process queue.
func NewMemory() *Memory {
	return &Memory{queues: make(map[int64][]int64)}
}

// Push appends dataIDs to the queue's list.
func (m *Memory) Push(_ context.Context, queueID int64, dataIDs ...int64) error {
	if len(dataIDs) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[queueID] = append(m.queues[queueID], dataIDs...)
	return nil
}

// PopOne removes and returns the head of the list.
func (m *Memory) PopOne(_ context.Context, queueID int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.queues[queueID]
	if len(list) == 0 {
		return 0, false, nil
	}
	head := list[0]
	if len(list) == 1 {
		delete(m.queues, queueID)
	} else {
		m.queues[queueID] = list[1:]
	}
	return head, true, nil
}

// Len returns the number of entries in the list.
func (m *Memory) Len(_ context.Context, queueID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[queueID]), nil
}

// Members returns a copy of the list in pop order.
func (m *Memory) Members(_ context.Context, queueID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.queues[queueID]), nil
}

// Drop discards the queue's list.
func (m *Memory) Drop(_ context.Context, queueID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queues, queueID)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
