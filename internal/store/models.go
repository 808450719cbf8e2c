package store

import "time"

// Project owns a collection of data and queues.
type Project struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// User is a labeler. Zero is never a valid user id; APIs use it to mean
// "no user".
type User struct {
	ID        int64
	Username  string
	Email     string
	CreatedAt time.Time
}

// Data is a unit of work belonging to exactly one project.
type Data struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Queue is a capacity-bounded pool of data. UserID is zero for shared
// project queues.
type Queue struct {
	ID        int64
	ProjectID int64
	UserID    int64
	Length    int
	CreatedAt time.Time
}

// Shared reports whether the queue is a project-wide pool.
func (q *Queue) Shared() bool {
	return q != nil && q.UserID == 0
}

// QueueStat summarizes a queue's durable state.
type QueueStat struct {
	Queue    Queue
	Members  int
	Assigned int
}

// Free returns the number of membership slots the queue can still take.
func (s QueueStat) Free() int {
	if free := s.Queue.Length - s.Members; free > 0 {
		return free
	}
	return 0
}

// Assignment records that a user is currently working on a datum drawn from a
// queue. UserID is zero for anonymous callers; QueueID is zero once the source
// queue has been deleted.
type Assignment struct {
	ID         int64
	DataID     int64
	UserID     int64
	QueueID    int64
	AssignedAt time.Time
}

// Label is a user's annotation of a datum.
type Label struct {
	ID        int64
	DataID    int64
	UserID    int64
	Label     string
	CreatedAt time.Time
}

// Membership links one queue to one datum.
type Membership struct {
	QueueID int64
	DataID  int64
}
