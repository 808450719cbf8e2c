package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Owner filters for ListQueues.
const (
	// OwnerAny selects every queue of a project.
	OwnerAny int64 = -1
	// OwnerShared selects queues without an owner.
	OwnerShared int64 = 0
)

// CreateQueue inserts an empty queue. userID zero creates a shared queue.
func (s *Store) CreateQueue(ctx context.Context, projectID, userID int64, length int) (*Queue, error) {
	if length < 0 {
		return nil, fmt.Errorf("queue length must not be negative: %d", length)
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO queues (project_id, user_id, length, created_at) VALUES (?, ?, ?, ?)`,
		projectID, nullableID(userID), length, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert queue: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetQueue(ctx, id)
}

// GetQueue fetches a queue by identifier.
func (s *Store) GetQueue(ctx context.Context, id int64) (*Queue, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+queueColumns+` FROM queues WHERE id = ?`, id)
	queue, err := scanQueue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("queue %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get queue: %w", err)
	}
	return queue, nil
}

// ListQueues returns a project's queues ordered by id. owner is a user id,
// OwnerShared for queues without an owner, or OwnerAny for all queues.
func (s *Store) ListQueues(ctx context.Context, projectID, owner int64) ([]*Queue, error) {
	var (
		query = `SELECT ` + queueColumns + ` FROM queues WHERE project_id = ?`
		args  = []any{projectID}
	)
	switch {
	case owner == OwnerAny:
	case owner == OwnerShared:
		query += ` AND user_id IS NULL`
	default:
		query += ` AND user_id = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY id`
	return s.queryQueues(ctx, query, args...)
}

// AllQueues returns every queue in the database ordered by id.
func (s *Store) AllQueues(ctx context.Context) ([]*Queue, error) {
	return s.queryQueues(ctx, `SELECT `+queueColumns+` FROM queues ORDER BY id`)
}

func (s *Store) queryQueues(ctx context.Context, query string, args ...any) ([]*Queue, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	defer rows.Close()

	var queues []*Queue
	for rows.Next() {
		queue, err := scanQueue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue: %w", err)
		}
		queues = append(queues, queue)
	}
	return queues, rows.Err()
}

// DeleteQueue removes a queue and its membership. Assignments drawn from the
// queue are kept with their queue reference cleared.
func (s *Store) DeleteQueue(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM queues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete queue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("queue %d: %w", id, ErrNotFound)
	}
	return nil
}

// QueueStats returns membership and assignment counts for every queue of a
// project, ordered by queue id.
func (s *Store) QueueStats(ctx context.Context, projectID int64) ([]QueueStat, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `
        SELECT q.id, q.project_id, q.user_id, q.length, q.created_at,
               (SELECT COUNT(1) FROM queue_data qd WHERE qd.queue_id = q.id),
               (SELECT COUNT(1) FROM assigned_data a WHERE a.queue_id = q.id)
        FROM queues q
        WHERE q.project_id = ?
        ORDER BY q.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	var stats []QueueStat
	for rows.Next() {
		var (
			stat       QueueStat
			userID     sql.NullInt64
			createdRaw sql.NullString
		)
		if err := rows.Scan(
			&stat.Queue.ID,
			&stat.Queue.ProjectID,
			&userID,
			&stat.Queue.Length,
			&createdRaw,
			&stat.Members,
			&stat.Assigned,
		); err != nil {
			return nil, fmt.Errorf("scan queue stats: %w", err)
		}
		stat.Queue.UserID = userID.Int64
		stat.Queue.CreatedAt = parseTimeOrZero(createdRaw)
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
