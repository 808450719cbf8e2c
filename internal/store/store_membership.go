package store

import (
	"context"
	"fmt"
	"iter"
)

const eligibleDataQuery = `SELECT ` + dataColumns + ` FROM data d
        WHERE d.project_id = ?
          AND NOT EXISTS (SELECT 1 FROM labels l WHERE l.data_id = d.id)
          AND NOT EXISTS (SELECT 1 FROM assigned_data a WHERE a.data_id = d.id)
          AND NOT EXISTS (SELECT 1 FROM queue_data qd WHERE qd.data_id = d.id)
        ORDER BY d.id`

// claimMembershipQuery inserts the membership only when the datum is still
// eligible and belongs to the queue's project.
const claimMembershipQuery = `INSERT INTO queue_data (queue_id, data_id, created_at)
        SELECT q.id, d.id, ?
        FROM queues q JOIN data d ON d.project_id = q.project_id
        WHERE q.id = ? AND d.id = ?
          AND NOT EXISTS (SELECT 1 FROM labels l WHERE l.data_id = d.id)
          AND NOT EXISTS (SELECT 1 FROM assigned_data a WHERE a.data_id = d.id)
          AND NOT EXISTS (SELECT 1 FROM queue_data qd WHERE qd.data_id = d.id)`

// EligibleData streams the project's data that have no label, no active
// assignment and no queue membership, ordered by id. The query runs each time
// the sequence is ranged over and the rows are closed when the loop ends. A
// query or scan failure is yielded once as the final element.
func (s *Store) EligibleData(ctx context.Context, projectID int64) iter.Seq2[Data, error] {
	return func(yield func(Data, error) bool) {
		ctx := ensureContext(ctx)
		rows, err := s.db.QueryContext(ctx, eligibleDataQuery, projectID)
		if err != nil {
			yield(Data{}, fmt.Errorf("query eligible data: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			d, err := scanData(rows)
			if err != nil {
				yield(Data{}, fmt.Errorf("scan eligible data: %w", err))
				return
			}
			if !yield(d, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Data{}, fmt.Errorf("iterate eligible data: %w", err))
		}
	}
}

// CountEligible returns the number of data EligibleData would yield.
func (s *Store) CountEligible(ctx context.Context, projectID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM (`+eligibleDataQuery+`)`, projectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count eligible data: %w", err)
	}
	return count, nil
}

// CreateMemberships adds the data to the queue in one transaction. Pairs that
// already exist are ignored. The returned ids are the data actually added.
func (s *Store) CreateMemberships(ctx context.Context, queueID int64, dataIDs []int64) ([]int64, error) {
	return s.insertMemberships(ctx, queueID, dataIDs,
		`INSERT OR IGNORE INTO queue_data (queue_id, data_id, created_at) VALUES (?, ?, ?)`,
		func(created string, dataID int64) []any { return []any{queueID, dataID, created} },
	)
}

// ClaimMemberships adds the data to the queue only if each datum is still
// eligible when its row is written. Data that were labeled, assigned or queued
// since they were read are skipped. The returned ids are the data claimed.
func (s *Store) ClaimMemberships(ctx context.Context, queueID int64, dataIDs []int64) ([]int64, error) {
	return s.insertMemberships(ctx, queueID, dataIDs, claimMembershipQuery,
		func(created string, dataID int64) []any { return []any{created, queueID, dataID} },
	)
}

func (s *Store) insertMemberships(ctx context.Context, queueID int64, dataIDs []int64, query string, args func(string, int64) []any) ([]int64, error) {
	if len(dataIDs) == 0 {
		return nil, nil
	}
	ctx = ensureContext(ctx)
	var inserted []int64
	err := s.withTx(ctx, func(tx txExecer) error {
		inserted = inserted[:0]
		created := now()
		for _, dataID := range dataIDs {
			res, err := tx.ExecContext(ctx, query, args(created, dataID)...)
			if err != nil {
				return fmt.Errorf("insert membership %d/%d: %w", queueID, dataID, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if affected > 0 {
				inserted = append(inserted, dataID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// DeleteMembership removes the (queue, data) pair and returns the number of
// rows removed. Anything other than one indicates the durable store had
// drifted from the fast queue.
func (s *Store) DeleteMembership(ctx context.Context, queueID, dataID int64) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_data WHERE queue_id = ? AND data_id = ?`, queueID, dataID)
	if err != nil {
		return 0, fmt.Errorf("delete membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// CountMembership returns the number of data currently in the queue.
func (s *Store) CountMembership(ctx context.Context, queueID int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM queue_data WHERE queue_id = ?`, queueID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count membership: %w", err)
	}
	return count, nil
}

// QueueMembers returns the queue's data ids in insertion order.
func (s *Store) QueueMembers(ctx context.Context, queueID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT data_id FROM queue_data WHERE queue_id = ? ORDER BY id`, queueID)
	if err != nil {
		return nil, fmt.Errorf("queue members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan queue member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsEmptyFor reports whether the durable store holds no queued work for the
// requester: the user's personal queues when userID is non-zero, then the
// project's shared queues. The fast queue decides emptiness for assignment;
// this view is for reporting.
func (s *Store) IsEmptyFor(ctx context.Context, projectID, userID int64) (bool, error) {
	ctx = ensureContext(ctx)
	if userID != 0 {
		count, err := s.countQueued(ctx, `q.user_id = ?`, projectID, userID)
		if err != nil {
			return false, err
		}
		if count > 0 {
			return false, nil
		}
	}
	count, err := s.countQueued(ctx, `q.user_id IS NULL`, projectID)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (s *Store) countQueued(ctx context.Context, ownerClause string, projectID int64, args ...any) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM queue_data qd JOIN queues q ON q.id = qd.queue_id
         WHERE q.project_id = ? AND `+ownerClause,
		append([]any{projectID}, args...)...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count queued: %w", err)
	}
	return count, nil
}

const staleMembershipClause = `
        EXISTS (SELECT 1 FROM assigned_data a WHERE a.data_id = queue_data.data_id)
        OR EXISTS (SELECT 1 FROM labels l WHERE l.data_id = queue_data.data_id)`

// StaleMemberships lists membership rows whose datum already has an active
// assignment or a label. These are left behind when a process stops between
// popping a datum and reconciling the durable store.
func (s *Store) StaleMemberships(ctx context.Context) ([]Membership, error) {
	return staleMemberships(ensureContext(ctx), s.db)
}

// PruneStaleMemberships deletes the rows StaleMemberships reports and returns
// them. Queues regain the capacity those rows held.
func (s *Store) PruneStaleMemberships(ctx context.Context) ([]Membership, error) {
	ctx = ensureContext(ctx)
	var pruned []Membership
	err := s.withTx(ctx, func(tx txExecer) error {
		stale, err := staleMemberships(ctx, tx)
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM queue_data WHERE`+staleMembershipClause); err != nil {
			return fmt.Errorf("prune stale memberships: %w", err)
		}
		pruned = stale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pruned, nil
}

func staleMemberships(ctx context.Context, q txExecer) ([]Membership, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT queue_id, data_id FROM queue_data WHERE`+staleMembershipClause+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("stale memberships: %w", err)
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.QueueID, &m.DataID); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
