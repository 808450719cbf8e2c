package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// CreateAssignment records that the user is working on the datum drawn from
// the queue. userID zero records an anonymous assignment. A datum may have at
// most one active assignment; a second attempt fails with ErrAlreadyAssigned.
func (s *Store) CreateAssignment(ctx context.Context, dataID, userID, queueID int64) (*Assignment, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO assigned_data (data_id, user_id, queue_id, assigned_at) VALUES (?, ?, ?, ?)`,
		dataID, nullableID(userID), nullableID(queueID), now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("data %d: %w", dataID, ErrAlreadyAssigned)
		}
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetAssignment(ctx, id)
}

// GetAssignment fetches an assignment by identifier.
func (s *Store) GetAssignment(ctx context.Context, id int64) (*Assignment, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+assignmentColumns+` FROM assigned_data WHERE id = ?`, id)
	assignment, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assignment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return assignment, nil
}

// AssignmentsForData returns the datum's active assignments. The unique
// constraint on data_id keeps this at zero or one row; the slice form lets
// callers assert that.
func (s *Store) AssignmentsForData(ctx context.Context, dataID int64) ([]*Assignment, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+assignmentColumns+` FROM assigned_data WHERE data_id = ? ORDER BY id`, dataID)
	if err != nil {
		return nil, fmt.Errorf("assignments for data: %w", err)
	}
	defer rows.Close()

	var out []*Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, assignment)
	}
	return out, rows.Err()
}

// ReleaseAssignment deletes the datum's active assignment without a label,
// making it eligible for filling again.
func (s *Store) ReleaseAssignment(ctx context.Context, dataID int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM assigned_data WHERE data_id = ?`, dataID)
	if err != nil {
		return fmt.Errorf("release assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("assignment for data %d: %w", dataID, ErrNotFound)
	}
	return nil
}

// RecordLabel stores the user's label for the datum and resolves its active
// assignment in the same transaction.
func (s *Store) RecordLabel(ctx context.Context, dataID, userID int64, label string) (*Label, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, errors.New("label is required")
	}
	if userID == 0 {
		return nil, errors.New("labeling requires a user")
	}
	ctx = ensureContext(ctx)
	result := &Label{DataID: dataID, UserID: userID, Label: label}
	err := s.withTx(ctx, func(tx txExecer) error {
		created := now()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO labels (data_id, user_id, label, created_at) VALUES (?, ?, ?, ?)`,
			dataID, userID, label, created,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("data %d user %d: %w", dataID, userID, ErrAlreadyLabeled)
			}
			return fmt.Errorf("insert label: %w", err)
		}
		if result.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		result.CreatedAt, _ = parseTimeString(created)
		if _, err := tx.ExecContext(ctx, `DELETE FROM assigned_data WHERE data_id = ?`, dataID); err != nil {
			return fmt.Errorf("resolve assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LabelCount returns the number of labels recorded for the datum.
func (s *Store) LabelCount(ctx context.Context, dataID int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM labels WHERE data_id = ?`, dataID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count labels: %w", err)
	}
	return count, nil
}
