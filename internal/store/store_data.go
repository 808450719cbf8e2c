package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText trims surrounding whitespace and converts text to Unicode
// NFC so visually identical items compare equal.
func NormalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// AddData bulk-inserts data into a project in one transaction. Entries that
// are blank after normalization are skipped. The ids of the inserted rows are
// returned in input order.
func (s *Store) AddData(ctx context.Context, projectID int64, texts []string) ([]int64, error) {
	ctx = ensureContext(ctx)
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	var ids []int64
	err := s.withTx(ctx, func(tx txExecer) error {
		ids = ids[:0]
		created := now()
		for _, text := range texts {
			text = NormalizeText(text)
			if text == "" {
				continue
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO data (project_id, text, created_at) VALUES (?, ?, ?)`,
				projectID, text, created,
			)
			if err != nil {
				return fmt.Errorf("insert data: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetData fetches a datum by identifier.
func (s *Store) GetData(ctx context.Context, id int64) (*Data, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+dataColumns+` FROM data WHERE id = ?`, id)
	d, err := scanData(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("data %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get data: %w", err)
	}
	return &d, nil
}

// DataByIDs fetches the data with the given ids, ordered by id. Missing ids
// are skipped.
func (s *Store) DataByIDs(ctx context.Context, ids []int64) ([]Data, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+dataColumns+` FROM data WHERE id IN (`+makePlaceholders(len(ids))+`) ORDER BY id`,
		int64Args(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("data by ids: %w", err)
	}
	defer rows.Close()

	var out []Data
	for rows.Next() {
		d, err := scanData(rows)
		if err != nil {
			return nil, fmt.Errorf("scan data: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountData returns the number of data in a project.
func (s *Store) CountData(ctx context.Context, projectID int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM data WHERE project_id = ?`, projectID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count data: %w", err)
	}
	return count, nil
}
