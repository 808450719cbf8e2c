package store

import (
	"database/sql"
	"errors"
	"time"
)

const (
	projectColumns    = "id, name, created_at"
	userColumns       = "id, username, email, created_at"
	dataColumns       = "id, project_id, text, created_at"
	queueColumns      = "id, project_id, user_id, length, created_at"
	assignmentColumns = "id, data_id, user_id, queue_id, assigned_at"
)

type scanner interface{ Scan(dest ...any) error }

func scanProject(row scanner) (*Project, error) {
	var (
		p          Project
		createdRaw sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &createdRaw); err != nil {
		return nil, err
	}
	p.CreatedAt = parseTimeOrZero(createdRaw)
	return &p, nil
}

func scanUser(row scanner) (*User, error) {
	var (
		u          User
		email      sql.NullString
		createdRaw sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &email, &createdRaw); err != nil {
		return nil, err
	}
	u.Email = email.String
	u.CreatedAt = parseTimeOrZero(createdRaw)
	return &u, nil
}

func scanData(row scanner) (Data, error) {
	var (
		d          Data
		createdRaw sql.NullString
	)
	if err := row.Scan(&d.ID, &d.ProjectID, &d.Text, &createdRaw); err != nil {
		return Data{}, err
	}
	d.CreatedAt = parseTimeOrZero(createdRaw)
	return d, nil
}

func scanQueue(row scanner) (*Queue, error) {
	var (
		q          Queue
		userID     sql.NullInt64
		createdRaw sql.NullString
	)
	if err := row.Scan(&q.ID, &q.ProjectID, &userID, &q.Length, &createdRaw); err != nil {
		return nil, err
	}
	q.UserID = userID.Int64
	q.CreatedAt = parseTimeOrZero(createdRaw)
	return &q, nil
}

func scanAssignment(row scanner) (*Assignment, error) {
	var (
		a           Assignment
		userID      sql.NullInt64
		queueID     sql.NullInt64
		assignedRaw sql.NullString
	)
	if err := row.Scan(&a.ID, &a.DataID, &userID, &queueID, &assignedRaw); err != nil {
		return nil, err
	}
	a.UserID = userID.Int64
	a.QueueID = queueID.Int64
	a.AssignedAt = parseTimeOrZero(assignedRaw)
	return &a, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableID(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func now() string {
	return timestamp(time.Now())
}

func parseTimeOrZero(value sql.NullString) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
