package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// CreateProject inserts a project with a unique name.
func (s *Store) CreateProject(ctx context.Context, name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("project name is required")
	}
	res, err := s.execWithRetry(ctx, `INSERT INTO projects (name, created_at) VALUES (?, ?)`, name, now())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("project %q: %w", name, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetProject(ctx, id)
}

// GetProject fetches a project by identifier.
func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// FindProjectByName fetches a project by its unique name.
func (s *Store) FindProjectByName(ctx context.Context, name string) (*Project, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+projectColumns+` FROM projects WHERE name = ?`, strings.TrimSpace(name))
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	return project, nil
}

// ListProjects returns every project ordered by id.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// CreateUser inserts a labeler with a unique username.
func (s *Store) CreateUser(ctx context.Context, username, email string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO users (username, email, created_at) VALUES (?, ?, ?)`,
		username, nullableString(strings.TrimSpace(email)), now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %q: %w", username, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by identifier.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// FindUserByName fetches a user by username.
func (s *Store) FindUserByName(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+userColumns+` FROM users WHERE username = ?`, strings.TrimSpace(username))
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
