package store

import (
	"errors"
	"fmt"

	"labelq/internal/services"
)

var (
	// ErrNotFound reports that the requested record does not exist.
	ErrNotFound = fmt.Errorf("record %w", services.ErrNotFound)
	// ErrAlreadyAssigned reports that the datum already has an active assignment.
	ErrAlreadyAssigned = errors.New("data already assigned")
	// ErrAlreadyLabeled reports that the user has already labeled the datum.
	ErrAlreadyLabeled = errors.New("data already labeled by user")
	// ErrDuplicate reports a unique name collision for projects or users.
	ErrDuplicate = errors.New("record already exists")
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)
