// Package repository provides data access layer implementations for the
// betting engine stores: a PostgreSQL-backed layer for production and an
// in-memory layer for tests and pure simulation runs.
package repository

import "errors"

// Common errors for repository operations.
var (
	ErrSchemeNotFound = errors.New("scheme not found")
	ErrOrderNotFound  = errors.New("order not found")
)
