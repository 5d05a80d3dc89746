// Package repomanager vends repository implementations for the configured
// storage backend and owns the underlying connection.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/faculties"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/otps"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/users"
)

// Repositories groups the repositories bound to one handle, either the pool
// or an open transaction.
type Repositories interface {
	Users() users.Repository
	OTPs() otps.Repository
	Faculties() faculties.Repository
}

type RepositoryManager interface {
	Repositories

	// NewID returns a fresh identifier in the backend's native format.
	NewID() string

	// RunMigrations prepares the schema (tables or indexes).
	RunMigrations(ctx context.Context) error

	// InTx runs fn with repositories sharing one transaction when the
	// backend supports it. fn's error aborts the transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	Close(ctx context.Context) error
}
