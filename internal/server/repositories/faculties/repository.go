// Package faculties persists faculty documents together with their embedded
// reviews.
package faculties

import (
	"context"

	"github.com/dmitrijs2005/facultyreview/internal/server/models"
)

// Filter narrows Find. Empty fields do not filter. Name and Department are
// case-insensitive literal substrings; ID is an exact match.
type Filter struct {
	ID         string
	Name       string
	Department string
}

type Repository interface {
	Find(ctx context.Context, filter Filter) ([]models.Faculty, error)

	// GetByID returns common.ErrorNotFound for unknown or malformed ids.
	GetByID(ctx context.Context, id string) (*models.Faculty, error)

	// UpdateReviews writes f.Reviews if the stored version still equals
	// f.Version, then bumps f.Version. A stale version yields
	// common.ErrVersionConflict.
	UpdateReviews(ctx context.Context, f *models.Faculty) error

	// Insert stores a new faculty and fills in its id.
	Insert(ctx context.Context, f *models.Faculty) error

	Count(ctx context.Context) (int64, error)
}
