// Package users stores verified accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/facultyreview/internal/server/models"
)

// Repository is the credential store. Emails are unique; Create reports a
// duplicate as common.ErrorConflict and lookups report a miss as
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
