// Package otps declares the OTP ledger: pending one-time codes keyed by
// email, each optionally carrying the account waiting to be created.
package otps

import (
	"context"

	"github.com/dmitrijs2005/facultyreview/internal/server/models"
)

// Repository keeps at most one OTP per email.
type Repository interface {
	// Upsert stores otp, atomically replacing any earlier entry for the same
	// email.
	Upsert(ctx context.Context, otp *models.OTP) error

	// Find returns the entry matching both email and code, or
	// common.ErrorNotFound.
	Find(ctx context.Context, email, code string) (*models.OTP, error)

	// Delete removes the entry for email. A missing entry is not an error.
	Delete(ctx context.Context, email string) error
}
