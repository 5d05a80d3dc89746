package otps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/facultyreview/internal/common"
	"github.com/dmitrijs2005/facultyreview/internal/dbx"
	"github.com/dmitrijs2005/facultyreview/internal/server/models"
)

// PostgresRepository implements the ledger over dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, otp *models.OTP) error {
	query := `
		INSERT INTO otps (email, code, pending_name, pending_email, pending_password_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email)
		DO UPDATE SET
			code = EXCLUDED.code,
			pending_name = EXCLUDED.pending_name,
			pending_email = EXCLUDED.pending_email,
			pending_password_hash = EXCLUDED.pending_password_hash,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`

	var name, email, hash sql.NullString
	if p := otp.PendingUser; p != nil {
		name = sql.NullString{String: p.Name, Valid: true}
		email = sql.NullString{String: p.Email, Valid: true}
		hash = sql.NullString{String: p.PasswordHash, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query,
		otp.Email, otp.Code, name, email, hash, otp.ExpiresAt, otp.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, email, code string) (*models.OTP, error) {
	query := `
		SELECT email, code, pending_name, pending_email, pending_password_hash, expires_at, created_at
		FROM otps
		WHERE email = $1 AND code = $2
	`

	otp := &models.OTP{}
	var name, pendingEmail, hash sql.NullString
	err := r.db.QueryRowContext(ctx, query, email, code).
		Scan(&otp.Email, &otp.Code, &name, &pendingEmail, &hash, &otp.ExpiresAt, &otp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if hash.Valid {
		otp.PendingUser = &models.PendingUser{
			Name:         name.String,
			Email:        pendingEmail.String,
			PasswordHash: hash.String,
		}
	}
	return otp, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, email string) error {
	query := `
		DELETE FROM otps
		WHERE email = $1
	`
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
