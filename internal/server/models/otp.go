package models

import "time"

// PendingUser is the account payload parked next to an OTP until the code
// is verified.
type PendingUser struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// OTP is a ledger entry. There is at most one per email.
type OTP struct {
	Email       string
	Code        string
	PendingUser *PendingUser
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

func (o *OTP) Expired(now time.Time) bool {
	return o.ExpiresAt.Before(now)
}
