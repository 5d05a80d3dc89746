// Package models defines the server-side records shared by repositories,
// services and the HTTP layer.
package models

import "time"

// User is a verified account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
