// Package common contains shared constants and sentinel errors used across
// the facultyreview server and client.
package common

import "time"

// TokenCookieName is the cookie that carries the session token.
const TokenCookieName = "token"

// AuthorizationHeaderName carries "Bearer <token>" for clients that refuse
// cross-site cookies.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "

// DefaultReviewerImage is stored when a review is submitted without an image.
const DefaultReviewerImage = "https://randomuser.me/api/portraits/men/1.jpg"

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Default lifetimes.
const (
	DefaultSessionTTL = 7 * 24 * time.Hour
	DefaultOTPTTL     = 10 * time.Minute
)
