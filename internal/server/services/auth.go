// Package services contains server-side business logic. This file implements
// AuthService: email OTP signup, direct signup, password sign-in and token
// verification.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/facultyreview/internal/common"
	"github.com/dmitrijs2005/facultyreview/internal/cryptox"
	"github.com/dmitrijs2005/facultyreview/internal/logging"
	"github.com/dmitrijs2005/facultyreview/internal/server/auth"
	"github.com/dmitrijs2005/facultyreview/internal/server/config"
	"github.com/dmitrijs2005/facultyreview/internal/server/mailer"
	"github.com/dmitrijs2005/facultyreview/internal/server/models"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/repomanager"
)

const otpSubject = "Your OTP Code"

// Notifier delivers a message to a user.
type Notifier interface {
	Send(ctx context.Context, email mailer.Email) error
}

// seams for tests
var (
	hashPassword = cryptox.HashPassword
	generateOTP  = cryptox.GenerateOTP
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// ErrPasswordTooLong is a validation error for passwords bcrypt cannot hash.
var ErrPasswordTooLong = fmt.Errorf("%w: password must be at most %d bytes", common.ErrorValidation, maxPasswordBytes)

type signupInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,max=72"`
}

// check runs before any lookup or hashing.
func (in signupInput) check() error {
	if len(in.Password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return validateStruct(in)
}

// SignInResult is returned on a successful sign-in.
type SignInResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	logger      logging.Logger
	jwtSecret   []byte
	sessionTTL  time.Duration
	otpTTL      time.Duration
	bcryptCost  int
	now         func() time.Time
}

func NewAuthService(m repomanager.RepositoryManager, n Notifier, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		repomanager: m,
		notifier:    n,
		logger:      logger.With("module", "auth"),
		jwtSecret:   []byte(cfg.SecretKey),
		sessionTTL:  cfg.SessionTTL,
		otpTTL:      cfg.OTPTTL,
		bcryptCost:  cfg.BcryptCost,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestOTP parks a pending account and emails a one-time code for it.
// A delivery failure is reported as common.ErrorInternal; the stored code
// stays valid so a retry of the email is not required to verify.
func (s *AuthService) RequestOTP(ctx context.Context, name, email, password string) error {
	in := signupInput{Name: strings.TrimSpace(name), Email: normalizeEmail(email), Password: password}
	if err := in.check(); err != nil {
		return err
	}

	if err := s.ensureEmailFree(ctx, in.Email); err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		s.logger.Error(ctx, "otp generation failed", "error", err)
		return common.ErrorInternal
	}

	hash, err := hashPassword(in.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return common.ErrorInternal
	}

	now := s.now()
	otp := &models.OTP{
		Email:       in.Email,
		Code:        code,
		PendingUser: &models.PendingUser{Name: in.Name, Email: in.Email, PasswordHash: hash},
		ExpiresAt:   now.Add(s.otpTTL),
		CreatedAt:   now,
	}
	if err := s.repomanager.OTPs().Upsert(ctx, otp); err != nil {
		s.logger.Error(ctx, "otp store failed", "error", err)
		return common.ErrorInternal
	}

	msg := mailer.Email{
		To:      []string{in.Email},
		Subject: otpSubject,
		Body:    fmt.Sprintf("Your OTP code is: %s. It will expire in %d minutes.", code, int(s.otpTTL.Minutes())),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error(ctx, "otp email failed", "email", in.Email, "error", err)
		return fmt.Errorf("%w: sending otp email", common.ErrorInternal)
	}

	s.logger.Info(ctx, "otp sent", "email", in.Email)
	return nil
}

// VerifyOTP consumes the code for email and creates the pending account.
// No session is issued; the caller signs in afterwards.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*models.User, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and otp are required", common.ErrorValidation)
	}

	otp, err := s.repomanager.OTPs().Find(ctx, email, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrOTPInvalid
		}
		s.logger.Error(ctx, "otp lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if otp.Expired(s.now()) {
		if err := s.repomanager.OTPs().Delete(ctx, email); err != nil {
			s.logger.Warn(ctx, "expired otp cleanup failed", "email", email, "error", err)
		}
		return nil, common.ErrOTPExpired
	}

	var user *models.User
	err = s.repomanager.InTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if p := otp.PendingUser; p != nil {
			created, err := repos.Users().Create(ctx, &models.User{
				Name:         p.Name,
				Email:        email,
				PasswordHash: p.PasswordHash,
			})
			if err != nil {
				return err
			}
			user = created
		}
		return repos.OTPs().Delete(ctx, email)
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		s.logger.Error(ctx, "otp verification failed", "error", err)
		return nil, common.ErrorInternal
	}

	if user != nil {
		s.logger.Info(ctx, "account created", "user_id", user.ID)
	}
	return user, nil
}

// SignUp creates an account immediately, without email verification.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*models.User, error) {
	in := signupInput{Name: strings.TrimSpace(name), Email: normalizeEmail(email), Password: password}
	if err := in.check(); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	u, err := s.repomanager.Users().Create(ctx, &models.User{Name: in.Name, Email: in.Email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		s.logger.Error(ctx, "user create failed", "error", err)
		return nil, common.ErrorInternal
	}
	return u, nil
}

// SignIn checks credentials and issues a session token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.sessionTTL)
	if err != nil {
		s.logger.Error(ctx, "token generation failed", "error", err)
		return nil, common.ErrorInternal
	}

	return &SignInResult{User: user, Token: token, ExpiresAt: s.now().Add(s.sessionTTL)}, nil
}

// SignOut is stateless: tokens stay valid until they expire.
func (s *AuthService) SignOut(ctx context.Context, userID string) {
	s.logger.Debug(ctx, "signed out", "user_id", userID)
}

// Me returns the profile of an authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repomanager.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	return u, nil
}

// VerifyToken returns the user id carried by a session token.
func (s *AuthService) VerifyToken(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repomanager.Users().GetByEmail(ctx, email)
	switch {
	case err == nil:
		return fmt.Errorf("%w: email is already registered", common.ErrorConflict)
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return common.ErrorInternal
	}
}
