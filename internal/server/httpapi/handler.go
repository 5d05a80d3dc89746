package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/facultyreview/internal/common"
	"github.com/dmitrijs2005/facultyreview/internal/logging"
	"github.com/dmitrijs2005/facultyreview/internal/server/models"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/faculties"
	"github.com/dmitrijs2005/facultyreview/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

var errBadBody = fmt.Errorf("%w: malformed request body", common.ErrorValidation)

const msgBadBody = "Invalid request body"

// sendOTPRequest only checks presence; the service normalizes the email
// before validating its format.
type sendOTPRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type verifyOTPRequest struct {
	Email string  `json:"email" validate:"required"`
	OTP   otpCode `json:"otp" validate:"required"`
}

// otpCode accepts the code as a JSON string or a bare number.
type otpCode string

func (c *otpCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = otpCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = otpCode(n.String())
	return nil
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// reviewRequest keeps rating untyped so strings and other non-numbers are
// rejected with the rating message rather than a decode error.
type reviewRequest struct {
	User      string `json:"user"`
	Rating    any    `json:"rating"`
	Comment   string `json:"comment"`
	UserImage string `json:"userImage"`
}

func (rr reviewRequest) input() services.ReviewInput {
	in := services.ReviewInput{User: rr.User, Comment: rr.Comment, UserImage: rr.UserImage}
	if f, ok := rr.Rating.(float64); ok {
		in.Rating = &f
	}
	return in
}

type userResponse struct {
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user"`
}

type signInResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
}

type reviewResponse struct {
	Message string         `json:"message"`
	Review  *models.Review `json:"review"`
}

// decode reads a JSON body into dst and runs its validation tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadBody
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}

// badRequest answers a failed decode: a malformed body gets its own message,
// a missing field gets msg.
func badRequest(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, errBadBody) {
		msg = msgBadBody
	}
	writeMessage(w, http.StatusBadRequest, msg)
}

func (s *HTTPServer) log(r *http.Request) logging.Logger {
	return logging.FromContext(r.Context(), s.logger)
}

func (s *HTTPServer) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL / time.Second),
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: s.cookieSameSite,
	})
}

func (s *HTTPServer) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: s.cookieSameSite,
	})
}

func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(banner))
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

// --- auth ---

func (s *HTTPServer) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, err, "Name, email, and password are required.")
		return
	}

	err := s.auth.RequestOTP(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, s.log(r), err,
			errMessage{common.ErrorConflict, "Email is already registered."},
			errMessage{services.ErrPasswordTooLong, "Password must be at most 72 bytes."},
			errMessage{common.ErrorValidation, "Name, email, and password are required."},
			errMessage{common.ErrorInternal, "Failed to send OTP."},
		)
		return
	}

	writeMessage(w, http.StatusOK, "OTP sent successfully. Please verify to complete registration.")
}

func (s *HTTPServer) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, err, "Email and OTP are required.")
		return
	}

	user, err := s.auth.VerifyOTP(r.Context(), req.Email, string(req.OTP))
	if err != nil {
		writeError(w, r, s.log(r), err,
			errMessage{common.ErrOTPInvalid, "Invalid or expired OTP."},
			errMessage{common.ErrOTPExpired, "OTP expired."},
			errMessage{common.ErrorValidation, "Email and OTP are required."},
			errMessage{common.ErrorConflict, "Email is already registered."},
			errMessage{common.ErrorInternal, "Failed to verify OTP."},
		)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		Message: "Account created successfully! You can now sign in.",
		User:    user,
	})
}

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, err, "Name, email, and password are required.")
		return
	}

	if _, err := s.auth.SignUp(r.Context(), req.Name, req.Email, req.Password); err != nil {
		writeError(w, r, s.log(r), err,
			errMessage{common.ErrorConflict, "Email is already registered."},
			errMessage{services.ErrPasswordTooLong, "Password must be at most 72 bytes."},
			errMessage{common.ErrorValidation, "Name, email, and password are required."},
		)
		return
	}

	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, err, "Email and password are required.")
		return
	}

	res, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, s.log(r), err,
			errMessage{common.ErrorUnauthorized, "Invalid email or password."},
			errMessage{common.ErrorValidation, "Email and password are required."},
			errMessage{common.ErrorInternal, "Failed to sign in."},
		)
		return
	}

	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, signInResponse{Message: "Login successful.", User: res.User, Token: res.Token})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := tokenFromRequest(r); token != "" {
		if userID, err := s.auth.VerifyToken(token); err == nil {
			s.auth.SignOut(r.Context(), userID)
		}
	}
	s.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "Logged out successfully.")
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	user, err := s.auth.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, s.log(r), err, errMessage{common.ErrorNotFound, "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// --- data ---

func (s *HTTPServer) handleListFaculty(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := faculties.Filter{
		ID:         q.Get("id"),
		Name:       q.Get("name"),
		Department: q.Get("department"),
	}

	list, err := s.faculties.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, s.log(r), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleTopThree(w http.ResponseWriter, r *http.Request) {
	list, err := s.faculties.TopThree(r.Context())
	if err != nil {
		writeError(w, r, s.log(r), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

var reviewErrors = []errMessage{
	{services.ErrInvalidRating, "Rating must be a number between 1 and 5"},
	{services.ErrFacultyNotFound, "Faculty not found"},
	{common.ErrorConflict, "Faculty was modified concurrently, please retry"},
}

func (s *HTTPServer) handleAddReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decode(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadBody)
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	review, err := s.faculties.AddReview(r.Context(), chi.URLParam(r, "id"), userID, req.input())
	if err != nil {
		writeError(w, r, s.log(r), err, reviewErrors...)
		return
	}
	writeJSON(w, http.StatusCreated, reviewResponse{Message: "Review submitted successfully", Review: review})
}

func (s *HTTPServer) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decode(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadBody)
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	review, err := s.faculties.UpdateReview(r.Context(), chi.URLParam(r, "id"), userID, req.input())
	if err != nil {
		writeError(w, r, s.log(r), err,
			append(reviewErrors, errMessage{services.ErrReviewNotFound, "Review not found for this user"})...)
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse{Message: "Review updated successfully", Review: review})
}

func (s *HTTPServer) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	err := s.faculties.DeleteReview(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "reviewId"))
	if err != nil {
		writeError(w, r, s.log(r), err,
			append(reviewErrors, errMessage{services.ErrReviewNotFound, "Review not found"})...)
		return
	}
	writeMessage(w, http.StatusOK, "Review deleted successfully")
}

func (s *HTTPServer) handleReviewImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	up, err := s.images.PresignUpload(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrFeatureDisabled) {
			writeMessage(w, http.StatusNotImplemented, "Image uploads are not configured.")
			return
		}
		writeError(w, r, s.log(r), err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}
