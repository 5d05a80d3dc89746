package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/facultyreview/internal/common"
	"github.com/dmitrijs2005/facultyreview/internal/logging"
)

const msgInternal = "Internal Server Error"

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// statusFor maps service sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrOTPInvalid),
		errors.Is(err, common.ErrOTPExpired):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrFeatureDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// errMessage overrides the response text for errors matching target.
type errMessage struct {
	target error
	msg    string
}

// writeError responds with the status for err. The first matching override
// supplies the text; otherwise 5xx answers get a generic text and the rest
// carry the error string.
func writeError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error, overrides ...errMessage) {
	status := statusFor(err)

	msg := ""
	for _, o := range overrides {
		if errors.Is(err, o.target) {
			msg = o.msg
			break
		}
	}
	if msg == "" {
		if status == http.StatusInternalServerError {
			msg = msgInternal
		} else {
			msg = err.Error()
		}
	}

	if status == http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeMessage(w, status, msg)
}
