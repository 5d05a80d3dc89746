package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

func newTestServer(t *testing.T, status int, reply any) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(ts.Close)
	return New(ts.URL, time.Second), rec
}

func TestClient_SignInStoresToken(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, map[string]any{
		"message": "Login successful.",
		"user":    map[string]any{"_id": "u1", "name": "Ann", "email": "ann@x.io"},
		"token":   "tok",
	})

	user, token, err := c.SignIn(context.Background(), "ann@x.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "tok", c.Token())
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/auth/sign-in", rec.path)
	assert.Equal(t, "ann@x.io", rec.body["email"])
	assert.Empty(t, rec.auth)

	_, err = c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", rec.auth)
}

func TestClient_SendAndVerifyOTP(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, map[string]any{"message": "OTP sent successfully."})

	msg, err := c.SendOTP(context.Background(), "Ann", "ann@x.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "OTP sent successfully.", msg)
	assert.Equal(t, "/auth/send-otp", rec.path)
	assert.Equal(t, "Ann", rec.body["name"])

	_, err = c.VerifyOTP(context.Background(), "ann@x.io", "123456")
	require.NoError(t, err)
	assert.Equal(t, "/auth/verify-otp", rec.path)
	assert.Equal(t, "123456", rec.body["otp"])
}

func TestClient_FacultiesQuery(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, []map[string]any{{
		"_id":                "f1",
		"name":               "Dr. Smith",
		"rating":             "4.5",
		"totalReviews":       2,
		"ratingDistribution": map[string]int{"4": 1, "5": 1},
	}})

	list, err := c.Faculties(context.Background(), Filter{Name: "smi th", Department: "CS"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "4.5", list[0].Rating)
	assert.Equal(t, 1, list[0].RatingDistribution["5"])
	assert.Equal(t, "/data/faculty", rec.path)
	assert.Equal(t, "department=CS&name=smi+th", rec.query)
}

func TestClient_ReviewCalls(t *testing.T) {
	c, rec := newTestServer(t, http.StatusCreated, map[string]any{
		"message": "Review submitted successfully",
		"review":  map[string]any{"_id": "r1", "rating": 5},
	})
	c.SetToken("tok")

	r, err := c.AddReview(context.Background(), "f/1", ReviewInput{User: "Ann", Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/data/faculty/f/1/review", rec.path)
	assert.EqualValues(t, 5, rec.body["rating"])

	_, err = c.UpdateReview(context.Background(), "f1", ReviewInput{Rating: 3})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, rec.method)

	require.NoError(t, c.DeleteReview(context.Background(), "f1", "r1"))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/data/faculty/f1/review/r1", rec.path)
}

func TestClient_APIErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusNotImplemented, ErrNotImplemented},
		{http.StatusInternalServerError, ErrServer},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, _ := newTestServer(t, tt.status, map[string]any{"message": "nope"})
			_, err := c.TopThree(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Error())
		})
	}
}

func TestClient_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	c := New(ts.URL, time.Second)
	_, err := c.TopThree(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_LogoutClearsToken(t *testing.T) {
	c, _ := newTestServer(t, http.StatusInternalServerError, map[string]any{})
	c.SetToken("tok")

	err := c.Logout(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Token())
}

func TestClient_ReviewImageUpload(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, map[string]any{"key": "reviews/k", "url": "https://s3/put"})

	up, err := c.ReviewImageUpload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/data/review-image", rec.path)
	assert.Equal(t, &Upload{Key: "reviews/k", URL: "https://s3/put"}, up)
}

func TestTokenStore(t *testing.T) {
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer func() { _ = os.Chdir(old) }()

	s, err := NewTokenStore(".facultyreview")
	require.NoError(t, err)

	tok, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Save("abc"))
	tok, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, s.Clear())
	tok, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}
