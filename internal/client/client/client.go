// Package client talks to the faculty review HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxErrorBody = 64 << 10

// Client is not safe for concurrent token changes.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// HTTPClient exposes the underlying client for presigned uploads.
func (c *Client) HTTPClient() *http.Client { return c.http }

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

type signInResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
	Token   string `json:"token"`
}

type reviewResponse struct {
	Message string  `json:"message"`
	Review  *Review `json:"review"`
}

// SendOTP starts a registration and returns the server message.
func (c *Client) SendOTP(ctx context.Context, name, email, password string) (string, error) {
	var resp messageResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/send-otp", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*User, error) {
	var resp userResponse
	body := map[string]string{"email": email, "otp": otp}
	if err := c.do(ctx, http.MethodPost, "/auth/verify-otp", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// SignUp registers without the OTP round trip.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (string, error) {
	var resp messageResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/sign-up", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// SignIn authenticates and keeps the returned token for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) (*User, string, error) {
	var resp signInResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/sign-in", nil, body, &resp); err != nil {
		return nil, "", err
	}
	c.token = resp.Token
	return resp.User, resp.Token, nil
}

// Logout always forgets the local token, even if the call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer func() { c.token = "" }()
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *Client) Faculties(ctx context.Context, f Filter) ([]Faculty, error) {
	q := url.Values{}
	if f.ID != "" {
		q.Set("id", f.ID)
	}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.Department != "" {
		q.Set("department", f.Department)
	}

	var list []Faculty
	if err := c.do(ctx, http.MethodGet, "/data/faculty", q, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) TopThree(ctx context.Context) ([]Faculty, error) {
	var list []Faculty
	if err := c.do(ctx, http.MethodGet, "/data/top-three", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) AddReview(ctx context.Context, facultyID string, in ReviewInput) (*Review, error) {
	var resp reviewResponse
	path := "/data/faculty/" + url.PathEscape(facultyID) + "/review"
	if err := c.do(ctx, http.MethodPost, path, nil, in, &resp); err != nil {
		return nil, err
	}
	return resp.Review, nil
}

// UpdateReview changes the caller's own review on the faculty.
func (c *Client) UpdateReview(ctx context.Context, facultyID string, in ReviewInput) (*Review, error) {
	var resp reviewResponse
	path := "/data/faculty/" + url.PathEscape(facultyID) + "/review"
	if err := c.do(ctx, http.MethodPatch, path, nil, in, &resp); err != nil {
		return nil, err
	}
	return resp.Review, nil
}

func (c *Client) DeleteReview(ctx context.Context, facultyID, reviewID string) error {
	path := "/data/faculty/" + url.PathEscape(facultyID) + "/review/" + url.PathEscape(reviewID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ReviewImageUpload asks the server for a presigned PUT URL.
func (c *Client) ReviewImageUpload(ctx context.Context) (*Upload, error) {
	var up Upload
	if err := c.do(ctx, http.MethodPost, "/data/review-image", nil, nil, &up); err != nil {
		return nil, err
	}
	return &up, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg messageResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
