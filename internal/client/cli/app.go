package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/facultyreview/internal/client/client"
	"github.com/dmitrijs2005/facultyreview/internal/client/config"
)

// API is the part of client.Client the commands use.
type API interface {
	SetToken(token string)
	Token() string
	HTTPClient() *http.Client

	SendOTP(ctx context.Context, name, email, password string) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (*client.User, error)
	SignIn(ctx context.Context, email, password string) (*client.User, string, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*client.User, error)

	Faculties(ctx context.Context, f client.Filter) ([]client.Faculty, error)
	TopThree(ctx context.Context) ([]client.Faculty, error)
	AddReview(ctx context.Context, facultyID string, in client.ReviewInput) (*client.Review, error)
	UpdateReview(ctx context.Context, facultyID string, in client.ReviewInput) (*client.Review, error)
	DeleteReview(ctx context.Context, facultyID, reviewID string) error
	ReviewImageUpload(ctx context.Context) (*client.Upload, error)
}

// TokenStore persists the session token.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type App struct {
	config *config.Config
	api    API
	store  TokenStore
	reader *bufio.Reader
	out    io.Writer

	userName     string
	pendingEmail string
	lastImage    string
}

func NewApp(c *config.Config) (*App, error) {
	store, err := client.NewTokenStore(c.SessionDir)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		api:    client.New(c.ServerURL, c.RequestTimeout),
		store:  store,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

// Run executes args as a single command, or starts the REPL when args is
// empty.
func (a *App) Run(ctx context.Context, args []string) error {
	a.restoreSession(ctx)

	if len(args) > 0 {
		if _, known := dispatch(ctx, a, args[0], args[1:]); !known {
			return fmt.Errorf("unknown command %q", args[0])
		}
		return nil
	}

	a.printf("Faculty review CLI (server %s). Type 'help' for commands.\n", a.config.ServerURL)
	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

// restoreSession loads a saved token and resolves the user name. A token the
// server rejects is discarded.
func (a *App) restoreSession(ctx context.Context) {
	token, err := a.store.Load()
	if err != nil {
		a.printf("warning: %v\n", err)
		return
	}
	if token == "" {
		return
	}
	a.api.SetToken(token)

	user, err := a.api.Me(ctx)
	switch {
	case err == nil:
		a.userName = user.Name
	case errors.Is(err, client.ErrUnauthorized):
		a.api.SetToken("")
		_ = a.store.Clear()
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.Token() != ""
}

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return ""
	}
	if a.userName == "" {
		return "(signed in)"
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// report prints err in user terms and returns it.
func (a *App) report(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUnavailable):
		a.printf("Server unavailable: %v\n", err)
	case errors.Is(err, client.ErrUnauthorized) && !a.isLoggedIn():
		a.printf("You are not signed in. Use 'signin' first.\n")
	case errors.As(err, &apiErr):
		a.printf("Error: %s\n", apiErr.Error())
	default:
		a.printf("Error: %v\n", err)
	}
	return err
}
