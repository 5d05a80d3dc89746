// Package httpapi exposes the auth and faculty review services over
// HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/facultyreview/internal/logging"
	"github.com/dmitrijs2005/facultyreview/internal/server/config"
	"github.com/dmitrijs2005/facultyreview/internal/server/models"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/faculties"
	"github.com/dmitrijs2005/facultyreview/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const banner = "Faculty review server is running"

// AuthService is the account flow used by the auth routes.
type AuthService interface {
	TokenVerifier
	RequestOTP(ctx context.Context, name, email, password string) error
	VerifyOTP(ctx context.Context, email, code string) (*models.User, error)
	SignUp(ctx context.Context, name, email, password string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*services.SignInResult, error)
	SignOut(ctx context.Context, userID string)
	Me(ctx context.Context, userID string) (*models.User, error)
}

// FacultyService is the review management used by the data routes.
type FacultyService interface {
	List(ctx context.Context, filter faculties.Filter) ([]models.FacultyView, error)
	TopThree(ctx context.Context) ([]models.FacultyView, error)
	AddReview(ctx context.Context, facultyID, userID string, in services.ReviewInput) (*models.Review, error)
	UpdateReview(ctx context.Context, facultyID, userID string, in services.ReviewInput) (*models.Review, error)
	DeleteReview(ctx context.Context, facultyID, reviewID string) error
}

type ImageService interface {
	PresignUpload(ctx context.Context, userID string) (*services.Upload, error)
}

type HTTPServer struct {
	address         string
	prefix          string
	allowedOrigins  []string
	cookieSameSite  http.SameSite
	cookieSecure    bool
	sessionTTL      time.Duration
	shutdownTimeout time.Duration

	auth      AuthService
	faculties FacultyService
	images    ImageService
	logger    logging.Logger
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, as AuthService, fs FacultyService, is ImageService) *HTTPServer {
	return &HTTPServer{
		address:         cfg.HTTPAddr,
		prefix:          strings.TrimSuffix(cfg.RoutePrefix, "/"),
		allowedOrigins:  cfg.AllowedOrigins,
		cookieSameSite:  cfg.SameSite(),
		cookieSecure:    cfg.CookieSecure,
		sessionTTL:      cfg.SessionTTL,
		shutdownTimeout: cfg.ShutdownTimeout,
		auth:            as,
		faculties:       fs,
		images:          is,
		logger:          l.With("module", "http_server"),
	}
}

// Handler builds the router with every route mounted under the prefix.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	routes := func(api chi.Router) {
		api.Get("/", s.handleRoot)
		api.Get("/healthz", s.handleHealth)

		api.Route("/auth", func(a chi.Router) {
			a.Post("/send-otp", s.handleSendOTP)
			a.Post("/verify-otp", s.handleVerifyOTP)
			a.Post("/sign-up", s.handleSignUp)
			a.Post("/sign-in", s.handleSignIn)
			a.Post("/logout", s.handleLogout)
			a.With(RequireAuth(s.auth)).Get("/me", s.handleMe)
		})

		api.Route("/data", func(d chi.Router) {
			d.Get("/top-three", s.handleTopThree)

			d.Group(func(p chi.Router) {
				p.Use(RequireAuth(s.auth))
				p.Get("/faculty", s.handleListFaculty)
				p.Post("/faculty/{id}/review", s.handleAddReview)
				p.Patch("/faculty/{id}/review", s.handleUpdateReview)
				p.Delete("/faculty/{id}/review/{reviewId}", s.handleDeleteReview)
				p.Post("/review-image", s.handleReviewImage)
			})
		})
	}

	if s.prefix == "" {
		routes(r)
	} else {
		r.Route(s.prefix, routes)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	// serveCtx is also cancelled when Serve fails, so the shutdown goroutine
	// never outlives this call.
	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	done := make(chan error, 1)
	go func() {
		<-serveCtx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		timeout := s.shutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String(), "prefix", s.prefix)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-done
		return err
	}

	return <-done
}
