// Package httpapi exposes the gallery over HTTP with JSON responses. It is a
// thin layer: it decodes requests, resolves the session and maps service
// errors to status codes.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
	"github.com/dmitrijs2005/photogallery/internal/server/search"
	"github.com/dmitrijs2005/photogallery/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type Gallery interface {
	BrowsePublic(ctx context.Context) ([]*models.Photo, error)
	BrowseMine(ctx context.Context, ownerID string) ([]*models.Photo, error)
	Search(ctx context.Context, ownerID, query string, scope search.Scope) ([]*models.Photo, error)
	Upload(ctx context.Context, ownerID string, in services.UploadInput) (*models.Photo, error)
	View(ctx context.Context, viewerID, photoID string) (*services.PhotoDetail, error)
}

type Accounts interface {
	Register(ctx context.Context, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Authenticate(token string) (string, error)
}

// HealthChecker runs a trivial round trip against the storage backend.
type HealthChecker interface {
	Backend() string
	Ping(ctx context.Context) error
}

type Options struct {
	MaxUploadBytes int64
	// MediaDir and MediaPrefix serve locally stored uploads when set.
	MediaDir    string
	MediaPrefix string
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
}

type HTTPServer struct {
	address  string
	gallery  Gallery
	accounts Accounts
	health   HealthChecker
	logger   logging.Logger
	opts     Options
}

func NewHTTPServer(address string, l logging.Logger, g Gallery, a Accounts, h HealthChecker, o Options) *HTTPServer {
	return &HTTPServer{
		address:  address,
		gallery:  g,
		accounts: a,
		health:   h,
		logger:   l.With("module", "http_server"),
		opts:     o,
	}
}

// Handler returns the routed handler wrapped in logging and recovery.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /mine", s.requireSession(s.handleMine))
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /mysearch", s.requireSession(s.handleMySearch))
	mux.HandleFunc("GET /photos/{id}", s.optionalSession(s.handleView))
	mux.HandleFunc("POST /photos", s.requireSession(s.handleUpload))
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.opts.MediaDir != "" && s.opts.MediaPrefix != "" {
		prefix := s.opts.MediaPrefix + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(s.opts.MediaDir))))
	}

	return recoveryMiddleware(s.logger, requestLoggerMiddleware(s.logger, mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(context.Background(), "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
