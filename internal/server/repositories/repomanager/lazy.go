package repomanager

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/photos"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/users"
)

// ErrClosed is returned by a Lazy handle after Close.
var ErrClosed = fmt.Errorf("backend closed: %w", common.ErrUnavailable)

// Opener connects to a backend.
type Opener func(ctx context.Context) (RepositoryManager, error)

// Lazy is the process-wide backend handle. The backend is opened on first
// use; a failed open is retried by the next caller. After Close every call
// fails with ErrClosed.
//
// Opening runs outside the mutex. Concurrent callers share one open, which
// runs under the context of the caller that started it; the others give up
// when their own context ends. Close never waits for an open in flight; the
// late manager is closed as soon as it arrives.
type Lazy struct {
	open    Opener
	backend string
	logger  logging.Logger
	flight  singleflight.Group

	mu     sync.Mutex
	mgr    RepositoryManager
	closed bool
}

func NewLazy(backend string, open Opener, logger logging.Logger) *Lazy {
	return &Lazy{open: open, backend: backend, logger: logger}
}

func (l *Lazy) Backend() string { return l.backend }

func (l *Lazy) current() (RepositoryManager, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}
	return l.mgr, nil
}

// Get returns the opened manager, opening it if needed. Open failures are
// reported as common.ErrUnavailable.
func (l *Lazy) Get(ctx context.Context) (RepositoryManager, error) {
	if mgr, err := l.current(); err != nil || mgr != nil {
		return mgr, err
	}

	ch := l.flight.DoChan("open", func() (any, error) {
		return l.openOnce(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, common.Unavailable("open "+l.backend, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(RepositoryManager), nil
	}
}

func (l *Lazy) openOnce(ctx context.Context) (RepositoryManager, error) {
	// A previous flight may have finished since the caller looked.
	if mgr, err := l.current(); err != nil || mgr != nil {
		return mgr, err
	}

	mgr, err := l.open(ctx)
	if err != nil {
		l.logger.Error(ctx, "backend open failed", "backend", l.backend, "error", err)
		return nil, common.Unavailable("open "+l.backend, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		_ = mgr.Close(context.WithoutCancel(ctx))
		return nil, ErrClosed
	}
	l.mgr = mgr
	l.logger.Info(ctx, "backend ready", "backend", l.backend)
	return mgr, nil
}

func (l *Lazy) Ping(ctx context.Context) error {
	mgr, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return mgr.Ping(ctx)
}

// Close tears down the backend if it was opened. It is safe to call twice.
func (l *Lazy) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if l.mgr == nil {
		return nil
	}
	err := l.mgr.Close(ctx)
	l.mgr = nil
	return err
}

// Photos returns a photos.Repository that resolves the backend per call.
func (l *Lazy) Photos() photos.Repository { return lazyPhotos{l} }

// Users returns a users.Repository that resolves the backend per call.
func (l *Lazy) Users() users.Repository { return lazyUsers{l} }

type lazyPhotos struct{ l *Lazy }

func (p lazyPhotos) repo(ctx context.Context) (photos.Repository, error) {
	mgr, err := p.l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return mgr.Photos(), nil
}

func (p lazyPhotos) Insert(ctx context.Context, photo *models.Photo) error {
	r, err := p.repo(ctx)
	if err != nil {
		return err
	}
	return r.Insert(ctx, photo)
}

func (p lazyPhotos) ListPublic(ctx context.Context) ([]*models.Photo, error) {
	r, err := p.repo(ctx)
	if err != nil {
		return nil, err
	}
	return r.ListPublic(ctx)
}

func (p lazyPhotos) ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error) {
	r, err := p.repo(ctx)
	if err != nil {
		return nil, err
	}
	return r.ListByOwner(ctx, ownerID)
}

func (p lazyPhotos) GetByID(ctx context.Context, photoID string) (*models.Photo, error) {
	r, err := p.repo(ctx)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, photoID)
}

type lazyUsers struct{ l *Lazy }

func (u lazyUsers) Register(ctx context.Context, user *models.User) error {
	mgr, err := u.l.Get(ctx)
	if err != nil {
		return err
	}
	return mgr.Users().Register(ctx, user)
}

func (u lazyUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	mgr, err := u.l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return mgr.Users().FindByEmail(ctx, email)
}
