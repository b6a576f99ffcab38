package repomanager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

type countingManager struct {
	*MemoryRepositoryManager
	closed int
}

func (c *countingManager) Close(context.Context) error {
	c.closed++
	return nil
}

func TestLazy_OpensOnceOnFirstUse(t *testing.T) {
	opens := 0
	mgr := &countingManager{MemoryRepositoryManager: NewMemoryRepositoryManager()}
	l := NewLazy("memory", func(context.Context) (RepositoryManager, error) {
		opens++
		return mgr, nil
	}, logging.Nop())

	assert.Equal(t, 0, opens)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Get(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, opens)
	assert.NoError(t, l.Ping(context.Background()))
}

func TestLazy_OpenFailureIsUnavailableAndRetried(t *testing.T) {
	attempts := 0
	l := NewLazy("postgres", func(context.Context) (RepositoryManager, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("connection refused")
		}
		return NewMemoryRepositoryManager(), nil
	}, logging.Nop())

	_, err := l.Get(context.Background())
	require.ErrorIs(t, err, common.ErrUnavailable)

	_, err = l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestLazy_CloseTearsDownAndRejects(t *testing.T) {
	mgr := &countingManager{MemoryRepositoryManager: NewMemoryRepositoryManager()}
	l := NewLazy("memory", func(context.Context) (RepositoryManager, error) { return mgr, nil }, logging.Nop())

	_, err := l.Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, l.Close(context.Background()))
	require.NoError(t, l.Close(context.Background()))
	assert.Equal(t, 1, mgr.closed)

	_, err = l.Get(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestLazy_CloseWithoutOpen(t *testing.T) {
	l := NewLazy("memory", func(context.Context) (RepositoryManager, error) {
		t.Fatal("must not open")
		return nil, nil
	}, logging.Nop())
	require.NoError(t, l.Close(context.Background()))
}

func TestLazy_RepositoriesResolvePerCall(t *testing.T) {
	l := NewLazy("memory", func(context.Context) (RepositoryManager, error) {
		return NewMemoryRepositoryManager(), nil
	}, logging.Nop())
	ctx := context.Background()

	require.NoError(t, l.Photos().Insert(ctx, &models.Photo{PhotoID: "1", OwnerID: "a", Visibility: models.VisibilityPublic}))
	got, err := l.Photos().GetByID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, got)

	pub, err := l.Photos().ListPublic(ctx)
	require.NoError(t, err)
	assert.Len(t, pub, 1)

	mine, err := l.Photos().ListByOwner(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, l.Users().Register(ctx, &models.User{Email: "a@b.c"}))
	u, err := l.Users().FindByEmail(ctx, "A@B.C")
	require.NoError(t, err)
	assert.NotNil(t, u)

	require.NoError(t, l.Close(ctx))
	_, err = l.Photos().ListPublic(ctx)
	require.ErrorIs(t, err, ErrClosed)
}

func TestLazy_CloseDoesNotWaitForSlowOpen(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	mgr := &countingManager{MemoryRepositoryManager: NewMemoryRepositoryManager()}
	l := NewLazy("dynamodb", func(context.Context) (RepositoryManager, error) {
		close(started)
		<-release
		return mgr, nil
	}, logging.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := l.Get(context.Background())
		done <- err
	}()
	<-started

	closed := make(chan error, 1)
	go func() { closed <- l.Close(context.Background()) }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close blocked behind the open")
	}

	close(release)
	require.ErrorIs(t, <-done, ErrClosed)
	assert.Equal(t, 1, mgr.closed)
}

func TestLazy_WaiterGivesUpOnOwnContext(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	l := NewLazy("mongo", func(context.Context) (RepositoryManager, error) {
		close(started)
		<-release
		return NewMemoryRepositoryManager(), nil
	}, logging.Nop())
	defer close(release)

	go func() { _, _ = l.Get(context.Background()) }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.Get(ctx)
	require.ErrorIs(t, err, common.ErrUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
