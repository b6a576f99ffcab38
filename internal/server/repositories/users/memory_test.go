package users

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

func TestMemory_RegisterAndFind(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	u := &models.User{Email: " Alice@Example.com ", PasswordHash: "h", CreatedAt: time.Unix(1, 0)}
	require.NoError(t, r.Register(ctx, u))
	assert.Equal(t, "alice@example.com", u.Email)

	got, err := r.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h", got.PasswordHash)
}

func TestMemory_FindMissingIsNil(t *testing.T) {
	got, err := NewMemoryRepository().FindByEmail(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_DuplicateAfterNormalization(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, r.Register(ctx, &models.User{Email: "bob@example.com", PasswordHash: "first"}))

	err := r.Register(ctx, &models.User{Email: "BOB@example.com ", PasswordHash: "second"})
	require.ErrorIs(t, err, common.ErrAlreadyExists)
	require.ErrorIs(t, err, common.ErrConflict)

	got, err := r.FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "first", got.PasswordHash)
}

func TestMemory_ConcurrentRegisterExactlyOneWins(t *testing.T) {
	r := NewMemoryRepository()
	var wins, dups atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Register(context.Background(), &models.User{Email: "race@example.com", PasswordHash: "h"})
			if err == nil {
				wins.Add(1)
			} else if assert.ErrorIs(t, err, common.ErrAlreadyExists) {
				dups.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, 1, dups.Load())
}
