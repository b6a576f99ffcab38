// Package services holds the gallery and account use cases called by the
// HTTP layer. Every call runs under the configured request timeout; a
// deadline or cancellation surfaces as common.ErrUnavailable.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/common"
)

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// mapCtxErr reports context expiry as unavailability unless the error is
// already classified.
func mapCtxErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrUnavailable) || errors.Is(err, common.ErrStorage) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return common.Unavailable("request", err)
	}
	return err
}
