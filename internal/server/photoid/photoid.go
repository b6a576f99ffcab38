// Package photoid generates photo identifiers: the decimal millisecond epoch
// of the upload time, with a random three digit suffix on collision.
package photoid

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/common"
)

// SuffixRange bounds the random collision suffix, 0..SuffixRange-1.
const SuffixRange = 1000

type Generator struct {
	intN func(n int) int
}

func NewGenerator() *Generator {
	return &Generator{intN: rand.IntN}
}

// NewGeneratorWithRand uses intN as the random source; intN(n) must return a
// value in [0, n).
func NewGeneratorWithRand(intN func(n int) int) *Generator {
	return &Generator{intN: intN}
}

func (g *Generator) Generate(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// WithSuffix derives the retry candidate for a colliding id.
func (g *Generator) WithSuffix(id string) string {
	return fmt.Sprintf("%s%03d", id, g.intN(SuffixRange))
}

// Insert calls insert with a generated id. If insert reports
// common.ErrConflict, it retries exactly once with a suffixed id. A second
// conflict is returned as is. Any other error stops immediately.
func (g *Generator) Insert(ctx context.Context, now time.Time, insert func(ctx context.Context, id string) error) (string, error) {
	id := g.Generate(now)

	err := insert(ctx, id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, common.ErrConflict) {
		return "", err
	}

	id = g.WithSuffix(id)
	if err := insert(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}
