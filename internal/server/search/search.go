// Package search implements the in-memory keyword filter applied to photo
// listings. Matching is a case-insensitive substring test on title,
// description and tags, so results depend only on the candidate set.
package search

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

// Scope selects the candidate set a query runs over.
type Scope string

const (
	ScopePublic Scope = "public"
	ScopeMine   Scope = "mine"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopePublic:
		return ScopePublic, nil
	case ScopeMine:
		return ScopeMine, nil
	default:
		return "", fmt.Errorf("unknown scope %q", s)
	}
}

// Filter keeps the records matching query, preserving order. An empty query
// returns records unchanged.
func Filter(records []*models.Photo, query string) []*models.Photo {
	if query == "" {
		return records
	}

	q := strings.ToLower(query)
	out := make([]*models.Photo, 0, len(records))
	for _, p := range records {
		if matches(p, q) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p *models.Photo, q string) bool {
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.Tags), q)
}
