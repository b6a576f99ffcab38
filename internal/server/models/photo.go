// Package models holds the records persisted by the photo and user stores.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ParseVisibility accepts "public" or "private" in any case. Empty input
// defaults to public.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(VisibilityPublic):
		return VisibilityPublic, nil
	case string(VisibilityPrivate):
		return VisibilityPrivate, nil
	default:
		return "", fmt.Errorf("unknown visibility %q", s)
	}
}

// Photo is a single uploaded image with its metadata. OwnerID, PhotoID and
// CreatedAt never change after insert.
type Photo struct {
	OwnerID     string     `json:"owner_id"`
	PhotoID     string     `json:"photo_id"`
	CreatedAt   time.Time  `json:"created_at"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tags        string     `json:"tags"`
	URL         string     `json:"url"`
	Visibility  Visibility `json:"visibility"`

	// Exif is the encoded metadata blob, see EncodeExif.
	Exif string `json:"-"`
}

// TagList splits Tags on commas, dropping blanks.
func (p *Photo) TagList() []string {
	parts := strings.Split(p.Tags, ",")
	out := make([]string, 0, len(parts))
	for _, t := range parts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Before reports whether p is listed ahead of q. Listings are newest
// first, ties broken by descending photo id.
func (p *Photo) Before(q *Photo) bool {
	if !p.CreatedAt.Equal(q.CreatedAt) {
		return p.CreatedAt.After(q.CreatedAt)
	}
	return p.PhotoID > q.PhotoID
}

// EncodeExif serializes tag values into the blob stored with a photo.
// A nil map encodes as "{}".
func EncodeExif(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode exif: %w", err)
	}
	return string(b), nil
}

// DecodeExif is the inverse of EncodeExif. An empty blob decodes to an empty map.
func DecodeExif(blob string) (map[string]string, error) {
	m := map[string]string{}
	if strings.TrimSpace(blob) == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		return nil, fmt.Errorf("decode exif: %w", err)
	}
	return m, nil
}
