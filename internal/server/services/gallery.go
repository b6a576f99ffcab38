package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/server/media"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
	"github.com/dmitrijs2005/photogallery/internal/server/objectstore"
	"github.com/dmitrijs2005/photogallery/internal/server/photoid"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/photos"
	"github.com/dmitrijs2005/photogallery/internal/server/search"
)

// UploadInput is a photo upload as received from a client.
type UploadInput struct {
	Title       string
	Description string
	Tags        string
	Visibility  string
	Filename    string
	Data        []byte
}

// PhotoDetail is a single photo with its tags split and EXIF decoded.
type PhotoDetail struct {
	Photo *models.Photo
	Tags  []string
	Exif  map[string]string
}

type GalleryService struct {
	photos  photos.Repository
	store   objectstore.Store
	ids     *photoid.Generator
	timeout time.Duration
	logger  logging.Logger

	now         func() time.Time
	extractExif func([]byte) map[string]string
}

func NewGalleryService(p photos.Repository, store objectstore.Store, timeout time.Duration, logger logging.Logger) *GalleryService {
	return &GalleryService{
		photos:      p,
		store:       store,
		ids:         photoid.NewGenerator(),
		timeout:     timeout,
		logger:      logger,
		now:         time.Now,
		extractExif: media.ExtractExif,
	}
}

func (s *GalleryService) BrowsePublic(ctx context.Context) ([]*models.Photo, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.photos.ListPublic(ctx)
	return out, mapCtxErr(err)
}

func (s *GalleryService) BrowseMine(ctx context.Context, ownerID string) ([]*models.Photo, error) {
	if ownerID == "" {
		return nil, common.ErrUnauthorized
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.photos.ListByOwner(ctx, ownerID)
	return out, mapCtxErr(err)
}

// Search filters the public listing, or the owner's listing for ScopeMine,
// by query.
func (s *GalleryService) Search(ctx context.Context, ownerID, query string, scope search.Scope) ([]*models.Photo, error) {
	var (
		candidates []*models.Photo
		err        error
	)
	switch scope {
	case search.ScopeMine:
		candidates, err = s.BrowseMine(ctx, ownerID)
	default:
		candidates, err = s.BrowsePublic(ctx)
	}
	if err != nil {
		return nil, err
	}
	return search.Filter(candidates, query), nil
}

// Upload validates in, stores the file, then records the photo. The id is
// the upload millisecond; a collision is retried once with a suffixed id.
func (s *GalleryService) Upload(ctx context.Context, ownerID string, in UploadInput) (*models.Photo, error) {
	if ownerID == "" {
		return nil, common.ErrUnauthorized
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.Invalidf("title is required")
	}
	visibility, err := models.ParseVisibility(in.Visibility)
	if err != nil {
		return nil, common.Invalidf("%v", err)
	}
	if err := media.Validate(in.Filename, in.Data); err != nil {
		return nil, err
	}

	exif, err := models.EncodeExif(s.extractExif(in.Data))
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	url, err := s.store.Upload(ctx, in.Filename, bytes.NewReader(in.Data))
	if err != nil {
		s.logger.Error(ctx, "object upload failed", "owner", ownerID, "error", err)
		return nil, mapCtxErr(err)
	}

	now := s.now()
	photo := &models.Photo{
		OwnerID:     ownerID,
		CreatedAt:   now.UTC().Truncate(time.Second),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Tags:        strings.TrimSpace(in.Tags),
		URL:         url,
		Visibility:  visibility,
		Exif:        exif,
	}

	id, err := s.ids.Insert(ctx, now, func(ctx context.Context, id string) error {
		photo.PhotoID = id
		return s.photos.Insert(ctx, photo)
	})
	if err != nil {
		s.logger.Warn(ctx, "photo insert failed", "owner", ownerID, "url", url, "error", err)
		return nil, mapCtxErr(err)
	}
	photo.PhotoID = id

	s.logger.Info(ctx, "photo uploaded", "owner", ownerID, "photo_id", id, "visibility", string(visibility))
	return photo, nil
}

// View returns one photo. A private photo is only visible to its owner;
// anyone else gets common.ErrNotFound, as for a missing id.
func (s *GalleryService) View(ctx context.Context, viewerID, photoID string) (*PhotoDetail, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, mapCtxErr(err)
	}
	if p == nil || (p.Visibility != models.VisibilityPublic && p.OwnerID != viewerID) {
		return nil, fmt.Errorf("photo %s: %w", photoID, common.ErrNotFound)
	}

	exif, err := models.DecodeExif(p.Exif)
	if err != nil {
		s.logger.Warn(ctx, "stored exif unreadable", "photo_id", photoID, "error", err)
		exif = map[string]string{}
	}
	return &PhotoDetail{Photo: p, Tags: p.TagList(), Exif: exif}, nil
}
