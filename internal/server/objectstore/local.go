package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/filex"
)

// LocalStore writes uploads below a directory served by the HTTP layer
// under URLPrefix.
type LocalStore struct {
	root      string
	urlPrefix string
	now       func() time.Time
}

// NewLocalStore creates dir if needed. A relative dir is resolved against
// the working directory.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	root := dir
	if filepath.IsAbs(dir) {
		if err := os.MkdirAll(dir, 0o770); err != nil {
			return nil, storageError("local store", err)
		}
	} else {
		abs, err := filex.EnsureSubdDir(dir)
		if err != nil {
			return nil, storageError("local store", err)
		}
		root = abs
	}
	return &LocalStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/"), now: time.Now}, nil
}

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) URLPrefix() string { return s.urlPrefix }

func (s *LocalStore) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", storageError("local write", err)
	}
	key := NewKey(s.now().UTC(), filename)
	if _, err := filex.WriteUnder(s.root, key, r); err != nil {
		return "", storageError("local write", err)
	}
	return s.urlPrefix + "/" + key, nil
}
