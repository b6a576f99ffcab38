// Package media validates uploaded image files and extracts their EXIF
// metadata.
package media

import (
	"bytes"
	"path"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/dmitrijs2005/photogallery/internal/common"
)

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

// AllowedFile reports whether filename has an accepted image extension.
// The check is case-insensitive.
func AllowedFile(filename string) bool {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	return allowedExtensions[strings.ToLower(ext)]
}

// Validate rejects uploads that are missing, carry a disallowed extension or
// do not decode as an image. Errors match common.ErrInvalid.
func Validate(filename string, data []byte) error {
	if filename == "" || len(data) == 0 {
		return common.Invalidf("no file uploaded")
	}
	if !AllowedFile(filename) {
		return common.Invalidf("file type not allowed")
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return common.Invalidf("file is not a readable image")
	}
	return nil
}
