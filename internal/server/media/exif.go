package media

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// skippedFields are binary or structural entries that carry no useful
// metadata for display.
var skippedFields = map[exif.FieldName]bool{
	"JPEGThumbnail":                       true,
	"TIFFThumbnail":                       true,
	"Filename":                            true,
	exif.MakerNote:                        true,
	exif.ExifIFDPointer:                   true,
	exif.GPSInfoIFDPointer:                true,
	exif.InteroperabilityIFDPointer:       true,
	exif.ThumbJPEGInterchangeFormat:       true,
	exif.ThumbJPEGInterchangeFormatLength: true,
}

type tagCollector map[string]string

func (c tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if skippedFields[name] {
		return nil
	}
	if s, err := tag.StringVal(); err == nil {
		c[string(name)] = s
		return nil
	}
	c[string(name)] = tag.String()
	return nil
}

// ExtractExif returns the EXIF tags of data as strings. Extraction is best
// effort: images without EXIF, or with a broken block, yield an empty map.
// Tags decoded before a sub-directory error are kept.
func ExtractExif(data []byte) map[string]string {
	out := tagCollector{}

	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil {
		return out
	}
	if err != nil && exif.IsCriticalError(err) {
		return out
	}
	_ = x.Walk(out)
	return out
}
