package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotImage is returned by NewImage for content that is not a picture.
var ErrNotImage = errors.New("file is not an image")

// NewImage wraps an uploaded picture. The content type is sniffed from the
// bytes; the filename extension is not trusted.
func NewImage(filename string, content []byte) (*Image, error) {
	mt := mimetype.Detect(content)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s detected", ErrNotImage, mt.String())
	}
	return &Image{Filename: filename, ContentType: mt.String(), Content: content}, nil
}
