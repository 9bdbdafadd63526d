package genai

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxImageBytes caps the decoded size of an uploaded scan.
const MaxImageBytes = 10 << 20

var ErrInvalidImage = errors.New("invalid image data")

var dataURLPattern = regexp.MustCompile(`(?s)^data:([^;,]+);base64,(.+)$`)

type Image struct {
	MimeType string
	Data     []byte
}

func (img *Image) base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// ParseDataURL decodes a "data:<mime>;base64,<payload>" URL into an image.
func ParseDataURL(s string) (*Image, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("%w: expected a base64 data URL", ErrInvalidImage)
	}
	mime := strings.ToLower(strings.TrimSpace(m[1]))
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidImage, mime)
	}
	if base64.StdEncoding.DecodedLen(len(m[2])) > MaxImageBytes+3 {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxImageBytes)
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxImageBytes)
	}
	return &Image{MimeType: mime, Data: data}, nil
}
