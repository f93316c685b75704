package imaging

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// Format is an output container.
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	GIF  Format = "gif"
)

// DefaultQuality is the JPEG quality used when EncodeOptions.Quality is 0.
const DefaultQuality = 85

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	Quality int // JPEG only, 1-100; 0 = DefaultQuality
}

// ParseFormat accepts "jpeg", "jpg", "png" and "gif" in any case.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "jpeg", "jpg":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "gif":
		return GIF, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", name)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	case GIF:
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

func encode(img image.Image, format Format, opts EncodeOptions) ([]byte, error) {
	var encOpts []imaging.EncodeOption
	var target imaging.Format

	switch format {
	case JPEG:
		q := opts.Quality
		if q == 0 {
			q = DefaultQuality
		}
		if q < 1 || q > 100 {
			return nil, fmt.Errorf("%w: jpeg quality %d outside 1-100", ErrEncode, q)
		}
		target = imaging.JPEG
		encOpts = append(encOpts, imaging.JPEGQuality(q))
	case PNG:
		target = imaging.PNG
	case GIF:
		target = imaging.GIF
	default:
		return nil, fmt.Errorf("%w: unsupported output format %q", ErrEncode, format)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, target, encOpts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}
