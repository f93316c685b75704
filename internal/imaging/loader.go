package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageInfo contains metadata about an encoded image, read from its header
// without decoding pixel data.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the container detected from the magic bytes: "png", "jpeg",
	// "gif", "webp", "bmp" or "tiff".
	Format string `json:"format"`

	// HasAlpha indicates whether the colour model carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the length of the encoded input.
	SizeBytes int `json:"size_bytes"`
}

// Inspect reads the header of an encoded image.
//
// Detection is based on file contents, never on names or content-type
// headers, since the source URL of a proxied image is not trustworthy.
//
// # Errors
//
//   - Returns ErrUnsupportedImage if data is empty or no registered decoder
//     recognises it
//   - Returns ErrUnsupportedImage if the header declares a non-positive size
func Inspect(data []byte) (*ImageInfo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnsupportedImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrUnsupportedImage, cfg.Width, cfg.Height)
	}

	return &ImageInfo{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
		HasAlpha:  hasAlpha(cfg),
		SizeBytes: len(data),
	}, nil
}

func hasAlpha(cfg image.Config) bool {
	if cfg.ColorModel == nil {
		return false
	}
	// Models without alpha force a transparent colour opaque.
	_, _, _, a := cfg.ColorModel.Convert(color.Transparent).RGBA()
	return a == 0
}
