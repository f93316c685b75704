package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-proxy/internal/spec"
)

// crop extracts the rectangle [X1,X2) x [Y1,Y2) from img.
//
// Coordinates are 0-based from the top-left corner. The rectangle must be
// non-empty and lie entirely within the image; unlike watermarks, crops are
// never clipped silently.
func crop(img *image.NRGBA, s spec.Crop) (*image.NRGBA, error) {
	bounds := img.Bounds()

	if s.X1 >= s.X2 || s.Y1 >= s.Y2 {
		return nil, fmt.Errorf("%w: invalid crop region (%d,%d)-(%d,%d): x1 must be < x2, y1 must be < y2",
			ErrInvalidStep, s.X1, s.Y1, s.X2, s.Y2)
	}
	if uint64(s.X2) > uint64(bounds.Dx()) || uint64(s.Y2) > uint64(bounds.Dy()) {
		return nil, fmt.Errorf("%w: crop region (%d,%d)-(%d,%d) outside image bounds %dx%d",
			ErrInvalidStep, s.X1, s.Y1, s.X2, s.Y2, bounds.Dx(), bounds.Dy())
	}

	rect := image.Rect(int(s.X1), int(s.Y1), int(s.X2), int(s.Y2)).Add(bounds.Min)
	return imaging.Crop(img, rect), nil
}
