package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-proxy/internal/spec"
)

// Default overlay geometry. The badge is a translucent dark plate with an
// opaque white block on the left and a translucent orange block on the right.
const (
	OverlayWidth  = 64
	OverlayHeight = 40
)

var (
	overlayPlate  = color.NRGBA{R: 16, G: 16, B: 16, A: 176}
	overlayWhite  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	overlayOrange = color.NRGBA{R: 255, G: 140, B: 0, A: 220}

	// WhiteBlock and OrangeBlock are the block rectangles in overlay coordinates.
	WhiteBlock  = image.Rect(4, 4, 30, 36)
	OrangeBlock = image.Rect(34, 4, 60, 36)
)

// DefaultOverlay returns a fresh copy of the built-in watermark.
func DefaultOverlay() *image.NRGBA {
	badge := image.NewNRGBA(image.Rect(0, 0, OverlayWidth, OverlayHeight))
	draw.Draw(badge, badge.Bounds(), &image.Uniform{C: overlayPlate}, image.Point{}, draw.Src)
	draw.Draw(badge, WhiteBlock, &image.Uniform{C: overlayWhite}, image.Point{}, draw.Src)
	draw.Draw(badge, OrangeBlock, &image.Uniform{C: overlayOrange}, image.Point{}, draw.Src)
	return badge
}

// watermark alpha-composites overlay onto img with its top-left corner at
// (s.X, s.Y). Overlay pixels falling outside img are clipped.
func watermark(img, overlay *image.NRGBA, s spec.Watermark) *image.NRGBA {
	bounds := img.Bounds()
	if overlay == nil || uint64(s.X) >= uint64(bounds.Dx()) || uint64(s.Y) >= uint64(bounds.Dy()) {
		return img
	}
	pos := image.Pt(int(s.X), int(s.Y)).Add(bounds.Min)
	return imaging.Overlay(img, overlay, pos, 1.0)
}
