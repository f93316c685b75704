package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-proxy/internal/spec"
)

// resampleFilters maps sampling filters to imaging kernels. imaging.Linear is
// the triangle kernel and imaging.Lanczos is the 3-lobe Lanczos kernel.
var resampleFilters = map[spec.SamplingFilter]imaging.ResampleFilter{
	spec.Nearest:    imaging.NearestNeighbor,
	spec.Triangle:   imaging.Linear,
	spec.CatmullRom: imaging.CatmullRom,
	spec.Gaussian:   imaging.Gaussian,
	spec.Lanczos3:   imaging.Lanczos,
}

// applyStep returns the result of st applied to img. img is never modified.
func applyStep(img *image.NRGBA, st spec.Step, overlay *image.NRGBA) (*image.NRGBA, error) {
	switch s := st.(type) {
	case spec.Resize:
		return resize(img, s)
	case spec.Crop:
		return crop(img, s)
	case spec.FlipH:
		return imaging.FlipH(img), nil
	case spec.FlipV:
		return imaging.FlipV(img), nil
	case spec.Contrast:
		return contrast(img, s)
	case spec.Filter:
		return applyPreset(img, s.Preset)
	case spec.Watermark:
		return watermark(img, overlay, s), nil
	default:
		return nil, fmt.Errorf("%w: unsupported step %T", ErrInvalidStep, st)
	}
}

// resize scales img to exactly the requested size. Unlike imaging.Resize, a
// zero dimension is an error rather than "keep aspect ratio".
func resize(img *image.NRGBA, s spec.Resize) (*image.NRGBA, error) {
	if s.Width == 0 || s.Height == 0 {
		return nil, fmt.Errorf("%w: resize to %dx%d", ErrInvalidStep, s.Width, s.Height)
	}
	if uint64(s.Width)*uint64(s.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: resize to %dx%d", ErrImageTooLarge, s.Width, s.Height)
	}
	filter, ok := resampleFilters[s.Filter]
	if !ok {
		return nil, fmt.Errorf("%w: sampling filter %s", ErrInvalidStep, s.Filter)
	}
	return imaging.Resize(img, int(s.Width), int(s.Height), filter), nil
}

// contrast adjusts contrast with bild. Amount must be within [-1, 1].
func contrast(img *image.NRGBA, s spec.Contrast) (*image.NRGBA, error) {
	if !(s.Amount >= -1 && s.Amount <= 1) {
		return nil, fmt.Errorf("%w: contrast %v outside [-1, 1]", ErrInvalidStep, s.Amount)
	}
	if s.Amount == 0 {
		return img, nil
	}
	return imaging.Clone(adjust.Contrast(img, float64(s.Amount))), nil
}
