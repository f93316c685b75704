package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-proxy/internal/spec"
)

// presetStrength is how far each pixel is blended toward the preset tint.
const presetStrength = 0.2

// presetTints holds the tint colour of each colour-grading preset.
//
// Every preset is the same per-pixel operation with a different tint:
//
//	out = in + presetStrength * (tint - in)
//
// computed per RGB channel in sRGB space. Alpha is left untouched and
// dimensions never change.
var presetTints = map[spec.FilterKind]colorful.Color{
	spec.Oceanic: rgb8(0, 89, 173),
	spec.Islands: rgb8(0, 24, 95),
	spec.Marine:  rgb8(0, 14, 119),
}

// applyPreset returns img graded with the named preset.
func applyPreset(img *image.NRGBA, kind spec.FilterKind) (*image.NRGBA, error) {
	tint, ok := presetTints[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown filter %s", ErrInvalidStep, kind)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return tintPixel(c, tint)
	}), nil
}

func tintPixel(c color.NRGBA, tint colorful.Color) color.NRGBA {
	r, g, b := rgb8(c.R, c.G, c.B).BlendRgb(tint, presetStrength).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: c.A}
}

func rgb8(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}
