package spec

import (
	"fmt"
	"strconv"
)

// Kind is the wire tag of a step.
type Kind uint8

const (
	KindResize    Kind = 1
	KindCrop      Kind = 2
	KindFlipH     Kind = 3
	KindFlipV     Kind = 4
	KindContrast  Kind = 5
	KindFilter    Kind = 6
	KindWatermark Kind = 7
)

func (k Kind) String() string {
	switch k {
	case KindResize:
		return "resize"
	case KindCrop:
		return "crop"
	case KindFlipH:
		return "fliph"
	case KindFlipV:
		return "flipv"
	case KindContrast:
		return "contrast"
	case KindFilter:
		return "filter"
	case KindWatermark:
		return "watermark"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// SamplingFilter selects the resampling kernel used by Resize.
type SamplingFilter uint8

const (
	Nearest    SamplingFilter = 1 // nearest neighbour, no interpolation
	Triangle   SamplingFilter = 2 // linear kernel, support 1
	CatmullRom SamplingFilter = 3 // cubic with B=0, C=0.5, support 2
	Gaussian   SamplingFilter = 4 // gaussian, support 2
	Lanczos3   SamplingFilter = 5 // windowed sinc, support 3
)

var samplingFilterNames = map[SamplingFilter]string{
	Nearest:    "nearest",
	Triangle:   "triangle",
	CatmullRom: "catmullrom",
	Gaussian:   "gaussian",
	Lanczos3:   "lanczos3",
}

// Valid reports whether f is one of the defined filters.
func (f SamplingFilter) Valid() bool {
	_, ok := samplingFilterNames[f]
	return ok
}

func (f SamplingFilter) String() string {
	if name, ok := samplingFilterNames[f]; ok {
		return name
	}
	return "filter(" + strconv.Itoa(int(f)) + ")"
}

// FilterKind is a named colour-grading preset.
type FilterKind uint8

const (
	Oceanic FilterKind = 1
	Islands FilterKind = 2
	Marine  FilterKind = 3
)

var filterKindNames = map[FilterKind]string{
	Oceanic: "oceanic",
	Islands: "islands",
	Marine:  "marine",
}

// Valid reports whether k is one of the defined presets.
func (k FilterKind) Valid() bool {
	_, ok := filterKindNames[k]
	return ok
}

func (k FilterKind) String() string {
	if name, ok := filterKindNames[k]; ok {
		return name
	}
	return "preset(" + strconv.Itoa(int(k)) + ")"
}

// Step is one operation of a Spec. The set of implementations is closed;
// only the types in this package satisfy it.
type Step interface {
	Kind() Kind
	String() string
	step()
}

// Spec is an ordered list of steps.
type Spec []Step

// Resize scales the image to exactly Width x Height.
type Resize struct {
	Width  uint32
	Height uint32
	Filter SamplingFilter
}

// Crop keeps the rectangle [X1,X2) x [Y1,Y2).
type Crop struct {
	X1, Y1, X2, Y2 uint32
}

// FlipH mirrors the image horizontally.
type FlipH struct{}

// FlipV mirrors the image vertically.
type FlipV struct{}

// Contrast changes contrast by Amount, in [-1, 1]; 0 is a no-op.
type Contrast struct {
	Amount float32
}

// Filter applies a colour-grading preset.
type Filter struct {
	Preset FilterKind
}

// Watermark composites the fixed overlay with its top-left corner at (X, Y).
type Watermark struct {
	X, Y uint32
}

func (Resize) Kind() Kind    { return KindResize }
func (Crop) Kind() Kind      { return KindCrop }
func (FlipH) Kind() Kind     { return KindFlipH }
func (FlipV) Kind() Kind     { return KindFlipV }
func (Contrast) Kind() Kind  { return KindContrast }
func (Filter) Kind() Kind    { return KindFilter }
func (Watermark) Kind() Kind { return KindWatermark }

func (Resize) step()    {}
func (Crop) step()      {}
func (FlipH) step()     {}
func (FlipV) step()     {}
func (Contrast) step()  {}
func (Filter) step()    {}
func (Watermark) step() {}

func (s Resize) String() string {
	return fmt.Sprintf("resize:%dx%d:%s", s.Width, s.Height, s.Filter)
}

func (s Crop) String() string {
	return fmt.Sprintf("crop:%d:%d:%d:%d", s.X1, s.Y1, s.X2, s.Y2)
}

func (FlipH) String() string { return "fliph" }
func (FlipV) String() string { return "flipv" }

func (s Contrast) String() string {
	return "contrast:" + strconv.FormatFloat(float64(s.Amount), 'g', -1, 32)
}

func (s Filter) String() string { return "filter:" + s.Preset.String() }

func (s Watermark) String() string {
	return fmt.Sprintf("watermark:%d:%d", s.X, s.Y)
}
