package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-proxy/internal/spec"
)

// Engine failure reasons. Errors returned by Engine and Image wrap one of these.
var (
	// ErrUnsupportedImage means the bytes are not a decodable image container.
	ErrUnsupportedImage = errors.New("unsupported or invalid image")

	// ErrImageTooLarge means the decoded or requested pixel count exceeds MaxPixels.
	ErrImageTooLarge = errors.New("image too large")

	// ErrInvalidStep means a step's parameters cannot be applied to the image.
	ErrInvalidStep = errors.New("invalid step")

	// ErrConsumed means the Image was already encoded, or a previous Apply failed.
	ErrConsumed = errors.New("image already consumed")

	// ErrEncode means the output container could not be produced.
	ErrEncode = errors.New("encode failed")
)

// MaxPixels bounds the area of any decoded or resized buffer.
const MaxPixels = 1 << 26

// Engine turns raw bytes into a mutable Image.
//
// The rest of the proxy only talks to Engine and Image, so the underlying
// image library can be replaced by providing another implementation.
type Engine interface {
	// Name identifies the implementation in logs.
	Name() string

	// Load decodes data. The returned Image is owned by the caller.
	Load(data []byte) (Image, error)
}

// Image is one decoded buffer, owned by a single request.
//
// Apply mutates the buffer; Encode consumes it. Once Encode has been called,
// or once Apply has failed, every further call returns ErrConsumed.
type Image interface {
	// Size returns the current buffer dimensions.
	Size() (width, height int)

	// Apply runs steps in order. If any step fails the whole call fails and
	// the buffer is discarded; no partially transformed state is kept.
	Apply(steps ...spec.Step) error

	// Encode serializes the buffer and releases it.
	Encode(format Format, opts EncodeOptions) ([]byte, error)
}

// NativeEngine is the pure-Go Engine built on github.com/disintegration/imaging.
//
// It is safe for concurrent use; each loaded Image is independent.
type NativeEngine struct {
	overlay *image.NRGBA
}

// EngineOption configures a NativeEngine.
type EngineOption func(*NativeEngine)

// WithOverlay replaces the watermark overlay.
func WithOverlay(img image.Image) EngineOption {
	return func(e *NativeEngine) {
		e.overlay = imaging.Clone(img)
	}
}

// NewNativeEngine returns an engine that uses DefaultOverlay for watermarks
// unless WithOverlay is given.
func NewNativeEngine(opts ...EngineOption) *NativeEngine {
	e := &NativeEngine{overlay: DefaultOverlay()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements Engine.
func (e *NativeEngine) Name() string { return "native" }

// Load implements Engine.
func (e *NativeEngine) Load(data []byte) (Image, error) {
	info, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	if info.Width*info.Height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, info.Width, info.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	return &nativeImage{buf: imaging.Clone(img), overlay: e.overlay}, nil
}

type nativeImage struct {
	buf     *image.NRGBA
	overlay *image.NRGBA
}

func (m *nativeImage) Size() (int, int) {
	if m.buf == nil {
		return 0, 0
	}
	b := m.buf.Bounds()
	return b.Dx(), b.Dy()
}

func (m *nativeImage) Apply(steps ...spec.Step) error {
	if m.buf == nil {
		return ErrConsumed
	}

	cur := m.buf
	for i, st := range steps {
		next, err := applyStep(cur, st, m.overlay)
		if err != nil {
			m.buf = nil
			return fmt.Errorf("step %d (%s): %w", i+1, st.Kind(), err)
		}
		cur = next
	}
	m.buf = cur
	return nil
}

func (m *nativeImage) Encode(format Format, opts EncodeOptions) ([]byte, error) {
	if m.buf == nil {
		return nil, ErrConsumed
	}
	buf := m.buf
	m.buf = nil
	return encode(buf, format, opts)
}
