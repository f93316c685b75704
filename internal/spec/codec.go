package spec

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// FormatVersion is the first byte of every encoded spec.
	FormatVersion = 1

	// MaxSteps bounds the number of steps a token may declare.
	MaxSteps = 64
)

var tokenEncoding = base64.RawURLEncoding

// Decode failure reasons. A *DecodeError wraps exactly one of these.
var (
	ErrMalformed     = errors.New("malformed token")
	ErrVersion       = errors.New("unsupported token version")
	ErrTooManySteps  = errors.New("too many steps")
	ErrUnknownTag    = errors.New("unknown step tag")
	ErrInvalidValue  = errors.New("invalid step value")
	ErrTruncated     = errors.New("token truncated")
	ErrTrailingBytes = errors.New("trailing bytes after last step")
)

// DecodeError reports why a token could not be decoded and where.
type DecodeError struct {
	// Offset is the byte position in the decoded payload, or -1 when the
	// token failed before the payload was available.
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("decode spec: %v", e.Err)
	}
	return fmt.Sprintf("decode spec at byte %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode returns the token for s. It fails when s holds a step Decode
// would reject, so every token it returns decodes back to s.
func Encode(s Spec) (string, error) {
	data, err := MarshalBinary(s)
	if err != nil {
		return "", err
	}
	return tokenEncoding.EncodeToString(data), nil
}

// Validate reports the first reason Decode would reject the encoding of s:
// more than MaxSteps steps, a nil step, a non-finite Contrast amount or an
// undefined SamplingFilter or FilterKind.
func (s Spec) Validate() error {
	if len(s) > MaxSteps {
		return fmt.Errorf("%w: %d, limit is %d", ErrTooManySteps, len(s), MaxSteps)
	}
	for i, st := range s {
		var ok bool
		switch v := st.(type) {
		case nil:
			return fmt.Errorf("step %d: %w: nil step", i+1, ErrInvalidValue)
		case Resize:
			ok = v.Filter.Valid()
		case Contrast:
			a := float64(v.Amount)
			ok = !math.IsNaN(a) && !math.IsInf(a, 0)
		case Filter:
			ok = v.Preset.Valid()
		case Crop, FlipH, FlipV, Watermark:
			ok = true
		default:
			return fmt.Errorf("step %d: %w: unsupported step type %T", i+1, ErrInvalidValue, st)
		}
		if !ok {
			return fmt.Errorf("step %d (%s): %w", i+1, st, ErrInvalidValue)
		}
	}
	return nil
}

// MarshalBinary returns the binary document described in the package
// documentation, before base64 encoding.
func MarshalBinary(s Spec) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 2+len(s)*8)
	buf = append(buf, FormatVersion)
	buf = binary.AppendUvarint(buf, uint64(len(s)))

	for _, st := range s {
		buf = append(buf, byte(st.Kind()))
		switch v := st.(type) {
		case Resize:
			buf = binary.AppendUvarint(buf, uint64(v.Width))
			buf = binary.AppendUvarint(buf, uint64(v.Height))
			buf = append(buf, byte(v.Filter))
		case Crop:
			buf = binary.AppendUvarint(buf, uint64(v.X1))
			buf = binary.AppendUvarint(buf, uint64(v.Y1))
			buf = binary.AppendUvarint(buf, uint64(v.X2))
			buf = binary.AppendUvarint(buf, uint64(v.Y2))
		case FlipH, FlipV:
		case Contrast:
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(v.Amount))
		case Filter:
			buf = append(buf, byte(v.Preset))
		case Watermark:
			buf = binary.AppendUvarint(buf, uint64(v.X))
			buf = binary.AppendUvarint(buf, uint64(v.Y))
		}
	}
	return buf, nil
}

// Decode parses a token produced by Encode.
func Decode(token string) (Spec, error) {
	if token == "" {
		return nil, &DecodeError{Offset: -1, Err: ErrMalformed}
	}
	data, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return nil, &DecodeError{Offset: -1, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return UnmarshalBinary(data)
}

// UnmarshalBinary parses the binary document produced by MarshalBinary.
func UnmarshalBinary(data []byte) (Spec, error) {
	r := &reader{data: data}

	version, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, r.fail(0, ErrVersion)
	}

	countAt := r.pos
	count, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	if count > MaxSteps {
		return nil, r.fail(countAt, ErrTooManySteps)
	}
	// Every step occupies at least its tag byte.
	if count > uint64(r.remaining()) {
		return nil, r.fail(countAt, ErrTruncated)
	}

	steps := make(Spec, 0, count)
	for i := uint64(0); i < count; i++ {
		st, err := r.step()
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}

	if r.remaining() != 0 {
		return nil, r.fail(r.pos, ErrTrailingBytes)
	}
	return steps, nil
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) fail(at int, err error) error {
	return &DecodeError{Offset: at, Err: err}
}

func (r *reader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, r.fail(r.pos, ErrTruncated)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	switch {
	case n == 0:
		return 0, r.fail(r.pos, ErrTruncated)
	case n < 0:
		return 0, r.fail(r.pos, ErrMalformed)
	}
	r.pos += n
	return v, nil
}

func (r *reader) readUint32() (uint32, error) {
	at := r.pos
	v, err := r.readUvarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, r.fail(at, ErrInvalidValue)
	}
	return uint32(v), nil
}

func (r *reader) readFloat32() (float32, error) {
	if r.remaining() < 4 {
		return 0, r.fail(r.pos, ErrTruncated)
	}
	bits := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return math.Float32frombits(bits), nil
}

func (r *reader) step() (Step, error) {
	tagAt := r.pos
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}

	switch Kind(tag) {
	case KindResize:
		w, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		h, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		at := r.pos
		f, err := r.readByte()
		if err != nil {
			return nil, err
		}
		if !SamplingFilter(f).Valid() {
			return nil, r.fail(at, ErrInvalidValue)
		}
		return Resize{Width: w, Height: h, Filter: SamplingFilter(f)}, nil

	case KindCrop:
		var c [4]uint32
		for i := range c {
			if c[i], err = r.readUint32(); err != nil {
				return nil, err
			}
		}
		return Crop{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3]}, nil

	case KindFlipH:
		return FlipH{}, nil

	case KindFlipV:
		return FlipV{}, nil

	case KindContrast:
		at := r.pos
		amount, err := r.readFloat32()
		if err != nil {
			return nil, err
		}
		if math.IsNaN(float64(amount)) || math.IsInf(float64(amount), 0) {
			return nil, r.fail(at, ErrInvalidValue)
		}
		return Contrast{Amount: amount}, nil

	case KindFilter:
		at := r.pos
		k, err := r.readByte()
		if err != nil {
			return nil, err
		}
		if !FilterKind(k).Valid() {
			return nil, r.fail(at, ErrInvalidValue)
		}
		return Filter{Preset: FilterKind(k)}, nil

	case KindWatermark:
		x, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		y, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		return Watermark{X: x, Y: y}, nil

	default:
		return nil, r.fail(tagAt, ErrUnknownTag)
	}
}
