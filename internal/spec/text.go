package spec

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSteps parses the human-readable form of a spec, a comma separated
// list of steps:
//
//	resize:500x800:catmullrom,watermark:20:20,filter:marine
//
// Accepted steps:
//
//	resize:WxH[:nearest|triangle|catmullrom|gaussian|lanczos3]  (default lanczos3)
//	crop:x1:y1:x2:y2
//	fliph
//	flipv
//	contrast:amount
//	filter:oceanic|islands|marine
//	watermark:x:y
//
// The result satisfies Spec.Validate, so it always encodes. The output of
// Spec.String parses back to an equal Spec.
func ParseSteps(text string) (Spec, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Spec{}, nil
	}

	parts := strings.Split(text, ",")
	steps := make(Spec, 0, len(parts))
	for i, part := range parts {
		st, err := parseStep(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("step %d %q: %w", i+1, part, err)
		}
		steps = append(steps, st)
	}
	if err := steps.Validate(); err != nil {
		return nil, err
	}
	return steps, nil
}

// String returns the human-readable form accepted by ParseSteps.
func (s Spec) String() string {
	names := make([]string, len(s))
	for i, st := range s {
		names[i] = st.String()
	}
	return strings.Join(names, ",")
}

func parseStep(text string) (Step, error) {
	fields := strings.Split(text, ":")
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "resize":
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("want resize:WxH[:filter]")
		}
		w, h, ok := strings.Cut(strings.ToLower(args[0]), "x")
		if !ok {
			return nil, fmt.Errorf("size %q is not WxH", args[0])
		}
		width, err := parseUint32(w)
		if err != nil {
			return nil, err
		}
		height, err := parseUint32(h)
		if err != nil {
			return nil, err
		}
		filter := Lanczos3
		if len(args) == 2 {
			if filter, err = ParseSamplingFilter(args[1]); err != nil {
				return nil, err
			}
		}
		return Resize{Width: width, Height: height, Filter: filter}, nil

	case "crop":
		if len(args) != 4 {
			return nil, fmt.Errorf("want crop:x1:y1:x2:y2")
		}
		var c [4]uint32
		for i, a := range args {
			v, err := parseUint32(a)
			if err != nil {
				return nil, err
			}
			c[i] = v
		}
		return Crop{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3]}, nil

	case "fliph", "flipv":
		if len(args) != 0 {
			return nil, fmt.Errorf("%s takes no arguments", name)
		}
		if name == "fliph" {
			return FlipH{}, nil
		}
		return FlipV{}, nil

	case "contrast":
		if len(args) != 1 {
			return nil, fmt.Errorf("want contrast:amount")
		}
		v, err := strconv.ParseFloat(args[0], 32)
		if err != nil {
			return nil, fmt.Errorf("amount %q: %w", args[0], err)
		}
		return Contrast{Amount: float32(v)}, nil

	case "filter":
		if len(args) != 1 {
			return nil, fmt.Errorf("want filter:name")
		}
		k, err := ParseFilterKind(args[0])
		if err != nil {
			return nil, err
		}
		return Filter{Preset: k}, nil

	case "watermark":
		if len(args) != 2 {
			return nil, fmt.Errorf("want watermark:x:y")
		}
		x, err := parseUint32(args[0])
		if err != nil {
			return nil, err
		}
		y, err := parseUint32(args[1])
		if err != nil {
			return nil, err
		}
		return Watermark{X: x, Y: y}, nil

	default:
		return nil, fmt.Errorf("unknown step %q", name)
	}
}

// ParseSamplingFilter returns the filter with the given name.
func ParseSamplingFilter(name string) (SamplingFilter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range samplingFilterNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown sampling filter %q", name)
}

// ParseFilterKind returns the preset with the given name.
func ParseFilterKind(name string) (FilterKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range filterKindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown filter %q", name)
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not an unsigned 32-bit integer", s)
	}
	return uint32(v), nil
}
