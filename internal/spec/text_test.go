package spec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSteps(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Spec
	}{
		{
			name: "resize watermark filter",
			text: "resize:500x800:catmullrom,watermark:20:20,filter:marine",
			want: Spec{
				Resize{Width: 500, Height: 800, Filter: CatmullRom},
				Watermark{X: 20, Y: 20},
				Filter{Preset: Marine},
			},
		},
		{
			name: "default filter and spacing",
			text: " resize:64X32 , fliph,flipv ",
			want: Spec{Resize{Width: 64, Height: 32, Filter: Lanczos3}, FlipH{}, FlipV{}},
		},
		{
			name: "crop and contrast",
			text: "crop:1:2:30:40,contrast:0.5",
			want: Spec{Crop{X1: 1, Y1: 2, X2: 30, Y2: 40}, Contrast{Amount: 0.5}},
		},
		{
			name: "empty",
			text: "",
			want: Spec{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSteps(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSteps_Errors(t *testing.T) {
	for _, text := range []string{
		"resize",
		"resize:500",
		"resize:500x800:bicubic",
		"resize:-1x5",
		"crop:1:2:3",
		"fliph:1",
		"contrast:much",
		"filter:sepia",
		"watermark:1",
		"rotate:90",
		"resize:10x10,,fliph",
		"contrast:NaN",
		"contrast:+Inf",
		"resize:10x10:lanczos3,contrast:-inf",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseSteps(text)
			assert.Error(t, err)
		})
	}
}

func TestParseSteps_StepLimit(t *testing.T) {
	text := strings.TrimSuffix(strings.Repeat("fliph,", MaxSteps), ",")
	got, err := ParseSteps(text)
	require.NoError(t, err)
	assert.Len(t, got, MaxSteps)

	_, err = ParseSteps(text + ",flipv")
	assert.ErrorIs(t, err, ErrTooManySteps)
}

func TestParseSteps_NonFiniteContrast(t *testing.T) {
	_, err := ParseSteps("contrast:NaN")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestSpecString_RoundTrip(t *testing.T) {
	text := allStepsSpec.String()
	assert.Equal(t, "resize:500x800:catmullrom,crop:10:20:300:400,fliph,flipv,contrast:-0.25,filter:marine,watermark:20:20", text)

	got, err := ParseSteps(text)
	require.NoError(t, err)
	assert.Equal(t, allStepsSpec, got)
}
