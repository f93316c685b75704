package proxy

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-proxy/internal/apperrors"
	"github.com/ironsheep/image-proxy/internal/cache"
	"github.com/ironsheep/image-proxy/internal/imaging"
	"github.com/ironsheep/image-proxy/internal/origin"
	"github.com/ironsheep/image-proxy/internal/spec"
)

var sourceColor = color.NRGBA{R: 40, G: 120, B: 200, A: 255}

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// originServer serves body at every path and counts requests.
func originServer(t *testing.T, status int, body []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	c, err := cache.NewSerialized(cache.DefaultCapacity)
	require.NoError(t, err)
	return New(imaging.NewNativeEngine(), c, origin.NewHTTPFetcher(), opts...)
}

func tokenFor(t *testing.T, s spec.Spec) string {
	t.Helper()
	token, err := spec.Encode(s)
	require.NoError(t, err)
	return token
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestGenerate_EndToEnd(t *testing.T) {
	srv, hits := originServer(t, http.StatusOK, solidPNG(t, 1000, 600, sourceColor))
	svc := newService(t)

	token := tokenFor(t, spec.Spec{
		spec.Resize{Width: 500, Height: 800, Filter: spec.CatmullRom},
		spec.Watermark{X: 20, Y: 20},
		spec.Filter{Preset: spec.Marine},
	})

	res, err := svc.Generate(context.Background(), Request{Token: token, URL: srv.URL + "/photo.png"})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", res.ContentType)
	assert.Equal(t, imaging.JPEG, res.Format)
	assert.Equal(t, 500, res.Width)
	assert.Equal(t, 800, res.Height)
	assert.Equal(t, int32(1), hits.Load())

	out, format, err := image.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 500, 800), out.Bounds())

	// Marine-graded background is roughly (32, 99, 184).
	for _, p := range []image.Point{{10, 10}, {300, 400}, {450, 750}} {
		px := nrgbaAt(out, p.X, p.Y)
		assert.Less(t, int(px.R), 60, "background R at %v", p)
		assert.Greater(t, int(px.B), 150, "background B at %v", p)
	}

	// The white block of the overlay starts at (24, 24), so the watermark's
	// origin sits at (20, 20).
	white := nrgbaAt(out, 20+16, 20+20)
	assert.Greater(t, int(white.R), 180, "white block R")
	assert.Greater(t, int(white.G), 180, "white block G")

	orange := nrgbaAt(out, 20+47, 20+20)
	assert.Greater(t, int(orange.R), 140, "orange block R")
	assert.Less(t, int(orange.B), 120, "orange block B")
}

func TestGenerate_CachesSource(t *testing.T) {
	srv, hits := originServer(t, http.StatusOK, solidPNG(t, 40, 30, sourceColor))
	svc := newService(t)

	token := tokenFor(t, spec.Spec{spec.FlipH{}})
	for i := 0; i < 3; i++ {
		_, err := svc.Generate(context.Background(), Request{Token: token, URL: srv.URL + "/a.png"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())

	st := svc.CacheStats()
	assert.Equal(t, uint64(2), st.Hits)
	assert.Equal(t, 1, st.Entries)
}

func TestGenerate_EmptySpecReencodes(t *testing.T) {
	srv, _ := originServer(t, http.StatusOK, solidPNG(t, 40, 30, sourceColor))
	svc := newService(t, WithFormat(imaging.PNG))

	res, err := svc.Generate(context.Background(), Request{Token: tokenFor(t, nil), URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)

	out, err := png.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, sourceColor, nrgbaAt(out, 5, 5))
}

func TestGenerate_FormatOverride(t *testing.T) {
	srv, _ := originServer(t, http.StatusOK, solidPNG(t, 40, 30, sourceColor))
	svc := newService(t)

	res, err := svc.Generate(context.Background(), Request{
		Token:  tokenFor(t, spec.Spec{spec.Resize{Width: 10, Height: 10, Filter: spec.Nearest}}),
		URL:    srv.URL,
		Format: imaging.GIF,
	})
	require.NoError(t, err)
	assert.Equal(t, "image/gif", res.ContentType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "gif", format)
	assert.Equal(t, 10, cfg.Width)
}

func TestGenerate_BadTokenSkipsFetch(t *testing.T) {
	srv, hits := originServer(t, http.StatusOK, solidPNG(t, 4, 4, sourceColor))
	svc := newService(t)

	for _, token := range []string{"!!!", "", "AQ", tokenFor(t, spec.Spec{spec.FlipV{}})[:2]} {
		_, err := svc.Generate(context.Background(), Request{Token: token, URL: srv.URL})
		require.Error(t, err, "token %q", token)
		assert.True(t, apperrors.IsCategory(err, apperrors.CategorySpecDecode), "token %q: %v", token, err)
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestGenerate_ErrorCategories(t *testing.T) {
	source := solidPNG(t, 20, 10, sourceColor)
	okSrv, _ := originServer(t, http.StatusOK, source)
	missingSrv, _ := originServer(t, http.StatusNotFound, []byte("missing"))
	junkSrv, _ := originServer(t, http.StatusOK, []byte("this is not an image"))

	tests := []struct {
		name   string
		steps  spec.Spec
		url    string
		format imaging.Format
		want   apperrors.Category
	}{
		{name: "origin 404", url: missingSrv.URL, want: apperrors.CategoryFetch},
		{name: "empty url", url: "", want: apperrors.CategoryFetch},
		{name: "not an image", url: junkSrv.URL, want: apperrors.CategoryImageDecode},
		{
			name:  "zero resize",
			steps: spec.Spec{spec.Resize{Width: 0, Height: 5, Filter: spec.Lanczos3}},
			url:   okSrv.URL,
			want:  apperrors.CategoryTransform,
		},
		{
			name:  "crop outside image",
			steps: spec.Spec{spec.Crop{X1: 0, Y1: 0, X2: 21, Y2: 10}},
			url:   okSrv.URL,
			want:  apperrors.CategoryTransform,
		},
		{
			name:  "contrast out of range",
			steps: spec.Spec{spec.Contrast{Amount: 2}},
			url:   okSrv.URL,
			want:  apperrors.CategoryTransform,
		},
		{name: "unknown output format", url: okSrv.URL, format: imaging.Format("bmp"), want: apperrors.CategoryEncode},
	}

	svc := newService(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), Request{
				Token:  tokenFor(t, tc.steps),
				URL:    tc.url,
				Format: tc.format,
			})
			require.Error(t, err)
			assert.Equal(t, tc.want, apperrors.CategoryOf(err), "%v", err)
		})
	}
}

func TestGenerate_FetchErrorDetail(t *testing.T) {
	missingSrv, hits := originServer(t, http.StatusNotFound, nil)
	svc := newService(t)

	for i := 0; i < 2; i++ {
		_, err := svc.Generate(context.Background(), Request{Token: tokenFor(t, nil), URL: missingSrv.URL})
		require.Error(t, err)

		var fe *origin.FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	}
	// Failures are not cached.
	assert.Equal(t, int32(2), hits.Load())
}
