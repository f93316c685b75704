package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-proxy/internal/apperrors"
	"github.com/ironsheep/image-proxy/internal/cache"
	"github.com/ironsheep/image-proxy/internal/imaging"
	"github.com/ironsheep/image-proxy/internal/origin"
	"github.com/ironsheep/image-proxy/internal/proxy"
	"github.com/ironsheep/image-proxy/internal/spec"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// testOrigin serves a PNG at /ok.png, junk at /junk and 404 elsewhere.
func testOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	body := testPNG(t, 64, 48)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write(body)
		case "/junk":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	c, err := cache.NewSingleFlight(8)
	require.NoError(t, err)
	svc := proxy.New(imaging.NewNativeEngine(), c, origin.NewHTTPFetcher(origin.WithTimeout(5*time.Second)))
	return New(svc)
}

func do(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func tokenFor(t *testing.T, s spec.Spec) string {
	t.Helper()
	token, err := spec.Encode(s)
	require.NoError(t, err)
	return token
}

func imagePath(token, source string) string {
	return "/image/" + token + "/" + url.PathEscape(source)
}

func TestHandleImage_Success(t *testing.T) {
	org := testOrigin(t)
	s := newTestServer(t)

	token := tokenFor(t, spec.Spec{spec.Resize{Width: 32, Height: 20, Filter: spec.Triangle}})
	rec := do(t, s, imagePath(token, org.URL+"/ok.png"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get(echo.HeaderContentType))

	cfg, format, err := image.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 32, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestHandleImage_UnescapedSource(t *testing.T) {
	org := testOrigin(t)
	s := newTestServer(t)

	rec := do(t, s, "/image/"+tokenFor(t, nil)+"/"+org.URL+"/ok.png")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHandleImage_FormatQuery(t *testing.T) {
	org := testOrigin(t)
	s := newTestServer(t)
	target := imagePath(tokenFor(t, spec.Spec{spec.FlipV{}}), org.URL+"/ok.png")

	rec := do(t, s, target+"?format=png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	_, err := png.DecodeConfig(rec.Body)
	assert.NoError(t, err)

	rec = do(t, s, target+"?format=bmp")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleImage_Errors(t *testing.T) {
	org := testOrigin(t)
	s := newTestServer(t)
	noop := tokenFor(t, nil)

	tests := []struct {
		name         string
		target       string
		wantStatus   int
		wantCategory apperrors.Category
	}{
		{
			name:         "malformed token",
			target:       imagePath("@@@", org.URL+"/ok.png"),
			wantStatus:   http.StatusBadRequest,
			wantCategory: apperrors.CategorySpecDecode,
		},
		{
			name:         "origin 404",
			target:       imagePath(noop, org.URL+"/missing.png"),
			wantStatus:   http.StatusBadGateway,
			wantCategory: apperrors.CategoryFetch,
		},
		{
			name:         "origin returns junk",
			target:       imagePath(noop, org.URL+"/junk"),
			wantStatus:   http.StatusUnprocessableEntity,
			wantCategory: apperrors.CategoryImageDecode,
		},
		{
			name:         "crop outside image",
			target:       imagePath(tokenFor(t, spec.Spec{spec.Crop{X1: 0, Y1: 0, X2: 100, Y2: 10}}), org.URL+"/ok.png"),
			wantStatus:   http.StatusBadRequest,
			wantCategory: apperrors.CategoryTransform,
		},
		{
			name:       "missing source",
			target:     "/image/" + noop + "/",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown route",
			target:     "/nothing",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, tc.target)
			assert.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["message"])
			if tc.wantCategory != "" {
				assert.Equal(t, string(tc.wantCategory), body["error"])
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	org := testOrigin(t)
	s := newTestServer(t)

	rec := do(t, s, imagePath(tokenFor(t, nil), org.URL+"/ok.png"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string      `json:"status"`
		Cache  cache.Stats `json:"cache"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Cache.Entries)
	assert.Equal(t, 8, body.Cache.Capacity)
	assert.Equal(t, uint64(1), body.Cache.Misses)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.New(apperrors.CategorySpecDecode, "op", errors.New("x")), http.StatusBadRequest},
		{apperrors.New(apperrors.CategoryFetch, "op", errors.New("x")), http.StatusBadGateway},
		{apperrors.New(apperrors.CategoryImageDecode, "op", errors.New("x")), http.StatusUnprocessableEntity},
		{apperrors.New(apperrors.CategoryTransform, "op", errors.New("x")), http.StatusBadRequest},
		{apperrors.New(apperrors.CategoryEncode, "op", errors.New("x")), http.StatusInternalServerError},
		{echo.NewHTTPError(http.StatusTeapot), http.StatusTeapot},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, StatusCode(tc.err), "%v", tc.err)
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	c, err := cache.NewSerialized(1)
	require.NoError(t, err)
	s := New(proxy.New(imaging.NewNativeEngine(), c, origin.NewHTTPFetcher()), WithAddr("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
