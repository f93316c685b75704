// Package proxy turns a spec token and a source URL into a transformed image.
//
// A Service decodes the token before touching the network, resolves the
// source bytes through the shared cache, and runs the steps through a fresh
// engine image. Every failure is returned as an *apperrors.Error whose
// category names the stage that failed.
package proxy

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ironsheep/image-proxy/internal/apperrors"
	"github.com/ironsheep/image-proxy/internal/cache"
	"github.com/ironsheep/image-proxy/internal/imaging"
	"github.com/ironsheep/image-proxy/internal/origin"
	"github.com/ironsheep/image-proxy/internal/spec"
)

// ErrEmptyURL is returned, as a fetch failure, when no source URL was given.
var ErrEmptyURL = errors.New("empty source url")

// Request is one transformation request.
type Request struct {
	Token  string         // encoded spec
	URL    string         // source image URL
	Format imaging.Format // output container; "" uses the service default
}

// Result is an encoded output image.
type Result struct {
	Data        []byte
	ContentType string
	Format      imaging.Format
	Width       int
	Height      int
}

// Service composes codec, cache, fetcher and engine. It is safe for
// concurrent use; the cache is the only state shared between requests.
type Service struct {
	engine  imaging.Engine
	cache   cache.Cache
	fetcher origin.Fetcher
	format  imaging.Format
	quality int
}

// Option configures a Service.
type Option func(*Service)

// WithFormat sets the default output format.
func WithFormat(f imaging.Format) Option {
	return func(s *Service) { s.format = f }
}

// WithQuality sets the JPEG quality.
func WithQuality(q int) Option {
	return func(s *Service) { s.quality = q }
}

// New returns a Service. The output defaults to JPEG at imaging.DefaultQuality.
func New(engine imaging.Engine, c cache.Cache, f origin.Fetcher, opts ...Option) *Service {
	s := &Service{
		engine:  engine,
		cache:   c,
		fetcher: f,
		format:  imaging.JPEG,
		quality: imaging.DefaultQuality,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate runs req to completion. Nothing is retried.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	steps, err := spec.Decode(req.Token)
	if err != nil {
		return nil, apperrors.New(apperrors.CategorySpecDecode, "decode spec", err)
	}

	if req.URL == "" {
		return nil, apperrors.New(apperrors.CategoryFetch, "fetch source", ErrEmptyURL)
	}
	data, err := s.cache.GetOrFetch(ctx, req.URL, s.fetcher)
	if err != nil {
		return nil, apperrors.New(apperrors.CategoryFetch, "fetch source", err)
	}

	img, err := s.engine.Load(data)
	if err != nil {
		return nil, apperrors.New(apperrors.CategoryImageDecode, "load image", err)
	}
	if err := img.Apply(steps...); err != nil {
		return nil, apperrors.New(apperrors.CategoryTransform, "apply steps", err)
	}

	format := req.Format
	if format == "" {
		format = s.format
	}
	width, height := img.Size()
	out, err := img.Encode(format, imaging.EncodeOptions{Quality: s.quality})
	if err != nil {
		return nil, apperrors.New(apperrors.CategoryEncode, "encode image", err)
	}

	log.Info().
		Str("url", req.URL).
		Int("steps", len(steps)).
		Str("format", string(format)).
		Int("width", width).
		Int("height", height).
		Int("bytes", len(out)).
		Dur("duration", time.Since(start)).
		Msg("image generated")

	return &Result{
		Data:        out,
		ContentType: format.ContentType(),
		Format:      format,
		Width:       width,
		Height:      height,
	}, nil
}

// CacheStats reports the shared cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}
