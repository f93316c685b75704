// Package origin retrieves source image bytes over HTTP.
//
// Fetching performs no retries and no backoff; a failed fetch is reported
// once and the caller decides what to do.
package origin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrorKind distinguishes why a fetch failed.
type ErrorKind int

const (
	// KindTransport covers request construction, connection and read failures.
	KindTransport ErrorKind = iota + 1
	// KindStatus means the origin answered with a non-2xx status.
	KindStatus
	// KindTooLarge means the body exceeded the configured size limit.
	KindTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindTooLarge:
		return "too large"
	default:
		return "unknown"
	}
}

// FetchError is returned for every failed fetch.
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int // set for KindStatus
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetch %s: unexpected status code %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("fetch %s: %s error: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsKind reports whether err is a *FetchError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == k
}

// Fetcher retrieves the raw bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

// HTTPFetcher fetches over HTTP(S) with GET.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithTimeout sets the timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) { f.client.Timeout = d }
}

// WithMaxBytes limits the accepted body size; 0 means unlimited.
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) { f.maxBytes = n }
}

// NewHTTPFetcher returns a fetcher with a 30 second client timeout and no
// size limit unless configured otherwise.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{client: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the body of a successful GET of url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, f.fail(&FetchError{Kind: KindTransport, URL: url, Err: fmt.Errorf("error creating request: %w", err)})
	}

	log.Debug().Str("url", url).Msg("fetching origin")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, f.fail(&FetchError{Kind: KindTransport, URL: url, Err: fmt.Errorf("error executing request: %w", err)})
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, f.fail(&FetchError{Kind: KindStatus, URL: url, StatusCode: res.StatusCode})
	}

	body := io.Reader(res.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(res.Body, f.maxBytes+1)
	}
	buf, err := io.ReadAll(body)
	if err != nil {
		return nil, f.fail(&FetchError{Kind: KindTransport, URL: url, Err: fmt.Errorf("error reading response: %w", err)})
	}
	if f.maxBytes > 0 && int64(len(buf)) > f.maxBytes {
		return nil, f.fail(&FetchError{Kind: KindTooLarge, URL: url, Err: fmt.Errorf("body exceeds %d bytes", f.maxBytes)})
	}

	log.Debug().Str("url", url).Int("bytes", len(buf)).Msg("fetched origin")
	return buf, nil
}

func (f *HTTPFetcher) fail(err *FetchError) error {
	log.Error().Err(err).Str("url", err.URL).Str("kind", err.Kind.String()).Send()
	return err
}
