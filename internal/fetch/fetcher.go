// Package fetch downloads registry responses and library archives with
// retry, DNS caching, and per-host circuit breaking.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"
)

// Artifact is a successful response. The caller must close Body.
type Artifact struct {
	Body        io.ReadCloser
	Size        int64 // -1 if unknown
	ContentType string
	ETag        string
}

// Interface is implemented by Fetcher and CircuitBreakerFetcher.
type Interface interface {
	Fetch(ctx context.Context, url string) (*Artifact, error)
}

// Fetcher performs GET requests against registries and download hosts.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	resolver   *dnscache.Resolver
	stop       chan struct{}
	closeOnce  sync.Once
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxRetries sets how many times a rate-limited or 5xx request is repeated.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithBaseDelay sets the initial backoff interval.
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.baseDelay = d
	}
}

// WithTimeout sets the overall per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// New creates a Fetcher whose default client resolves hosts through a DNS
// cache refreshed every five minutes. Call Close to stop the refresher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent:  "embedlib",
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		resolver:   &dnscache.Resolver{},
		stop:       make(chan struct{}),
	}
	f.client = &http.Client{
		Timeout:   5 * time.Minute,
		Transport: f.transport(),
	}
	for _, opt := range opts {
		opt(f)
	}

	go f.refreshDNS(5 * time.Minute)
	return f
}

func (f *Fetcher) transport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := f.resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var lastErr error
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			return nil, fmt.Errorf("dialing %s: %w", host, lastErr)
		},
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func (f *Fetcher) refreshDNS(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			f.resolver.Refresh(true)
		case <-f.stop:
			return
		}
	}
}

// Close stops the DNS refresher. It is safe to call more than once.
func (f *Fetcher) Close() {
	f.closeOnce.Do(func() { close(f.stop) })
}

// Fetch issues a GET for url. Rate-limited and 5xx responses are retried
// with jittered exponential backoff; every other failure is returned at once.
// Failures are reported as *TransportError unless ctx was cancelled.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Artifact, error) {
	b := f.newBackOff()

	for attempt := 0; ; attempt++ {
		artifact, err := f.doFetch(ctx, url)
		if err == nil {
			return artifact, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) || attempt >= f.maxRetries {
			return nil, &TransportError{URL: url, Err: err}
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return nil, &TransportError{URL: url, Err: err}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (f *Fetcher) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.baseDelay
	b.RandomizationFactor = 0.1
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (f *Fetcher) doFetch(ctx context.Context, url string) (*Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		size := int64(-1)
		if cl := resp.Header.Get("Content-Length"); cl != "" {
			if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
				size = n
			}
		}
		return &Artifact{
			Body:        resp.Body,
			Size:        size,
			ContentType: resp.Header.Get("Content-Type"),
			ETag:        resp.Header.Get("ETag"),
		}, nil

	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, ErrNotFound

	case resp.StatusCode == http.StatusTooManyRequests:
		_ = resp.Body.Close()
		return nil, ErrRateLimited

	case resp.StatusCode >= 500:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrUpstreamDown)

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// ReadAll fetches url and returns the whole body, capped at limit bytes.
func ReadAll(ctx context.Context, f Interface, url string, limit int64) ([]byte, error) {
	artifact, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer artifact.Body.Close()

	data, err := io.ReadAll(io.LimitReader(artifact.Body, limit+1))
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}
	if int64(len(data)) > limit {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("response exceeds %d bytes", limit)}
	}
	return data, nil
}
