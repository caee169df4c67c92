package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// tripThreshold is the number of consecutive failures that opens a breaker.
const tripThreshold = 5

// CircuitBreakerFetcher wraps a Fetcher with one circuit breaker per host.
// Missing resources do not count as failures.
type CircuitBreakerFetcher struct {
	fetcher  *Fetcher
	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

// NewCircuitBreakerFetcher wraps f.
func NewCircuitBreakerFetcher(f *Fetcher) *CircuitBreakerFetcher {
	return &CircuitBreakerFetcher{
		fetcher:  f,
		breakers: make(map[string]*circuit.Breaker),
	}
}

func (cbf *CircuitBreakerFetcher) breaker(host string) *circuit.Breaker {
	cbf.mu.RLock()
	b, ok := cbf.breakers[host]
	cbf.mu.RUnlock()
	if ok {
		return b
	}

	cbf.mu.Lock()
	defer cbf.mu.Unlock()
	if b, ok := cbf.breakers[host]; ok {
		return b
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	b = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(tripThreshold),
	})
	cbf.breakers[host] = b
	return b
}

// Fetch refuses requests to a host whose breaker is open and otherwise
// delegates to the wrapped Fetcher, recording the outcome.
func (cbf *CircuitBreakerFetcher) Fetch(ctx context.Context, fetchURL string) (*Artifact, error) {
	host := hostOf(fetchURL)
	b := cbf.breaker(host)

	if !b.Ready() {
		return nil, &TransportError{
			URL: fetchURL,
			Err: fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown),
		}
	}

	artifact, err := cbf.fetcher.Fetch(ctx, fetchURL)
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
		b.Success()
	case ctx.Err() == nil:
		b.Fail()
	}
	return artifact, err
}

// Close stops the wrapped fetcher's background work.
func (cbf *CircuitBreakerFetcher) Close() {
	cbf.fetcher.Close()
}

// hostOf groups URLs by host for breaker selection.
func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}
