package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
	"github.com/VinsightAI/vinsight-mvp/pkg/fn"
	"github.com/VinsightAI/vinsight-mvp/pkg/resilience"
)

const defaultTimeout = 15 * time.Second

// client wraps an http.Client with the per-provider rate limiter and circuit
// breaker, and maps transport and status failures onto the error taxonomy.
type client struct {
	name    domain.ProviderName
	http    *http.Client
	limiter *resilience.Limiter
	breaker *resilience.Breaker
	retry   fn.RetryOpts
}

func newClient(name domain.ProviderName, timeout time.Duration) *client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{
		name:    name,
		http:    &http.Client{Timeout: timeout},
		limiter: resilience.NewLimiter(resilience.LimiterOpts{PerSecond: 5, Burst: 10}),
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		retry: fn.RetryOpts{
			MaxAttempts: 2,
			InitialWait: 300 * time.Millisecond,
			MaxWait:     2 * time.Second,
			Jitter:      true,
		},
	}
}

// getJSON fetches url with the bearer key (if any) and decodes the body into
// out. Only network-level failures are retried; auth, not-found, upstream,
// and schema errors are final on the first response.
func (c *client) getJSON(ctx context.Context, url, bearer string, out any) error {
	var terminal error
	result := fn.Retry(ctx, c.retry, func(ctx context.Context) fn.Result[[]byte] {
		body, err := c.guardedFetch(ctx, url, bearer)
		if err != nil {
			if errors.Is(err, domain.ErrNetwork) {
				return fn.Err[[]byte](err)
			}
			terminal = err
			return fn.Ok[[]byte](nil)
		}
		return fn.Ok(body)
	})

	body, err := result.Unwrap()
	if err == nil {
		err = terminal
	}
	if err != nil {
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			return err
		}
		return domain.NewProviderError(c.name, domain.ErrNetwork, "", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewProviderError(c.name, domain.ErrDecode, "unexpected response schema", err)
	}
	return nil
}

// guardedFetch runs one fetch attempt through the limiter and breaker. Only
// transport and upstream failures count against the breaker; an unknown VIN
// or a bad key is the provider answering, not the provider failing.
func (c *client) guardedFetch(ctx context.Context, url, bearer string) ([]byte, error) {
	var body []byte
	var outcome error
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.NewProviderError(c.name, domain.ErrNetwork, "rate limit wait", err)
		}
		var fetchErr error
		body, fetchErr = c.fetch(ctx, url, bearer)
		if fetchErr != nil && !breakerFailure(fetchErr) {
			outcome = fetchErr
			return nil
		}
		return fetchErr
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, domain.NewProviderError(c.name, domain.ErrNetwork, "circuit open", err)
	}
	if err == nil {
		err = outcome
	}
	return body, err
}

// breakerFailure reports whether err indicates provider ill-health.
func breakerFailure(err error) bool {
	return errors.Is(err, domain.ErrNetwork) || errors.Is(err, domain.ErrUpstream)
}

func (c *client) fetch(ctx context.Context, url, bearer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewProviderError(c.name, domain.ErrNetwork, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "vinsight/1.0")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewProviderError(c.name, domain.ErrNetwork, "", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.NewProviderError(c.name, domain.ErrUnauthorized, resp.Status, nil)
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.NewProviderError(c.name, domain.ErrNotFound, "", nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, domain.NewProviderError(c.name, domain.ErrUpstream, resp.Status, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewProviderError(c.name, domain.ErrNetwork, "read body", err)
	}
	return body, nil
}
