package maplib

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

type httpClient struct {
	userAgent      string
	client         *http.Client
	circuitBreaker *circuitBreaker
}

func (h httpClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", h.userAgent)

	if err := h.circuitBreaker.Allow(); err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)

	switch {
	case err != nil && req.Context().Err() != nil:
		h.circuitBreaker.Release()

		return nil, err
	case err != nil:
		h.circuitBreaker.Report(false)

		return nil, err
	case resp.StatusCode >= http.StatusInternalServerError:
		io.Copy(io.Discard, resp.Body) // nolint: errcheck
		resp.Body.Close()

		h.circuitBreaker.Report(false)

		return nil, fmt.Errorf("netloc has responded with %s", resp.Status)
	}

	h.circuitBreaker.Report(true)

	return resp, nil
}

// NewHTTPClient prepares a new HTTP client for providers: sets a user
// agent and wraps it with a circuit breaker. Only transport errors and
// 5xx responses are treated as failures; 4xx responses are returned as
// is.
//
// A meaning of circuit breaker parameters:
//
// circuitBreakerOpenThreshold - a number of failures after which
// circuit breaker becomes OPEN and blocks access to a target.
//
// circuitBreakerHalfOpenTimeout - how long circuit breaker stays OPEN.
// After this period it goes into HALF_OPEN state where a single attempt
// is allowed. If this attempt fails, it is OPEN again. If it succeeds,
// it is CLOSED.
//
// circuitBreakerResetFailuresTimeout - a period after which a counter
// of failures is reset while circuit breaker is CLOSED.
func NewHTTPClient(client *http.Client,
	userAgent string,
	circuitBreakerOpenThreshold uint32,
	circuitBreakerHalfOpenTimeout, circuitBreakerResetFailuresTimeout time.Duration) HTTPClient {
	return httpClient{
		userAgent: userAgent,
		client:    client,
		circuitBreaker: newCircuitBreaker(circuitBreakerOpenThreshold,
			circuitBreakerHalfOpenTimeout,
			circuitBreakerResetFailuresTimeout),
	}
}
