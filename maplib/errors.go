package maplib

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMapperShutdown       = errors.New("mapper instance was shutdown")
	ErrInvalidChunkSize     = errors.New("chunk size should be positive")
	ErrInvalidBatch         = errors.New("invalid batch")
	ErrCircuitBreakerOpened = errors.New("circuit breaker is opened")
)

// BatchLimitError is returned if batch has more keys than it is allowed
// to process. No lookup is done in that case.
type BatchLimitError struct {
	Limit    int
	Received int
}

func (b *BatchLimitError) Error() string {
	return fmt.Sprintf("batch is too large (limit: %d, received: %d)", b.Limit, b.Received)
}

func (b *BatchLimitError) Unwrap() error {
	return ErrInvalidBatch
}

type jsonHTTPError struct {
	Error struct {
		Message  string `json:"message"`
		Context  string `json:"context"`
		Limit    int    `json:"limit,omitempty"`
		Received int    `json:"received,omitempty"`
	} `json:"error"`
}

type httpError struct {
	message    string
	err        error
	statusCode int
}

func (h *httpError) Message() string {
	if h == nil {
		return ""
	}

	return h.message
}

func (h *httpError) Err() string {
	if err := errors.Unwrap(h); err != nil {
		return err.Error()
	}

	return ""
}

func (h *httpError) StatusCode() int {
	if h != nil && h.statusCode != 0 {
		return h.statusCode
	}

	return http.StatusInternalServerError
}

func (h *httpError) Unwrap() error {
	if h == nil {
		return nil
	}

	return h.err
}

func (h *httpError) Error() string {
	switch {
	case h == nil:
		return ""
	case h.err != nil && h.message != "":
		return h.message + ": " + h.err.Error()
	case h.err != nil:
		return h.err.Error()
	}

	return h.message
}

func (h *httpError) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("null"), nil
	}

	value := jsonHTTPError{}
	value.Error.Message = h.Message()
	value.Error.Context = h.Err()

	var limitErr *BatchLimitError

	if errors.As(h.err, &limitErr) {
		value.Error.Limit = limitErr.Limit
		value.Error.Received = limitErr.Received
	}

	return json.Marshal(&value)
}
