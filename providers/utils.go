package providers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

func parseIP(key string) (net.IP, error) {
	ip := net.ParseIP(strings.TrimSpace(key))
	if ip == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIP, key)
	}

	return ip, nil
}

func flushResponse(resp io.ReadCloser) {
	io.Copy(io.Discard, resp) // nolint: errcheck
	resp.Close()
}

func decodeJSONResponse(resp *http.Response, dst interface{}) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(bufio.NewReader(resp.Body)).Decode(dst); err != nil {
		return fmt.Errorf("cannot parse a response: %w", err)
	}

	return nil
}
