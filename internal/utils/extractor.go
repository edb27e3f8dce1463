package utils

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Extractor derives the rate limiting identifier from an HTTP request,
// for example a forwarded-for header or the peer address. It must not
// read the request body.
type Extractor interface {
	Extract(r *http.Request) (string, error)
}

type httpHeaderExtractor struct {
	headers []string
}

// NewHTTPHeadersExtractor builds an extractor that joins the given
// header values into one identifier. Use headers that are unique per
// client.
func NewHTTPHeadersExtractor(headers ...string) Extractor {
	return &httpHeaderExtractor{headers: headers}
}

func (h *httpHeaderExtractor) Extract(r *http.Request) (string, error) {
	values := make([]string, 0, len(h.headers))

	for _, key := range h.headers {
		value := strings.TrimSpace(r.Header.Get(key))
		if value == "" {
			return "", fmt.Errorf("the header %v must have a value set", key)
		}
		values = append(values, value)
	}

	return strings.Join(values, "-"), nil
}

type clientIPExtractor struct{}

// NewClientIPExtractor identifies callers by IP: the first address in
// X-Forwarded-For when present, otherwise the peer address.
func NewClientIPExtractor() Extractor {
	return &clientIPExtractor{}
}

func (e *clientIPExtractor) Extract(r *http.Request) (string, error) {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first, nil
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. in tests.
		return r.RemoteAddr, nil
	}
	return host, nil
}
