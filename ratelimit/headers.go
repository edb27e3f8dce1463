package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

const (
	headerRemaining  = "X-RateLimit-Remaining"
	headerReset      = "X-RateLimit-Reset"
	headerRetryAfter = "Retry-After"
)

// RateLimitHeaders translates a Result into response headers, for both
// allowed and denied responses. Retry-After appears only on denials.
func RateLimitHeaders(result Result) http.Header {
	headers := http.Header{}
	headers.Set(headerRemaining, strconv.Itoa(result.Remaining))
	headers.Set(headerReset, strconv.FormatInt(result.ResetTime.UnixMilli(), 10))
	if !result.Allowed {
		headers.Set(headerRetryAfter, strconv.FormatInt(int64(result.RetryAfter/time.Second), 10))
	}
	return headers
}
