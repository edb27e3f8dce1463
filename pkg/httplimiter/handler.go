// Package httplimiter wraps an http.Handler with rate limit admission
// control backed by a ratelimit.Limiter.
package httplimiter

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/internal/utils"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/log"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/ratelimit"
)

// Config defines the configuration for the admission handler.
type Config struct {
	Extractor utils.Extractor
	Limiter   *ratelimit.Limiter
	Preset    ratelimit.PresetName
}

type admissionHandler struct {
	handler http.Handler
	config  *Config
}

// NewHandler wraps an existing http.Handler, running a rate limit check
// before the request reaches it. Denied requests receive a 429 with
// rate limit headers and never reach the wrapped handler; allowed
// requests carry the same headers so clients can track their quota.
func NewHandler(originalHandler http.Handler, config *Config) http.Handler {
	return &admissionHandler{
		handler: originalHandler,
		config:  config,
	}
}

func (h *admissionHandler) writeResponse(writer http.ResponseWriter, status int, msg string, args ...interface{}) {
	writer.Header().Set("Content-Type", "text/plain")
	writer.WriteHeader(status)
	if _, err := writer.Write([]byte(fmt.Sprintf(msg, args...))); err != nil {
		log.Logger().Error("failed to write response body", zap.Error(err))
	}
}

func (h *admissionHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	identifier, err := h.config.Extractor.Extract(request)
	if err != nil {
		h.writeResponse(writer, http.StatusBadRequest, "failed to collect rate limiting key from request: %v", err)
		return
	}

	result := h.config.Limiter.Check(request.Context(), identifier, h.config.Preset)

	// Set the rate limit headers on allow and deny alike so the client
	// always knows where it stands.
	for name, values := range ratelimit.RateLimitHeaders(result) {
		for _, value := range values {
			writer.Header().Set(name, value)
		}
	}

	if !result.Allowed {
		log.Logger().Info("request denied by rate limit",
			zap.String("decisionId", uuid.NewString()),
			zap.String("preset", string(h.config.Preset)),
			zap.String("identifier", identifier),
			zap.Duration("retryAfter", result.RetryAfter))
		h.writeResponse(writer, http.StatusTooManyRequests, "you have sent too many requests to this service, slow down please")
		return
	}

	h.handler.ServeHTTP(writer, request)
}
