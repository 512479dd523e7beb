package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/artwork-critic/internal/http/middleware"
	"github.com/phambaophuc/artwork-critic/internal/models"
	"github.com/phambaophuc/artwork-critic/internal/services/inference"
	"github.com/phambaophuc/artwork-critic/internal/services/relay"
	"github.com/phambaophuc/artwork-critic/internal/services/storage"
	"go.uber.org/zap"
)

const (
	errInvalidBody          = "Invalid request body"
	errInferenceUnavailable = "AI service not configured"

	publishTimeout = 5 * time.Second
)

var audioFilenamePattern = regexp.MustCompile(`^audio-[0-9a-f-]{36}\.mp3$`)

// === RESPONSES ===

func (h *AIHandler) respondError(c *gin.Context, status int, message string) {
	c.JSON(status, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// bindJSON decodes the request body into dst, answering 413 when the body
// exceeds the configured limit and 400 for anything else malformed.
func (h *AIHandler) bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.respondError(c, http.StatusRequestEntityTooLarge, middleware.BodyTooLargeMessage)
		return false
	}
	h.respondError(c, http.StatusBadRequest, errInvalidBody)
	return false
}

// respondUpstreamError maps a provider failure to 429 when quota is
// exhausted and 502 otherwise.
func (h *AIHandler) respondUpstreamError(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Error(message, zap.Error(err))

	var upstreamErr *inference.UpstreamError
	switch {
	case errors.As(err, &upstreamErr) && upstreamErr.QuotaExceeded():
		h.respondError(c, http.StatusTooManyRequests, message+": quota exceeded")
	case errors.As(err, &upstreamErr):
		h.respondError(c, http.StatusBadGateway, message)
	default:
		h.respondError(c, http.StatusInternalServerError, message)
	}
}

func (h *AIHandler) setCacheHeaders(c *gin.Context) {
	maxAge := int(h.config.Storage.CacheDuration.Seconds())
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
}

// === EVENTS ===

// publishOutcome reports a finished stream. It runs after the client may
// have gone away, so it does not inherit request cancellation.
func (h *AIHandler) publishOutcome(c *gin.Context, log *zap.Logger, style models.AnalysisStyle, res relay.Result) {
	if h.events == nil {
		return
	}

	event := models.AnalysisEvent{
		RequestID:   middleware.GetRequestID(c),
		Style:       string(style),
		Model:       h.config.Inference.VisionModel,
		Mode:        res.Mode,
		Chunks:      res.Chunks,
		Outcome:     res.Outcome,
		DurationMs:  res.Duration.Milliseconds(),
		CompletedAt: h.now().UTC(),
	}
	if res.Err != nil {
		event.Error = res.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), publishTimeout)
	defer cancel()

	if err := h.events.PublishAnalysisEvent(ctx, event); err != nil {
		log.Warn("Failed to publish analysis event", zap.Error(err))
	}
}

// === UTILITY METHODS ===

func skipLogger(log *zap.Logger) inference.SkipFunc {
	return func(line string, err error) {
		log.Debug("Skipped upstream record", zap.String("record", line), zap.Error(err))
	}
}

func isNotConfigured(err error) bool {
	return errors.Is(err, storage.ErrNotConfigured)
}

func calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
