package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/artwork-critic/internal/config"
	"github.com/phambaophuc/artwork-critic/internal/http/middleware"
	"github.com/phambaophuc/artwork-critic/internal/http/sse"
	"github.com/phambaophuc/artwork-critic/internal/models"
	"github.com/phambaophuc/artwork-critic/internal/services/inference"
	"github.com/phambaophuc/artwork-critic/internal/services/processor"
	"github.com/phambaophuc/artwork-critic/internal/services/prompt"
	"github.com/phambaophuc/artwork-critic/internal/services/relay"
	"go.uber.org/zap"
)

const (
	critiqueMaxTokens   = 500
	critiqueTemperature = 0.7
	licenseMaxTokens    = 10
)

// AIHandlerDeps collects the services behind the AI endpoints. Any of them
// may be nil when the backing provider is not configured; the affected
// endpoints then answer 503.
type AIHandlerDeps struct {
	Relay   *relay.Relay
	Gateway inference.Gateway
	Runner  inference.TextRunner
	Images  ImagePreparer
	Audio   AudioGenerator
	Store   BlobStore
	Events  EventPublisher
}

type AIHandler struct {
	relay   *relay.Relay
	gateway inference.Gateway
	runner  inference.TextRunner
	images  ImagePreparer
	audio   AudioGenerator
	store   BlobStore
	events  EventPublisher
	logger  *zap.Logger
	config  *config.Config
	now     func() time.Time
}

func NewAIHandler(deps AIHandlerDeps, logger *zap.Logger, config *config.Config) *AIHandler {
	return &AIHandler{
		relay:   deps.Relay,
		gateway: deps.Gateway,
		runner:  deps.Runner,
		images:  deps.Images,
		audio:   deps.Audio,
		store:   deps.Store,
		events:  deps.Events,
		logger:  logger,
		config:  config,
		now:     time.Now,
	}
}

// === MAIN API ENDPOINTS ===

// VisionAnalysisStream validates the request, then relays the vision model
// output to the client as server-sent events. Errors after the stream opens
// are reported in-stream.
func (h *AIHandler) VisionAnalysisStream(c *gin.Context) {
	log := middleware.RequestLogger(c, h.logger)

	req, image, ok := h.bindAnalysis(c)
	if !ok {
		return
	}
	if h.relay == nil {
		h.respondError(c, http.StatusServiceUnavailable, errInferenceUnavailable)
		return
	}

	w, err := sse.NewWriter(c.Writer)
	if err != nil {
		log.Error("Streaming not supported by response writer", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	style := req.Style()
	prompts := prompt.Select(style, req.Age())

	sse.SetHeaders(c.Writer)
	c.Status(http.StatusOK)

	res := h.relay.Run(c.Request.Context(), inference.Request{
		SystemPrompt: prompts.SystemPrompt,
		UserPrompt:   prompts.UserPrompt,
		Image:        image.Base64,
	}, w, log)

	h.publishOutcome(c, log, style, res)
}

func (h *AIHandler) VisionAnalysis(c *gin.Context) {
	log := middleware.RequestLogger(c, h.logger)

	req, image, ok := h.bindAnalysis(c)
	if !ok {
		return
	}
	if h.gateway == nil {
		h.respondError(c, http.StatusServiceUnavailable, errInferenceUnavailable)
		return
	}

	style := req.Style()
	prompts := prompt.Select(style, req.Age())

	resp, err := h.gateway.Infer(c.Request.Context(), inference.Request{
		SystemPrompt: prompts.SystemPrompt,
		UserPrompt:   prompts.UserPrompt,
		Image:        image.Base64,
	})
	if err != nil {
		h.respondUpstreamError(c, log, err, "Failed to generate vision analysis")
		return
	}

	text, err := inference.ReadAll(resp, skipLogger(log))
	if err != nil {
		h.respondUpstreamError(c, log, err, "Failed to generate vision analysis")
		return
	}

	text = strings.TrimSpace(text)
	if text == "" || text == inference.NoOutputSentinel {
		h.respondError(c, http.StatusInternalServerError, "Failed to generate vision analysis")
		return
	}

	c.JSON(http.StatusOK, models.AnalysisResponse{
		Analysis:      text,
		Model:         h.config.Inference.VisionModel,
		AnalysisStyle: string(style),
		Timestamp:     h.now().UTC(),
	})
}

func (h *AIHandler) Critique(c *gin.Context) {
	log := middleware.RequestLogger(c, h.logger)

	var req models.CritiqueRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if h.runner == nil {
		h.respondError(c, http.StatusServiceUnavailable, errInferenceUnavailable)
		return
	}

	prompts := prompt.Critique(req.Description, req.Age())
	temperature := critiqueTemperature

	text, err := h.runner.Run(c.Request.Context(), h.config.Inference.CritiqueModel,
		inference.Request{SystemPrompt: prompts.SystemPrompt, UserPrompt: prompts.UserPrompt}.Messages(),
		inference.RunOptions{MaxTokens: critiqueMaxTokens, Temperature: &temperature},
	)
	if err != nil {
		h.respondUpstreamError(c, log, err, "Failed to generate critique")
		return
	}

	text = strings.TrimSpace(text)
	if text == "" || text == inference.NoOutputSentinel {
		h.respondError(c, http.StatusInternalServerError, "Failed to generate critique")
		return
	}

	c.JSON(http.StatusOK, models.CritiqueResponse{
		Critique:  text,
		Model:     h.config.Inference.CritiqueModel,
		Timestamp: h.now().UTC(),
	})
}

// AgreeLicense accepts the vision model's license, which the provider
// requires once per account before the model answers.
func (h *AIHandler) AgreeLicense(c *gin.Context) {
	log := middleware.RequestLogger(c, h.logger)

	if h.runner == nil {
		h.respondError(c, http.StatusServiceUnavailable, errInferenceUnavailable)
		return
	}

	text, err := h.runner.Run(c.Request.Context(), h.config.Inference.VisionModel,
		[]inference.Message{{Role: "user", Content: prompt.LicenseAgreement}},
		inference.RunOptions{MaxTokens: licenseMaxTokens},
	)
	if err != nil {
		h.respondUpstreamError(c, log, err, "Failed to agree to license")
		return
	}

	log.Info("Model license accepted", zap.String("model", h.config.Inference.VisionModel))
	c.JSON(http.StatusOK, models.LicenseResponse{
		Success:  true,
		Message:  "License agreed successfully",
		Response: text,
	})
}

func (h *AIHandler) GenerateAudio(c *gin.Context) {
	log := middleware.RequestLogger(c, h.logger)

	var req models.AudioRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if h.audio == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Audio service not configured")
		return
	}

	ref, cached, err := h.audio.Generate(c.Request.Context(), req.Text, req.VoiceID)
	if err != nil {
		log.Error("Audio generation failed", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to generate audio")
		return
	}

	c.JSON(http.StatusOK, models.AudioResponse{
		Success:    true,
		AudioID:    ref.AudioID,
		BlobPath:   ref.BlobPath,
		Filename:   ref.Filename,
		URL:        ref.URL,
		Size:       ref.Size,
		VoiceID:    ref.VoiceID,
		TextLength: len(req.Text),
		Cached:     cached,
		Timestamp:  h.now().UTC(),
	})
}

// GetAudio serves a previously generated narration from blob storage.
func (h *AIHandler) GetAudio(c *gin.Context) {
	log := middleware.RequestLogger(c, h.logger)

	filename := c.Param("filename")
	if !audioFilenamePattern.MatchString(filename) {
		h.respondError(c, http.StatusBadRequest, "Invalid audio filename")
		return
	}
	if h.store == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Storage not configured")
		return
	}

	data, err := h.store.Download(c.Request.Context(), filename)
	if err != nil {
		if isNotConfigured(err) {
			h.respondError(c, http.StatusServiceUnavailable, "Storage not configured")
			return
		}
		log.Warn("Audio download failed", zap.String("filename", filename), zap.Error(err))
		h.respondError(c, http.StatusNotFound, "Audio not found")
		return
	}

	h.setCacheHeaders(c)
	c.Data(http.StatusOK, "audio/mpeg", data)
}

func (h *AIHandler) bindAnalysis(c *gin.Context) (*models.AnalysisRequest, *processor.PreparedImage, bool) {
	var req models.AnalysisRequest
	if !h.bindJSON(c, &req) {
		return nil, nil, false
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}

	image, err := h.images.PrepareImage(req.Image)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, processor.ErrInvalidImage) {
			status = http.StatusBadRequest
		}
		h.respondError(c, status, err.Error())
		return nil, nil, false
	}

	return &req, image, true
}
