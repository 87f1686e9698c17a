package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/basel-ax/promptpix/internal/domain"
	"github.com/basel-ax/promptpix/internal/logger"
	"github.com/basel-ax/promptpix/internal/service"
)

// SecretHeader carries the shared API secret
const SecretHeader = "X-API-SECRET"

const failureMessage = "Failed to process request"

// Pipeline runs one image generation for a credential and prompt
type Pipeline interface {
	Generate(ctx context.Context, credential, prompt string) (*domain.GenerationResult, error)
}

type generateRequest struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Success  bool                 `json:"success"`
	ImageURL string               `json:"imageUrl"`
	Records  []domain.ImageRecord `json:"records"`
}

type errorResponse struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
}

// ImageHandler serves the image generation endpoint
type ImageHandler struct {
	pipeline Pipeline
}

// NewImageHandler creates a handler backed by pipeline
func NewImageHandler(pipeline Pipeline) *ImageHandler {
	return &ImageHandler{pipeline: pipeline}
}

// Generate handles POST /api/generate-image
func (h *ImageHandler) Generate(c *gin.Context) {
	credential := c.GetHeader(SecretHeader)
	log := logger.FromContext(c.Request.Context())

	// An unreadable body becomes an empty prompt so the credential check still answers first
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("invalid request body", zap.Error(err))
		req.Text = ""
	}

	// The run completes even if the client goes away
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.pipeline.Generate(ctx, credential, req.Text)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, domain.ErrUnauthorized) {
			log.Warn("rejected request", zap.String("reason", "invalid api secret"))
			c.JSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
			return
		}
		log.Error("image generation failed",
			zap.String("failure", service.FailureKind(err)),
			zap.Error(err),
		)
		success := false
		c.JSON(http.StatusInternalServerError, errorResponse{Success: &success, Error: failureMessage})
		return
	}

	records := result.Records
	if records == nil {
		records = []domain.ImageRecord{}
	}
	c.JSON(http.StatusOK, generateResponse{
		Success:  true,
		ImageURL: result.ImageURL,
		Records:  records,
	})
}
