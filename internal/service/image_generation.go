package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/basel-ax/promptpix/internal/domain"
	"github.com/basel-ax/promptpix/internal/logger"
	"github.com/basel-ax/promptpix/internal/metrics"
)

// ImageGenerationService runs the authenticate, generate, store, persist and history steps
// as one unit. It keeps no state between runs.
type ImageGenerationService struct {
	auth      *Authenticator
	generator domain.ImageGenerator
	store     domain.ArtifactStore
	repo      domain.ImageRepository
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewImageGenerationService creates a new image generation service
func NewImageGenerationService(
	auth *Authenticator,
	generator domain.ImageGenerator,
	store domain.ArtifactStore,
	repo domain.ImageRepository,
	m *metrics.Metrics,
) *ImageGenerationService {
	return &ImageGenerationService{
		auth:      auth,
		generator: generator,
		store:     store,
		repo:      repo,
		metrics:   m,
		now:       time.Now,
	}
}

// Generate runs one pipeline. It returns either a complete result or an error, never both.
func (s *ImageGenerationService) Generate(ctx context.Context, credential, prompt string) (*domain.GenerationResult, error) {
	log := logger.FromContext(ctx)

	if !s.auth.Authorize(credential) {
		s.metrics.ObservePipeline(metrics.OutcomeUnauthorized)
		return nil, domain.ErrUnauthorized
	}
	if err := validatePrompt(prompt); err != nil {
		s.metrics.ObservePipeline(metrics.OutcomeInvalid)
		return nil, err
	}

	log.Info("generating image", zap.Int("prompt_length", len(prompt)))
	log.Debug("prompt", zap.String("prompt", prompt))

	start := s.now()
	img, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.metrics.ObservePipeline(metrics.OutcomeUpstream)
		var upstream *domain.UpstreamError
		if !errors.As(err, &upstream) {
			err = &domain.UpstreamError{Err: err}
		}
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	imageURL, err := s.store.Put(ctx, img.Data, img.ContentType)
	if err != nil {
		s.metrics.ObservePipeline(metrics.OutcomeStorage)
		var storage *domain.StorageError
		if !errors.As(err, &storage) {
			err = &domain.StorageError{Err: err}
		}
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	generationTime := s.now().Sub(start).Seconds()
	if generationTime < 0 {
		generationTime = 0
	}
	s.metrics.ObserveGeneration(generationTime)

	id, err := s.repo.Append(ctx, prompt, imageURL, generationTime)
	if err != nil {
		// No compensating delete: the artifact stays behind without a record
		log.Warn("stored artifact left unreferenced", zap.String("image_url", imageURL), zap.Error(err))
		s.metrics.ObservePipeline(metrics.OutcomePersistence)
		return nil, fmt.Errorf("failed to save record: %w", asPersistenceError("append", err))
	}

	records, err := s.repo.Recent(ctx, domain.MaxHistory)
	if err != nil {
		s.metrics.ObservePipeline(metrics.OutcomePersistence)
		return nil, fmt.Errorf("failed to load history: %w", asPersistenceError("recent", err))
	}

	log.Info("image generated",
		zap.String("record_id", id),
		zap.String("image_url", imageURL),
		zap.Float64("generation_time", generationTime),
		zap.Int("history", len(records)),
	)
	s.metrics.ObservePipeline(metrics.OutcomeSuccess)

	return &domain.GenerationResult{
		ImageURL: imageURL,
		Records:  records,
	}, nil
}

// validatePrompt accepts any non-empty text that PostgreSQL can store. Whitespace is
// passed through untouched.
func validatePrompt(prompt string) error {
	if prompt == "" {
		return domain.ErrInvalidPrompt
	}
	// TEXT columns cannot hold NUL; the artifact would be uploaded and never recorded
	if strings.ContainsRune(prompt, 0) {
		return fmt.Errorf("%w: contains NUL character", domain.ErrInvalidPrompt)
	}
	return nil
}

func asPersistenceError(op string, err error) error {
	var persist *domain.PersistenceError
	if errors.As(err, &persist) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

// FailureKind names the pipeline step that produced err, for logging
func FailureKind(err error) string {
	var (
		upstream *domain.UpstreamError
		storage  *domain.StorageError
		persist  *domain.PersistenceError
	)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return metrics.OutcomeUnauthorized
	case errors.Is(err, domain.ErrInvalidPrompt):
		return metrics.OutcomeInvalid
	case errors.As(err, &upstream):
		return metrics.OutcomeUpstream
	case errors.As(err, &storage):
		return metrics.OutcomeStorage
	case errors.As(err, &persist):
		return metrics.OutcomePersistence
	default:
		return "unknown"
	}
}
