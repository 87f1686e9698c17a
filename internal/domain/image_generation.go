package domain

import (
	"context"
)

// GeneratedImage is the raw payload returned by the generation backend
type GeneratedImage struct {
	Data        []byte
	ContentType string
}

// GenerationResult is the outcome of a successful pipeline run
type GenerationResult struct {
	ImageURL string
	Records  []ImageRecord
}

// ImageGenerator turns a prompt into image bytes
type ImageGenerator interface {
	// Generate makes a single request to the backend; it never retries
	Generate(ctx context.Context, prompt string) (*GeneratedImage, error)
}

// ArtifactStore persists image payloads under fresh, publicly resolvable names
type ArtifactStore interface {
	// Put uploads data and returns its public URL
	Put(ctx context.Context, data []byte, contentType string) (string, error)

	// List returns every stored artifact
	List(ctx context.Context) ([]StoredObject, error)
}

// ImageRepository appends and reads generation records
type ImageRepository interface {
	Append(ctx context.Context, prompt, imageURL string, generationTime float64) (string, error)
	Recent(ctx context.Context, limit int) ([]ImageRecord, error)
	ImageURLs(ctx context.Context) ([]string, error)
}
