package handlers

import (
	"context"

	"github.com/phambaophuc/artwork-critic/internal/models"
	"github.com/phambaophuc/artwork-critic/internal/services/processor"
)

type ImagePreparer interface {
	PrepareImage(payload string) (*processor.PreparedImage, error)
}

type AudioGenerator interface {
	Generate(ctx context.Context, text, voiceID string) (*models.AudioRef, bool, error)
}

// BlobStore is the storage side the handlers read from directly.
type BlobStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
	GetCacheStats(ctx context.Context) (map[string]interface{}, error)
	HealthCheck(ctx context.Context) map[string]string
}

type EventPublisher interface {
	PublishAnalysisEvent(ctx context.Context, event models.AnalysisEvent) error
	GetQueueStats() (map[string]interface{}, error)
	HealthCheck() string
}
