package speech

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/artwork-critic/internal/models"
	"github.com/phambaophuc/artwork-critic/internal/services/storage"
	"github.com/phambaophuc/artwork-critic/pkg/utils"
	"go.uber.org/zap"
)

const audioContentType = "audio/mpeg"

// BlobStore persists encoded audio.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, path, contentType string) (*storage.UploadResult, error)
}

// RefCache remembers where audio for a given voice and text was stored.
type RefCache interface {
	GetAudioRef(ctx context.Context, key string) (*models.AudioRef, error)
	SetAudioRef(ctx context.Context, key string, ref *models.AudioRef) error
}

// AudioService synthesizes narration and stores it as a blob.
type AudioService struct {
	synth        Synthesizer
	store        BlobStore
	cache        RefCache
	defaultVoice string
	logger       *zap.Logger
	newID        func() string
	now          func() time.Time
}

// NewAudioService accepts a nil cache, in which case every call synthesizes.
func NewAudioService(synth Synthesizer, store BlobStore, cache RefCache, defaultVoice string, logger *zap.Logger) *AudioService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudioService{
		synth:        synth,
		store:        store,
		cache:        cache,
		defaultVoice: defaultVoice,
		logger:       logger,
		newID:        func() string { return uuid.New().String() },
		now:          time.Now,
	}
}

// Generate returns a stored audio reference for text, reusing a cached one
// when the same voice already narrated the same text.
func (s *AudioService) Generate(ctx context.Context, text, voiceID string) (*models.AudioRef, bool, error) {
	if voiceID == "" {
		voiceID = s.defaultVoice
	}

	cacheKey := storage.AudioCacheKey(voiceID, text)
	if ref := s.lookup(ctx, cacheKey); ref != nil {
		s.logger.Info("Audio cache hit", zap.String("audio_id", ref.AudioID))
		return ref, true, nil
	}

	s.logger.Info("Generating audio",
		zap.Int("text_length", len(text)),
		zap.String("voice_id", voiceID))

	audio, err := s.synth.Synthesize(ctx, text, voiceID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate audio: %w", err)
	}

	audioID := s.newID()
	filename := utils.AudioFilename(audioID)

	uploaded, err := s.store.Upload(ctx, audio, filename, audioContentType)
	if err != nil {
		return nil, false, fmt.Errorf("failed to store audio: %w", err)
	}

	ref := &models.AudioRef{
		AudioID:   audioID,
		BlobPath:  uploaded.Path,
		Filename:  filename,
		URL:       uploaded.URL,
		Size:      len(audio),
		VoiceID:   voiceID,
		CreatedAt: s.now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.SetAudioRef(ctx, cacheKey, ref); err != nil {
			s.logger.Warn("Failed to cache audio reference", zap.String("audio_id", audioID), zap.Error(err))
		}
	}

	s.logger.Info("Audio stored",
		zap.String("audio_id", audioID),
		zap.String("blob_path", ref.BlobPath),
		zap.Int("size", ref.Size))

	return ref, false, nil
}

func (s *AudioService) lookup(ctx context.Context, key string) *models.AudioRef {
	if s.cache == nil {
		return nil
	}
	ref, err := s.cache.GetAudioRef(ctx, key)
	if err != nil {
		s.logger.Warn("Audio cache lookup failed", zap.Error(err))
		return nil
	}
	return ref
}
