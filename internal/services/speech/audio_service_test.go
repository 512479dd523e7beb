package speech

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phambaophuc/artwork-critic/internal/models"
	"github.com/phambaophuc/artwork-critic/internal/services/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSynth struct {
	calls int
	voice string
	audio []byte
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	f.calls++
	f.voice = voiceID
	return f.audio, f.err
}

type fakeStore struct {
	paths []string
	err   error
}

func (f *fakeStore) Upload(ctx context.Context, data []byte, path, contentType string) (*storage.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.paths = append(f.paths, path)
	return &storage.UploadResult{Path: path, URL: "https://cdn.example/" + path}, nil
}

type memoryCache struct {
	refs   map[string]*models.AudioRef
	getErr error
	setErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{refs: map[string]*models.AudioRef{}}
}

func (m *memoryCache) GetAudioRef(ctx context.Context, key string) (*models.AudioRef, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.refs[key], nil
}

func (m *memoryCache) SetAudioRef(ctx context.Context, key string, ref *models.AudioRef) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.refs[key] = ref
	return nil
}

func newTestAudioService(synth Synthesizer, store BlobStore, cache RefCache) *AudioService {
	svc := NewAudioService(synth, store, cache, "default-voice", zap.NewNop())
	svc.newID = func() string { return "fixed-id" }
	svc.now = func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestAudioService_GenerateStoresAndCaches(t *testing.T) {
	synth := &fakeSynth{audio: []byte("mp3-bytes")}
	store := &fakeStore{}
	cache := newMemoryCache()
	svc := newTestAudioService(synth, store, cache)

	ref, cached, err := svc.Generate(context.Background(), "Bold strokes.", "")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "default-voice", synth.voice)
	assert.Equal(t, []string{"audio-fixed-id.mp3"}, store.paths)
	assert.Equal(t, &models.AudioRef{
		AudioID:   "fixed-id",
		BlobPath:  "audio-fixed-id.mp3",
		Filename:  "audio-fixed-id.mp3",
		URL:       "https://cdn.example/audio-fixed-id.mp3",
		Size:      len("mp3-bytes"),
		VoiceID:   "default-voice",
		CreatedAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}, ref)

	again, cached, err := svc.Generate(context.Background(), "Bold strokes.", "default-voice")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, ref, again)
	assert.Equal(t, 1, synth.calls)
}

func TestAudioService_CacheFailuresAreNotFatal(t *testing.T) {
	synth := &fakeSynth{audio: []byte("mp3")}
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")

	ref, cached, err := newTestAudioService(synth, &fakeStore{}, cache).
		Generate(context.Background(), "text", "voice")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "fixed-id", ref.AudioID)
}

func TestAudioService_WithoutCache(t *testing.T) {
	synth := &fakeSynth{audio: []byte("mp3")}
	svc := newTestAudioService(synth, &fakeStore{}, nil)

	_, _, err := svc.Generate(context.Background(), "text", "voice")
	require.NoError(t, err)
	_, _, err = svc.Generate(context.Background(), "text", "voice")
	require.NoError(t, err)
	assert.Equal(t, 2, synth.calls)
}

func TestAudioService_Failures(t *testing.T) {
	_, _, err := newTestAudioService(&fakeSynth{err: errors.New("quota")}, &fakeStore{}, nil).
		Generate(context.Background(), "text", "voice")
	assert.ErrorContains(t, err, "failed to generate audio")

	_, _, err = newTestAudioService(&fakeSynth{audio: []byte("mp3")}, &fakeStore{err: storage.ErrNotConfigured}, nil).
		Generate(context.Background(), "text", "voice")
	assert.ErrorIs(t, err, storage.ErrNotConfigured)
}
