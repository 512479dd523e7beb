package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewElevenLabsClient_RequiresKey(t *testing.T) {
	_, err := NewElevenLabsClient(Config{}, nil)
	assert.Error(t, err)
}

func TestElevenLabsClient_Synthesize(t *testing.T) {
	var got ttsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "mp3_44100_128", r.URL.Query().Get("output_format"))
		assert.Equal(t, "secret", r.Header.Get("xi-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake-mp3"))
	}))
	defer srv.Close()

	client, err := NewElevenLabsClient(Config{APIKey: "secret", BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	audio, err := client.Synthesize(context.Background(), "A bold use of crayon.", "voice-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3fake-mp3"), audio)

	assert.Equal(t, "A bold use of crayon.", got.Text)
	assert.Equal(t, "eleven_multilingual_v2", got.ModelID)
	assert.Equal(t, DefaultVoiceSettings, got.VoiceSettings)
}

func TestElevenLabsClient_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	defer srv.Close()

	client, err := NewElevenLabsClient(Config{APIKey: "bad", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "text", "voice")
	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
	assert.Contains(t, providerErr.Body, "invalid api key")
}

func TestElevenLabsClient_EmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client, err := NewElevenLabsClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.Synthesize(context.Background(), "text", "voice")
	assert.Error(t, err)
}
