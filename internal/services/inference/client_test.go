package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, stream bool) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:     srv.URL,
		AccountID:   "acct",
		APIToken:    "token",
		Model:       "@cf/meta/llama-3.2-11b-vision-instruct",
		MaxTokens:   800,
		Temperature: 0.8,
		Stream:      stream,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{Model: "m"}, nil)
	assert.Error(t, err)

	_, err = NewClient(Config{AccountID: "a", APIToken: "t"}, nil)
	assert.Error(t, err)
}

func TestClient_Infer_CompleteText(t *testing.T) {
	var got runRequest
	var rawMessages []map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acct/ai/run/@cf/meta/llama-3.2-11b-vision-instruct", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		var raw struct {
			Messages []map[string]any `json:"messages"`
		}
		assert.NoError(t, json.Unmarshal(body, &raw))
		rawMessages = raw.Messages

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"response":"a fine painting"},"success":true,"errors":[]}`))
	}, false)

	resp, err := client.Infer(context.Background(), Request{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Image:        "aGVsbG8=",
	})
	require.NoError(t, err)

	text, ok := resp.(*CompleteText)
	require.True(t, ok)
	assert.Equal(t, "a fine painting", text.Text)

	assert.Equal(t, 800, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.8, *got.Temperature, 1e-9)
	assert.False(t, got.Stream)

	require.Len(t, rawMessages, 2)
	assert.Equal(t, "system", rawMessages[0]["role"])
	parts, ok := rawMessages[1]["content"].([]any)
	require.True(t, ok)
	require.Len(t, parts, 2)
	imagePart := parts[1].(map[string]any)
	assert.Equal(t, "image_url", imagePart["type"])
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", imagePart["image_url"].(map[string]any)["url"])
}

func TestClient_Infer_StreamingBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"response\":\"a\"}\n\ndata: {\"response\":\"b\"}\n\ndata: [DONE]\n\n"))
	}, true)

	resp, err := client.Infer(context.Background(), Request{SystemPrompt: "s", UserPrompt: "u"})
	require.NoError(t, err)

	body, ok := resp.(*StreamingBody)
	require.True(t, ok)

	text, err := ReadAll(body, nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", text)
}

func TestClient_Infer_MissingResponseIsSentinel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{},"success":true,"errors":[]}`))
	}, false)

	resp, err := client.Infer(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, &CompleteText{Text: NoOutputSentinel}, resp)
}

func TestClient_Infer_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
		quota   bool
		message string
	}{
		{
			name: "quota",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":3036,"message":"daily free allocation exceeded"}]}`))
			},
			status:  http.StatusTooManyRequests,
			quota:   true,
			message: "daily free allocation exceeded",
		},
		{
			name: "server error plain body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream exploded", http.StatusBadGateway)
			},
			status:  http.StatusBadGateway,
			message: "upstream exploded",
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"result":`))
			},
			message: "malformed response",
		},
		{
			name: "unsuccessful envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":5006,"message":"model rejected input"}]}`))
			},
			message: "model rejected input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler, false)

			_, err := client.Infer(context.Background(), Request{})
			require.Error(t, err)

			var upstreamErr *UpstreamError
			require.True(t, errors.As(err, &upstreamErr))
			assert.Equal(t, tt.status, upstreamErr.StatusCode)
			assert.Equal(t, tt.quota, upstreamErr.QuotaExceeded())
			assert.Contains(t, upstreamErr.Error(), tt.message)
		})
	}
}

func TestClient_Infer_TransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, false)
	client.baseURL = "http://127.0.0.1:1"

	_, err := client.Infer(context.Background(), Request{})
	assert.True(t, IsUpstreamError(err))
}

func TestClient_Run(t *testing.T) {
	var got runRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acct/ai/run/@cf/meta/llama-3.1-8b-instruct", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"response":"I agree."},"success":true,"errors":[]}`))
	}, true)

	text, err := client.Run(context.Background(), "@cf/meta/llama-3.1-8b-instruct",
		[]Message{{Role: "user", Content: "agree"}}, RunOptions{MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "I agree.", text)
	assert.Equal(t, 10, got.MaxTokens)
	assert.Nil(t, got.Temperature)
	assert.False(t, got.Stream)
}

func TestRequest_MessagesWithoutImage(t *testing.T) {
	messages := Request{SystemPrompt: "s", UserPrompt: "u"}.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "u", messages[1].Content)
}
