package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the Cloudflare Workers AI REST API.
type Client struct {
	baseURL     string
	accountID   string
	apiToken    string
	model       string
	maxTokens   int
	temperature float64
	stream      bool
	timeout     time.Duration
	httpClient  *http.Client
	logger      *zap.Logger
}

type Config struct {
	BaseURL     string
	AccountID   string
	APIToken    string
	Model       string
	MaxTokens   int
	Temperature float64
	// Stream asks the provider for an event stream. Providers may still
	// answer with a single JSON envelope.
	Stream bool
	// RequestTimeout bounds the wait for response headers, and the whole
	// call for non-streaming requests.
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

type runRequest struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type envelope struct {
	Result *struct {
		Response *string `json:"response"`
	} `json:"result"`
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.AccountID == "" || cfg.APIToken == "" {
		return nil, errors.New("inference: account id and api token required")
	}
	if cfg.Model == "" {
		return nil, errors.New("inference: model required")
	}

	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.cloudflare.com/client/v4"
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No Client.Timeout: it would cut long streams short.
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: timeout,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:     baseURL,
		accountID:   cfg.AccountID,
		apiToken:    cfg.APIToken,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		stream:      cfg.Stream,
		timeout:     timeout,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Infer runs the vision model. The caller owns the returned response and
// must close a StreamingBody.
func (c *Client) Infer(ctx context.Context, req Request) (Response, error) {
	temperature := c.temperature
	body := runRequest{
		Messages:    req.Messages(),
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
		Stream:      c.stream,
	}

	resp, err := c.post(ctx, "infer", c.model, body)
	if err != nil {
		return nil, err
	}

	if isEventStream(resp.Header.Get("Content-Type")) {
		c.logger.Debug("Upstream answered with event stream", zap.String("model", c.model))
		return &StreamingBody{Body: resp.Body}, nil
	}

	defer resp.Body.Close()
	text, err := decodeEnvelope("infer", resp.Body)
	if err != nil {
		return nil, err
	}
	return &CompleteText{Text: text}, nil
}

// Run performs a non-streaming chat call against model.
func (c *Client) Run(ctx context.Context, model string, messages []Message, opts RunOptions) (string, error) {
	if model == "" {
		model = c.model
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.post(ctx, "run", model, runRequest{
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if isEventStream(resp.Header.Get("Content-Type")) {
		return ReadAll(&StreamingBody{Body: io.NopCloser(resp.Body)}, nil)
	}
	return decodeEnvelope("run", resp.Body)
}

func (c *Client) post(ctx context.Context, op, model string, body runRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &UpstreamError{Op: op, Message: "encode request", Err: err}
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &UpstreamError{Op: op, Message: "create request", Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")
	if body.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &UpstreamError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	return resp, nil
}

func decodeEnvelope(op string, r io.Reader) (string, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return "", &UpstreamError{Op: op, Message: "malformed response", Err: err}
	}

	if !env.Success && len(env.Errors) > 0 {
		return "", &UpstreamError{Op: op, Message: env.Errors[0].Message}
	}
	if env.Result == nil || env.Result.Response == nil {
		return NoOutputSentinel, nil
	}
	return *env.Result.Response, nil
}

func errorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Errors) > 0 && env.Errors[0].Message != "" {
		return env.Errors[0].Message
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty error body"
	}
	return msg
}

func isEventStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/event-stream"
}
