package inference

import (
	"context"
	"io"
)

// NoOutputSentinel is the text reported when the model produced nothing.
const NoOutputSentinel = "No response generated"

// Request is one multimodal inference call. Image is base64 encoded JPEG
// data and may be empty.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Image        string
}

// Response is either *StreamingBody or *CompleteText.
type Response interface {
	isResponse()
}

// StreamingBody is a live upstream byte stream of newline delimited
// "data: {json}" records. The consumer must close Body.
type StreamingBody struct {
	Body io.ReadCloser
}

// CompleteText is a finished upstream answer.
type CompleteText struct {
	Text string
}

func (*StreamingBody) isResponse() {}
func (*CompleteText) isResponse()  {}

// Gateway submits a request to the vision model.
type Gateway interface {
	Infer(ctx context.Context, req Request) (Response, error)
}

// TextRunner runs a plain chat completion and returns the full answer.
type TextRunner interface {
	Run(ctx context.Context, model string, messages []Message, opts RunOptions) (string, error)
}

type RunOptions struct {
	MaxTokens   int
	Temperature *float64
}

type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// Messages builds the system and user messages for req.
func (r Request) Messages() []Message {
	messages := []Message{{Role: "system", Content: r.SystemPrompt}}

	if r.Image == "" {
		return append(messages, Message{Role: "user", Content: r.UserPrompt})
	}

	return append(messages, Message{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: r.UserPrompt},
			{Type: "image_url", ImageURL: &ImageURL{URL: "data:image/jpeg;base64," + r.Image}},
		},
	})
}
