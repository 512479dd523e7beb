package models

import (
	"strings"
	"time"
)

type AudioRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId,omitempty"`
}

func (r *AudioRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrTextRequired
	}
	return nil
}

// AudioRef points at synthesized audio stored in blob storage.
type AudioRef struct {
	AudioID   string    `json:"audioId"`
	BlobPath  string    `json:"blobPath"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url,omitempty"`
	Size      int       `json:"size"`
	VoiceID   string    `json:"voiceId"`
	CreatedAt time.Time `json:"createdAt"`
}

type AudioResponse struct {
	Success    bool      `json:"success"`
	AudioID    string    `json:"audioId"`
	BlobPath   string    `json:"blobPath"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url,omitempty"`
	Size       int       `json:"size"`
	VoiceID    string    `json:"voiceId"`
	TextLength int       `json:"textLength"`
	Cached     bool      `json:"cached"`
	Timestamp  time.Time `json:"timestamp"`
}
