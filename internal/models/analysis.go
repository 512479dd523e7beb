package models

import (
	"strings"
	"time"
)

type AnalysisStyle string

const (
	StyleHumorous      AnalysisStyle = "humorous"
	StyleSophisticated AnalysisStyle = "sophisticated"
	StyleMuseum        AnalysisStyle = "museum"
	StyleAcademic      AnalysisStyle = "academic"
	StyleDefault       AnalysisStyle = "default"
)

// ParseAnalysisStyle never fails: anything unrecognised is StyleDefault.
func ParseAnalysisStyle(s string) AnalysisStyle {
	switch style := AnalysisStyle(strings.ToLower(strings.TrimSpace(s))); style {
	case StyleHumorous, StyleSophisticated, StyleMuseum, StyleAcademic:
		return style
	default:
		return StyleDefault
	}
}

type AnalysisRequest struct {
	Image         string `json:"image"`
	AnalysisStyle string `json:"analysisStyle"`
	ArtistAge     *int   `json:"artistAge,omitempty"`
}

func (r *AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Image) == "" {
		return ErrImageRequired
	}
	return nil
}

func (r *AnalysisRequest) Style() AnalysisStyle {
	return ParseAnalysisStyle(r.AnalysisStyle)
}

// Age returns the artist age, or 0 when absent or not positive.
func (r *AnalysisRequest) Age() int {
	return positiveAge(r.ArtistAge)
}

// PromptPair is the system and user prompt sent to the vision model.
type PromptPair struct {
	SystemPrompt string
	UserPrompt   string
}

type AnalysisResponse struct {
	Analysis      string    `json:"analysis"`
	Model         string    `json:"model"`
	AnalysisStyle string    `json:"analysisStyle"`
	Timestamp     time.Time `json:"timestamp"`
}

type CritiqueRequest struct {
	Description string `json:"description"`
	ArtistAge   *int   `json:"artistAge,omitempty"`
}

func (r *CritiqueRequest) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return ErrDescriptionRequired
	}
	return nil
}

func (r *CritiqueRequest) Age() int {
	return positiveAge(r.ArtistAge)
}

type CritiqueResponse struct {
	Critique  string    `json:"critique"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}

type LicenseResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Response string `json:"response"`
}

func positiveAge(age *int) int {
	if age == nil || *age <= 0 {
		return 0
	}
	return *age
}
