// Package sse writes and reads relay events in server-sent events framing:
// one "data: <json>" line followed by a blank line per event.
package sse

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/phambaophuc/artwork-critic/internal/models"
)

const (
	dataField  = "data:"
	dataPrefix = dataField + " "
)

var ErrStreamingUnsupported = errors.New("response writer does not support flushing")

func SetHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Writer flushes every event as soon as it is encoded.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &Writer{w: w, flusher: flusher}, nil
}

func (s *Writer) Emit(event models.RelayEvent) error {
	if err := Encode(s.w, event); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func Encode(w io.Writer, event models.RelayEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s%s\n\n", dataPrefix, payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Reader decodes events written by Writer.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next event, or io.EOF at the end of the stream.
func (s *Reader) Next() (models.RelayEvent, error) {
	var data []string
	for {
		line, err := s.r.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")

		switch {
		case strings.HasPrefix(trimmed, dataField):
			// a single space after the colon is optional framing
			value := strings.TrimPrefix(trimmed, dataField)
			data = append(data, strings.TrimPrefix(value, " "))
		case trimmed == "" && len(data) > 0:
			return decode(data)
		}

		if err != nil {
			if errors.Is(err, io.EOF) && len(data) > 0 {
				return decode(data)
			}
			return models.RelayEvent{}, err
		}
	}
}

// ReadAll decodes every event in r.
func ReadAll(r io.Reader) ([]models.RelayEvent, error) {
	reader := NewReader(r)
	var events []models.RelayEvent
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

func decode(data []string) (models.RelayEvent, error) {
	var event models.RelayEvent
	if err := json.Unmarshal([]byte(strings.Join(data, "\n")), &event); err != nil {
		return models.RelayEvent{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}
