package inference

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const (
	recordPrefix = "data: "
	doneMarker   = "[DONE]"
)

// SkipFunc observes records dropped by a RecordReader. err is nil when the
// record parsed but carried no payload.
type SkipFunc func(line string, err error)

// RecordReader decodes the upstream "data: {json}" framing one record at a
// time. Lines that do not carry the prefix are ignored; records that fail
// to parse or carry no response are reported to OnSkip and skipped.
type RecordReader struct {
	r      *bufio.Reader
	OnSkip SkipFunc
}

type streamRecord struct {
	Response *string `json:"response"`
}

func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{r: bufio.NewReader(r)}
}

// Next returns the payload of the next valid record, or io.EOF once the
// source is exhausted.
func (rr *RecordReader) Next() (string, error) {
	for {
		line, err := rr.r.ReadString('\n')
		if line != "" {
			if content, ok := rr.decode(line); ok {
				return content, nil
			}
		}
		if err != nil {
			return "", err
		}
	}
}

func (rr *RecordReader) decode(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, recordPrefix) {
		return "", false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, recordPrefix))
	if payload == doneMarker {
		return "", false
	}

	var rec streamRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		rr.skip(line, err)
		return "", false
	}
	if rec.Response == nil || *rec.Response == "" {
		rr.skip(line, nil)
		return "", false
	}

	return *rec.Response, true
}

func (rr *RecordReader) skip(line string, err error) {
	if rr.OnSkip != nil {
		rr.OnSkip(line, err)
	}
}

// ReadAll drains resp into a single string. A StreamingBody is closed.
func ReadAll(resp Response, onSkip SkipFunc) (string, error) {
	switch r := resp.(type) {
	case *CompleteText:
		return r.Text, nil
	case *StreamingBody:
		defer r.Body.Close()

		rr := NewRecordReader(r.Body)
		rr.OnSkip = onSkip

		var sb strings.Builder
		for {
			content, err := rr.Next()
			if errors.Is(err, io.EOF) {
				return sb.String(), nil
			}
			if err != nil {
				return sb.String(), &UpstreamError{Op: "read stream", Err: err}
			}
			sb.WriteString(content)
		}
	default:
		return "", &UpstreamError{Op: "read", Message: "unsupported response shape"}
	}
}
