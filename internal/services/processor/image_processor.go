package processor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

var ErrInvalidImage = errors.New("invalid image")

const (
	defaultMaxDimension = 1024
	defaultQuality      = 85
)

type Options struct {
	MaxFileSize  int64
	MaxDimension int
	Quality      int
	// AllowedTypes lists accepted detected content types.
	AllowedTypes []string
}

// ImageProcessor normalises uploaded artwork before it is sent upstream.
type ImageProcessor struct {
	maxFileSize  int64
	maxDimension int
	quality      int
	allowedTypes []string
}

// PreparedImage is a JPEG re-encoding of an upload.
type PreparedImage struct {
	Base64      string
	Width       int
	Height      int
	ContentType string
	Resized     bool
}

func NewImageProcessor(opts Options) *ImageProcessor {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = defaultMaxDimension
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		opts.Quality = defaultQuality
	}
	return &ImageProcessor{
		maxFileSize:  opts.MaxFileSize,
		maxDimension: opts.MaxDimension,
		quality:      opts.Quality,
		allowedTypes: opts.AllowedTypes,
	}
}

// PrepareImage decodes a base64 payload (optionally a data URL), checks it
// is an image, shrinks it to fit the maximum dimension and re-encodes it as
// JPEG so the data URL sent upstream is truthful.
func (p *ImageProcessor) PrepareImage(payload string) (*PreparedImage, error) {
	data, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}

	contentType := http.DetectContentType(data)
	if err := p.ValidateImage(data, contentType); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	resized := false
	if needsResize(img, p.maxDimension) {
		img = p.resizeImage(img)
		resized = true
	}

	buffer := &bytes.Buffer{}
	if err := p.encodeImage(buffer, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()
	return &PreparedImage{
		Base64:      base64.StdEncoding.EncodeToString(buffer.Bytes()),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ContentType: contentType,
		Resized:     resized,
	}, nil
}

func decodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, fmt.Errorf("%w: malformed data url", ErrInvalidImage)
		}
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: payload is not base64", ErrInvalidImage)
		}
	}
	return data, nil
}

func needsResize(img image.Image, maxDimension int) bool {
	bounds := img.Bounds()
	return bounds.Dx() > maxDimension || bounds.Dy() > maxDimension
}
