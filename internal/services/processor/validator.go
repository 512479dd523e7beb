package processor

import (
	"fmt"

	"github.com/phambaophuc/artwork-critic/pkg/utils"
)

func (p *ImageProcessor) ValidateImage(data []byte, contentType string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty image data", ErrInvalidImage)
	}

	if p.maxFileSize > 0 && int64(len(data)) > p.maxFileSize {
		return fmt.Errorf("%w: file size %d exceeds maximum allowed size %d", ErrInvalidImage, len(data), p.maxFileSize)
	}

	if !utils.IsValidImageType(contentType, p.allowedTypes) {
		return fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, contentType)
	}

	return nil
}
