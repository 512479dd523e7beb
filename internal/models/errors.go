package models

import "errors"

// Validation errors are reported to the client before any upstream call.
var (
	ErrImageRequired       = errors.New("image data is required")
	ErrTextRequired        = errors.New("text is required for audio generation")
	ErrDescriptionRequired = errors.New("artwork description is required")
)

func IsValidationError(err error) bool {
	return errors.Is(err, ErrImageRequired) ||
		errors.Is(err, ErrTextRequired) ||
		errors.Is(err, ErrDescriptionRequired)
}
