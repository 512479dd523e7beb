package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DefaultImageTypes are accepted when no allow-list is configured.
var DefaultImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// IsValidImageType checks the media type of contentType against allowed,
// or DefaultImageTypes when allowed is empty. Parameters such as charset
// are ignored.
func IsValidImageType(contentType string, allowed []string) bool {
	if len(allowed) == 0 {
		allowed = DefaultImageTypes
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, validType := range allowed {
		if mediaType == strings.ToLower(validType) {
			return true
		}
	}
	return false
}

// AudioFilename names a synthesized clip in blob storage.
func AudioFilename(audioID string) string {
	return fmt.Sprintf("audio-%s.mp3", audioID)
}

// ContentHash is a stable key for a set of inputs.
func ContentHash(parts ...string) string {
	hash := sha256.New()
	for _, part := range parts {
		hash.Write([]byte(part))
		hash.Write([]byte{0})
	}
	return hex.EncodeToString(hash.Sum(nil))
}
