package storage

import (
	"bytes"
	"context"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

// UploadResult locates a stored object.
type UploadResult struct {
	Path string
	URL  string
}

// Upload stores data under path in the configured bucket.
func (s *StorageService) Upload(ctx context.Context, data []byte, path, contentType string) (*UploadResult, error) {
	if s.sbClient == nil {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	upsert := false
	_, err := s.sbClient.UploadFile(s.bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, path)

	s.logger.Info("Stored blob",
		zap.String("bucket", s.bucket),
		zap.String("path", path),
		zap.Int("size", len(data)))

	return &UploadResult{Path: path, URL: publicURL.SignedURL}, nil
}
