// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package blob

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// NewStore returns a Store writing to the given public bucket.
func NewStore(storage *storage.Client, bucket string) *Store {
	return &Store{
		storage: storage,
		bucket:  bucket,
	}
}

// Store writes generated artifacts to the public bucket and returns their
// public URLs.
type Store struct {
	storage *storage.Client
	bucket  string
}

// Write writes data under path and returns the public URL. The upload only
// commits on the writer's Close, so its error decides success.
func (s *Store) Write(ctx context.Context, path string, contentType string, data []byte) (string, error) {
	wc := s.storage.Bucket(s.bucket).Object(path).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("blob: writing object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("blob: committing object: %w", err)
	}
	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path)
	return url, nil
}
