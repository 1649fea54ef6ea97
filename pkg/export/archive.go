package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"ocakbasi/pkg/storage"
)

// DefaultLinkExpiry bounds how long an archived export link stays valid.
const DefaultLinkExpiry = 15 * time.Minute

// ErrArchiveNotConfigured is returned when no object store is attached.
var ErrArchiveNotConfigured = errors.New("export archive not configured")

// Archive uploads doc under exports/<kind>/ and returns a presigned download link.
func Archive(ctx context.Context, objects storage.ObjectStore, doc Document, expiry time.Duration) (string, error) {
	if objects == nil {
		return "", ErrArchiveNotConfigured
	}
	if expiry <= 0 {
		expiry = DefaultLinkExpiry
	}
	key := path.Join("exports", string(doc.Kind), doc.Filename)
	if err := objects.Put(ctx, key, bytes.NewReader(doc.Body), int64(len(doc.Body)), ContentType); err != nil {
		return "", fmt.Errorf("archive %s: %w", key, err)
	}
	url, err := objects.PresignGet(ctx, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return url, nil
}
