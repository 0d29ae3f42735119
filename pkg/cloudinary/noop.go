package cloudinary

import (
	"context"
	"fmt"
	"io"
)

// NoopClient discards uploads and returns placeholder URLs. Used in
// development when Cloudinary is not configured.
type NoopClient struct{}

func (NoopClient) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, string, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", "", err
	}
	url := fmt.Sprintf("noop://%s/%s", folder, publicID)
	return url, url, nil
}
