package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/casaflow/billing/internal/app/service/refund"
	cfgpkg "github.com/casaflow/billing/pkg/config"

	"go.uber.org/zap"
)

// Client talks to the object-storage HTTP API (bucket upload with a bearer
// token). Used for cached credit-note PDFs.
type Client struct {
	baseURL string
	bucket  string
	token   string
	http    *http.Client
	log     *zap.SugaredLogger
}

func New(cfg *cfgpkg.Config, log *zap.SugaredLogger) refund.BlobStore {
	return &Client{
		baseURL: strings.TrimRight(cfg.Storage.BaseURL, "/"),
		bucket:  cfg.Storage.Bucket,
		token:   cfg.Storage.Token,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     log,
	}
}

// Upload puts an object into the bucket, overwriting any existing object at
// the same path.
func (c *Client) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	if c.baseURL == "" {
		return fmt.Errorf("object storage not configured")
	}
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, strings.TrimLeft(path, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
