package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/piyuindia4/ai-slides/internal/observability"
)

const (
	imageFetchTimeout = 10 * time.Second
	maxImageBytes     = 10 << 20
)

// fetchImage downloads a slide image. Callers treat any error as "export
// without the image"; a missing picture must never abort a document.
func (e *Exporter) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}

	res, err := e.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: unexpected status %d", res.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}

	kind := imageKind(data)
	if kind == "" {
		return nil, "", fmt.Errorf("fetch image: unsupported content type %q", http.DetectContentType(data))
	}
	return data, kind, nil
}

// imageKind returns "jpeg" or "png", or "" for anything else.
func imageKind(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return "jpeg"
	case "image/png":
		return "png"
	default:
		return ""
	}
}

func logImageSkip(ctx context.Context, url string, err error) {
	observability.LoggerFromContext(ctx).Warn("skipping slide image",
		"url", url,
		"error", err,
	)
}
