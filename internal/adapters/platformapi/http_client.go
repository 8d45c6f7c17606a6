package platformapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lalaverse/profile-sync-service/internal/domain"
	"github.com/lalaverse/profile-sync-service/internal/ports"
)

// HTTPClient pushes rendered profile payloads to the per-platform connector
// endpoints (the connectors own OAuth credentials and the real third-party
// calls). One base URL per platform id, from config.
type HTTPClient struct {
	baseURLs map[domain.PlatformID]string
	client   *http.Client
}

func New(baseURLs map[domain.PlatformID]string) *HTTPClient {
	// No client-level timeout: the dispatcher bounds each send with its own
	// context deadline.
	return &HTTPClient{
		baseURLs: baseURLs,
		client:   &http.Client{},
	}
}

func (c *HTTPClient) Send(ctx context.Context, platformID domain.PlatformID, payload map[domain.FieldName]string) error {
	baseURL, ok := c.baseURLs[platformID]
	if !ok || baseURL == "" {
		return fmt.Errorf("%w: no connector endpoint for %s", domain.ErrDependencyUnavailable, platformID)
	}
	body, err := json.Marshal(map[string]any{
		"platform_id": string(platformID),
		"fields":      payload,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/profile/push", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrPlatformAPI, platformID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %s returned %d: %s", domain.ErrPlatformAPI, platformID, resp.StatusCode, bytes.TrimSpace(detail))
}

var _ ports.PlatformAPIClient = (*HTTPClient)(nil)
