package ports

import (
	"context"

	"github.com/lalaverse/profile-sync-service/internal/domain"
)

// PlatformAPIClient is the only outward call the dispatcher makes: hand the
// rendered payload to one external platform. OAuth handshakes, rate limiting
// and media transcoding live behind this boundary, not in this service.
type PlatformAPIClient interface {
	Send(ctx context.Context, platformID domain.PlatformID, payload map[domain.FieldName]string) error
}
