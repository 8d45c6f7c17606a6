package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lalaverse/profile-sync-service/internal/domain"
	"github.com/lalaverse/profile-sync-service/internal/ports"
)

func (s *Service) ListPlatforms(ctx context.Context) []PlatformCapabilityView {
	_ = ctx
	platforms := domain.SupportedPlatforms()
	out := make([]PlatformCapabilityView, 0, len(platforms))
	for _, platformID := range platforms {
		capability, err := domain.Capability(platformID)
		if err != nil {
			continue
		}
		out = append(out, toCapabilityView(capability))
	}
	return out
}

// getOrCreateConnection is the idempotent read path every connection
// operation funnels through: first access creates a default disconnected
// record with all toggles off.
func (s *Service) getOrCreateConnection(ctx context.Context, creatorID uuid.UUID, platformID domain.PlatformID) (domain.Connection, domain.PlatformCapability, error) {
	capability, err := domain.Capability(platformID)
	if err != nil {
		return domain.Connection{}, domain.PlatformCapability{}, err
	}
	connection, err := s.connections.GetOrCreate(ctx, ports.CreateConnectionParams{
		CreatorID:  creatorID,
		PlatformID: platformID,
		SyncFields: defaultSyncFields(capability),
		CreatedAt:  s.nowFn(),
	})
	if err != nil {
		return domain.Connection{}, domain.PlatformCapability{}, err
	}
	return connection, capability, nil
}

func (s *Service) GetConnection(ctx context.Context, creatorID uuid.UUID, platformID domain.PlatformID) (ConnectionResponse, error) {
	connection, _, err := s.getOrCreateConnection(ctx, creatorID, platformID)
	if err != nil {
		return ConnectionResponse{}, err
	}
	return toConnectionResponse(connection), nil
}

func (s *Service) ListConnections(ctx context.Context, creatorID uuid.UUID) ([]ConnectionResponse, error) {
	// Walk the registry order, not the stored rows, so the list is complete
	// and stable even before first access to some platform.
	out := make([]ConnectionResponse, 0, len(domain.SupportedPlatforms()))
	for _, platformID := range domain.SupportedPlatforms() {
		connection, _, err := s.getOrCreateConnection(ctx, creatorID, platformID)
		if err != nil {
			return nil, err
		}
		out = append(out, toConnectionResponse(connection))
	}
	return out, nil
}

func (s *Service) SetFieldSync(ctx context.Context, creatorID uuid.UUID, platformID domain.PlatformID, field domain.FieldName, enabled bool) (ConnectionResponse, error) {
	_, capability, err := s.getOrCreateConnection(ctx, creatorID, platformID)
	if err != nil {
		return ConnectionResponse{}, err
	}
	if !capability.Allows(field) {
		return ConnectionResponse{}, fmt.Errorf("%w: %s on %s", domain.ErrFieldNotSupported, field, platformID)
	}
	connection, err := s.connections.SetFieldSync(ctx, creatorID, platformID, field, enabled, s.nowFn())
	if err != nil {
		return ConnectionResponse{}, err
	}
	return toConnectionResponse(connection), nil
}

// MarkConnected flips the link state. Disconnecting leaves stored toggles
// untouched so a later reconnect restores prior intent; readers see them as
// all-false while disconnected.
func (s *Service) MarkConnected(ctx context.Context, creatorID uuid.UUID, platformID domain.PlatformID, connected bool) (ConnectionResponse, error) {
	if _, _, err := s.getOrCreateConnection(ctx, creatorID, platformID); err != nil {
		return ConnectionResponse{}, err
	}
	connection, err := s.connections.SetConnected(ctx, creatorID, platformID, connected, s.nowFn())
	if err != nil {
		return ConnectionResponse{}, err
	}
	return toConnectionResponse(connection), nil
}

// PreviewSync renders the platform-constrained projection of the canonical
// profile on demand. Previews are pull-based: nothing is cached or stored.
func (s *Service) PreviewSync(ctx context.Context, creatorID uuid.UUID, platformID domain.PlatformID) (SyncPreviewResponse, error) {
	connection, capability, err := s.getOrCreateConnection(ctx, creatorID, platformID)
	if err != nil {
		return SyncPreviewResponse{}, err
	}
	profile, err := s.profiles.GetByCreatorID(ctx, creatorID)
	if err != nil {
		return SyncPreviewResponse{}, err
	}
	preview := domain.Render(profile, capability, connection.EffectiveSyncFields())
	return toPreviewResponse(preview), nil
}
