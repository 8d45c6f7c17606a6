package postgres

import (
	"encoding/json"

	"github.com/lalaverse/profile-sync-service/internal/domain"
)

func toDomainProfile(m canonicalProfileModel) domain.CanonicalProfile {
	return domain.CanonicalProfile{
		CreatorID: m.CreatorID, Handle: m.Handle, DisplayName: m.DisplayName, Bio: m.Bio,
		AvatarRef: m.AvatarRef, CoverRef: m.CoverRef,
		BrandColorPrimary: m.BrandColorPrimary, BrandColorSecondary: m.BrandColorSecondary,
		LinkInBio: m.LinkInBio, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt, DeletedAt: m.DeletedAt,
	}
}

func toDomainConnection(m platformConnectionModel) domain.Connection {
	status := domain.SyncStatus(m.LastSyncStatus)
	if status == "" {
		status = domain.SyncStatusNever
	}
	return domain.Connection{
		ConnectionID: m.ConnectionID, CreatorID: m.CreatorID,
		PlatformID: domain.PlatformID(m.PlatformID), Connected: m.Connected,
		SyncFields: decodeSyncFields(m.SyncFields), LastSyncedAt: m.LastSyncedAt,
		LastSyncStatus: status, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func decodeSyncFields(raw string) map[domain.FieldName]bool {
	out := map[domain.FieldName]bool{}
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func encodeSyncFields(fields map[domain.FieldName]bool) string {
	if fields == nil {
		fields = map[domain.FieldName]bool{}
	}
	raw, _ := json.Marshal(fields)
	return string(raw)
}
