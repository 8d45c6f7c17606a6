package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lalaverse/profile-sync-service/internal/domain"
	"github.com/lalaverse/profile-sync-service/internal/ports"
	"gorm.io/gorm"
)

type connectionRepository struct {
	db *gorm.DB
}

func (r *connectionRepository) GetOrCreate(ctx context.Context, params ports.CreateConnectionParams) (domain.Connection, error) {
	var rec platformConnectionModel
	err := r.db.WithContext(ctx).
		Where("creator_id = ? AND platform_id = ?", params.CreatorID, string(params.PlatformID)).
		Take(&rec).Error
	if err == nil {
		return toDomainConnection(rec), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Connection{}, err
	}

	rec = platformConnectionModel{
		CreatorID:      params.CreatorID,
		PlatformID:     string(params.PlatformID),
		Connected:      false,
		SyncFields:     encodeSyncFields(params.SyncFields),
		LastSyncStatus: string(domain.SyncStatusNever),
		CreatedAt:      params.CreatedAt,
		UpdatedAt:      params.CreatedAt,
	}
	if createErr := r.db.WithContext(ctx).Create(&rec).Error; createErr != nil {
		// Lost a concurrent first-access race; the existing row wins.
		if isUniqueViolation(createErr) {
			return r.getByCreatorAndPlatform(ctx, params.CreatorID, params.PlatformID)
		}
		return domain.Connection{}, createErr
	}
	return toDomainConnection(rec), nil
}

func (r *connectionRepository) getByCreatorAndPlatform(ctx context.Context, creatorID uuid.UUID, platformID domain.PlatformID) (domain.Connection, error) {
	var rec platformConnectionModel
	if err := r.db.WithContext(ctx).
		Where("creator_id = ? AND platform_id = ?", creatorID, string(platformID)).
		Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Connection{}, domain.ErrNotFound
		}
		return domain.Connection{}, err
	}
	return toDomainConnection(rec), nil
}

func (r *connectionRepository) ListByCreatorID(ctx context.Context, creatorID uuid.UUID) ([]domain.Connection, error) {
	var rows []platformConnectionModel
	if err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("platform_id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Connection, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainConnection(row))
	}
	return out, nil
}

func (r *connectionRepository) SetFieldSync(ctx context.Context, creatorID uuid.UUID, platformID domain.PlatformID, field domain.FieldName, enabled bool, updatedAt time.Time) (domain.Connection, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec platformConnectionModel
		if err := tx.Where("creator_id = ? AND platform_id = ?", creatorID, string(platformID)).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		fields := decodeSyncFields(rec.SyncFields)
		fields[field] = enabled
		return tx.Model(&platformConnectionModel{}).
			Where("connection_id = ?", rec.ConnectionID).
			Updates(map[string]any{
				"sync_fields": encodeSyncFields(fields),
				"updated_at":  updatedAt,
			}).Error
	})
	if err != nil {
		return domain.Connection{}, err
	}
	return r.getByCreatorAndPlatform(ctx, creatorID, platformID)
}

func (r *connectionRepository) SetConnected(ctx context.Context, creatorID uuid.UUID, platformID domain.PlatformID, connected bool, updatedAt time.Time) (domain.Connection, error) {
	// Only the link flag moves; stored sync toggles survive a disconnect so
	// reconnecting restores prior intent.
	res := r.db.WithContext(ctx).Model(&platformConnectionModel{}).
		Where("creator_id = ? AND platform_id = ?", creatorID, string(platformID)).
		Updates(map[string]any{
			"connected":  connected,
			"updated_at": updatedAt,
		})
	if res.Error != nil {
		return domain.Connection{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Connection{}, domain.ErrNotFound
	}
	return r.getByCreatorAndPlatform(ctx, creatorID, platformID)
}

func (r *connectionRepository) RecordSyncResult(ctx context.Context, params ports.SyncResultParams) (domain.Connection, error) {
	updates := map[string]any{
		"last_sync_status": string(params.Status),
		"updated_at":       params.UpdatedAt,
	}
	if params.SyncedAt != nil {
		updates["last_synced_at"] = *params.SyncedAt
	}
	res := r.db.WithContext(ctx).Model(&platformConnectionModel{}).
		Where("creator_id = ? AND platform_id = ?", params.CreatorID, string(params.PlatformID)).
		Updates(updates)
	if res.Error != nil {
		return domain.Connection{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Connection{}, domain.ErrNotFound
	}
	return r.getByCreatorAndPlatform(ctx, params.CreatorID, params.PlatformID)
}
