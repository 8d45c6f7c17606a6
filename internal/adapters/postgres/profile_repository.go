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

type profileRepository struct {
	db *gorm.DB
}

func (r *profileRepository) CreateProfileWithDefaults(ctx context.Context, params ports.CreateProfileParams) (domain.CanonicalProfile, error) {
	rec := canonicalProfileModel{
		CreatorID:   params.CreatorID,
		Handle:      params.Handle,
		DisplayName: params.DisplayName,
		CreatedAt:   params.CreatedAt,
		UpdatedAt:   params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.CanonicalProfile{}, domain.ErrConflict
		}
		return domain.CanonicalProfile{}, err
	}
	return toDomainProfile(rec), nil
}

func (r *profileRepository) GetByCreatorID(ctx context.Context, creatorID uuid.UUID) (domain.CanonicalProfile, error) {
	var rec canonicalProfileModel
	if err := r.db.WithContext(ctx).Where("creator_id = ? AND deleted_at IS NULL", creatorID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CanonicalProfile{}, domain.ErrNotFound
		}
		return domain.CanonicalProfile{}, err
	}
	return toDomainProfile(rec), nil
}

func (r *profileRepository) UpdateProfile(ctx context.Context, params ports.UpdateProfileParams) (domain.CanonicalProfile, error) {
	updates := map[string]any{
		"updated_at": params.UpdatedAt,
	}
	if params.Handle != nil {
		updates["handle"] = *params.Handle
	}
	if params.DisplayName != nil {
		updates["display_name"] = *params.DisplayName
	}
	if params.Bio != nil {
		updates["bio"] = *params.Bio
	}
	if params.AvatarRef != nil {
		updates["avatar_ref"] = *params.AvatarRef
	}
	if params.CoverRef != nil {
		updates["cover_ref"] = *params.CoverRef
	}
	if params.BrandColorPrimary != nil {
		updates["brand_color_primary"] = *params.BrandColorPrimary
	}
	if params.BrandColorSecondary != nil {
		updates["brand_color_secondary"] = *params.BrandColorSecondary
	}
	if params.LinkInBio != nil {
		updates["link_in_bio"] = *params.LinkInBio
	}

	res := r.db.WithContext(ctx).Model(&canonicalProfileModel{}).
		Where("creator_id = ? AND deleted_at IS NULL", params.CreatorID).
		Updates(updates)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.CanonicalProfile{}, domain.ErrConflict
		}
		return domain.CanonicalProfile{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.CanonicalProfile{}, domain.ErrNotFound
	}
	return r.GetByCreatorID(ctx, params.CreatorID)
}

func (r *profileRepository) SoftDeleteByCreatorID(ctx context.Context, creatorID uuid.UUID, deletedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&canonicalProfileModel{}).Where("creator_id = ?", creatorID).Updates(map[string]any{
		"deleted_at":   deletedAt,
		"updated_at":   deletedAt,
		"handle":       "",
		"display_name": "deleted creator",
		"bio":          "",
		"avatar_ref":   "",
		"cover_ref":    "",
		"link_in_bio":  "",
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
