package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lalaverse/profile-sync-service/internal/domain"
	"github.com/lalaverse/profile-sync-service/internal/ports"
)

func (s *Service) GetProfile(ctx context.Context, creatorID uuid.UUID) (ProfileResponse, error) {
	if cached, err := s.cache.Get(ctx, cacheKeyProfile(creatorID)); err == nil && cached != "" {
		var resp ProfileResponse
		if unmarshalErr := json.Unmarshal([]byte(cached), &resp); unmarshalErr == nil {
			return resp, nil
		}
	}
	profile, err := s.profiles.GetByCreatorID(ctx, creatorID)
	if err != nil {
		return ProfileResponse{}, err
	}
	resp := toProfileResponse(profile)
	if raw, marshalErr := json.Marshal(resp); marshalErr == nil {
		_ = s.cache.Set(ctx, cacheKeyProfile(creatorID), string(raw), s.cfg.ProfileCacheTTL)
	}
	return resp, nil
}

// UpdateProfile applies a partial edit, all-or-nothing: every supplied field
// is validated against its canonical limit before any mutation happens. The
// caller must treat previously rendered previews as stale after this returns.
func (s *Service) UpdateProfile(ctx context.Context, creatorID uuid.UUID, req UpdateProfileRequest, idempotencyKey string) (ProfileResponse, error) {
	if req.DisplayName != nil {
		if err := domain.ValidateDisplayName(*req.DisplayName); err != nil {
			return ProfileResponse{}, err
		}
	}
	if req.Bio != nil {
		if err := domain.ValidateBio(*req.Bio); err != nil {
			return ProfileResponse{}, err
		}
	}
	if req.BrandColorPrimary != nil {
		if err := domain.ValidateBrandColor(domain.FieldBrandColorPrimary, *req.BrandColorPrimary); err != nil {
			return ProfileResponse{}, err
		}
	}
	if req.BrandColorSecondary != nil {
		if err := domain.ValidateBrandColor(domain.FieldBrandColorSecondary, *req.BrandColorSecondary); err != nil {
			return ProfileResponse{}, err
		}
	}
	if req.LinkInBio != nil {
		if err := domain.ValidateLinkInBio(*req.LinkInBio); err != nil {
			return ProfileResponse{}, err
		}
	}

	var handleUpdate *string
	if req.Handle != nil {
		if err := domain.ValidateHandle(*req.Handle); err != nil {
			return ProfileResponse{}, err
		}
		current, err := s.profiles.GetByCreatorID(ctx, creatorID)
		if err != nil {
			return ProfileResponse{}, err
		}
		normalized := domain.NormalizeHandle(*req.Handle)
		switch {
		case current.Handle == normalized:
			// No-op change, nothing to write.
		case current.Handle != "":
			return ProfileResponse{}, fmt.Errorf("%w: handle cannot be changed once set", domain.ErrImmutableField)
		default:
			handleUpdate = &normalized
		}
	}

	if err := s.reserveIdempotency(ctx, idempotencyKey, req); err != nil {
		return ProfileResponse{}, err
	}

	updated, err := s.profiles.UpdateProfile(ctx, ports.UpdateProfileParams{
		CreatorID:           creatorID,
		Handle:              handleUpdate,
		DisplayName:         trimmed(req.DisplayName),
		Bio:                 trimmed(req.Bio),
		AvatarRef:           req.AvatarRef,
		CoverRef:            req.CoverRef,
		BrandColorPrimary:   req.BrandColorPrimary,
		BrandColorSecondary: req.BrandColorSecondary,
		LinkInBio:           req.LinkInBio,
		UpdatedAt:           s.nowFn(),
	})
	if err != nil {
		return ProfileResponse{}, err
	}
	_ = s.enqueueProfileUpdated(ctx, updated)
	_ = s.cache.Delete(ctx, cacheKeyProfile(creatorID))

	resp := toProfileResponse(updated)
	s.completeIdempotency(ctx, idempotencyKey, 200, resp)
	return resp, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

type userRegisteredEvent struct {
	EventID string `json:"event_id"`
	Data    struct {
		UserID      string `json:"user_id"`
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
}

// HandleUserRegistered provisions the canonical profile and one disconnected
// connection per supported platform for a freshly registered creator.
func (s *Service) HandleUserRegistered(ctx context.Context, payload []byte) error {
	var event userRegisteredEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	creatorID, err := uuid.Parse(event.Data.UserID)
	if err != nil {
		return fmt.Errorf("%w: user_id is not a uuid", domain.ErrInvalidInput)
	}
	if event.EventID != "" {
		duplicate, dedupErr := s.eventDedup.IsDuplicate(ctx, event.EventID, s.nowFn())
		if dedupErr != nil {
			return dedupErr
		}
		if duplicate {
			return nil
		}
	}

	displayName := event.Data.DisplayName
	if displayName == "" {
		// Sparse registration events carry no display name; backfill from
		// the auth service identity so the profile never starts blank.
		if identity, idErr := s.authClient.GetUserIdentity(ctx, creatorID); idErr == nil && identity.Email != "" {
			displayName = strings.SplitN(identity.Email, "@", 2)[0]
		}
	}

	now := s.nowFn()
	_, err = s.profiles.CreateProfileWithDefaults(ctx, ports.CreateProfileParams{
		CreatorID:   creatorID,
		Handle:      domain.NormalizeHandle(event.Data.Username),
		DisplayName: displayName,
		CreatedAt:   now,
	})
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return err
	}
	for _, platformID := range domain.SupportedPlatforms() {
		capability, capErr := domain.Capability(platformID)
		if capErr != nil {
			continue
		}
		if _, createErr := s.connections.GetOrCreate(ctx, ports.CreateConnectionParams{
			CreatorID:  creatorID,
			PlatformID: platformID,
			SyncFields: defaultSyncFields(capability),
			CreatedAt:  now,
		}); createErr != nil {
			return createErr
		}
	}
	if event.EventID != "" {
		_ = s.eventDedup.MarkProcessed(ctx, event.EventID, "user.registered", s.nowFn().Add(s.cfg.EventDedupTTL))
	}
	return nil
}

type userDeletedEvent struct {
	EventID string `json:"event_id"`
	Data    struct {
		UserID string `json:"user_id"`
	} `json:"data"`
}

func (s *Service) HandleUserDeleted(ctx context.Context, payload []byte) error {
	var event userDeletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	creatorID, err := uuid.Parse(event.Data.UserID)
	if err != nil {
		return fmt.Errorf("%w: user_id is not a uuid", domain.ErrInvalidInput)
	}
	if event.EventID != "" {
		duplicate, dedupErr := s.eventDedup.IsDuplicate(ctx, event.EventID, s.nowFn())
		if dedupErr != nil {
			return dedupErr
		}
		if duplicate {
			return nil
		}
	}
	if err := s.profiles.SoftDeleteByCreatorID(ctx, creatorID, s.nowFn()); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	_ = s.cache.Delete(ctx, cacheKeyProfile(creatorID))
	if event.EventID != "" {
		_ = s.eventDedup.MarkProcessed(ctx, event.EventID, "user.deleted", s.nowFn().Add(s.cfg.EventDedupTTL))
	}
	return nil
}
