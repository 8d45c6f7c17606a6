package application

import (
	"time"

	"github.com/lalaverse/profile-sync-service/internal/domain"
)

type Config struct {
	ServiceName     string
	ProfileCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	EventDedupTTL   time.Duration
	// DispatchTimeout bounds the wait on the external platform API; past it
	// the operation resolves to failed and the in-flight slot is released.
	DispatchTimeout time.Duration
}

type UpdateProfileRequest struct {
	Handle              *string `json:"handle,omitempty"`
	DisplayName         *string `json:"display_name,omitempty"`
	Bio                 *string `json:"bio,omitempty"`
	AvatarRef           *string `json:"avatar_ref,omitempty"`
	CoverRef            *string `json:"cover_ref,omitempty"`
	BrandColorPrimary   *string `json:"brand_color_primary,omitempty"`
	BrandColorSecondary *string `json:"brand_color_secondary,omitempty"`
	LinkInBio           *string `json:"link_in_bio,omitempty"`
}

type ProfileResponse struct {
	CreatorID           string `json:"creator_id"`
	Handle              string `json:"handle"`
	DisplayName         string `json:"display_name"`
	Bio                 string `json:"bio,omitempty"`
	AvatarRef           string `json:"avatar_ref,omitempty"`
	CoverRef            string `json:"cover_ref,omitempty"`
	BrandColorPrimary   string `json:"brand_color_primary,omitempty"`
	BrandColorSecondary string `json:"brand_color_secondary,omitempty"`
	LinkInBio           string `json:"link_in_bio,omitempty"`
	UpdatedAt           string `json:"updated_at"`
}

type PlatformCapabilityView struct {
	PlatformID           string   `json:"platform_id"`
	DisplayLabel         string   `json:"display_label"`
	BioCharLimit         int      `json:"bio_char_limit"`
	DisplayNameCharLimit int      `json:"display_name_char_limit"`
	AllowedFields        []string `json:"allowed_fields"`
	CroppingMode         string   `json:"cropping_mode"`
	ColorSupport         string   `json:"color_support"`
}

type ConnectionResponse struct {
	PlatformID      string          `json:"platform_id"`
	Connected       bool            `json:"connected"`
	SyncFields      map[string]bool `json:"sync_fields"`
	EffectiveFields map[string]bool `json:"effective_fields"`
	LastSyncedAt    string          `json:"last_synced_at,omitempty"`
	LastSyncStatus  string          `json:"last_sync_status"`
}

type SetFieldSyncRequest struct {
	Enabled bool `json:"enabled"`
}

type MarkConnectedRequest struct {
	Connected bool `json:"connected"`
}

type RenderedFieldView struct {
	Value   string `json:"value,omitempty"`
	Omitted bool   `json:"omitted,omitempty"`
}

type SyncPreviewResponse struct {
	PlatformID     string                       `json:"platform_id"`
	RenderedFields map[string]RenderedFieldView `json:"rendered_fields"`
	Warnings       []string                     `json:"warnings"`
}

type PushSyncResponse struct {
	OperationID string            `json:"operation_id"`
	PlatformID  string            `json:"platform_id"`
	State       string            `json:"state"`
	ErrorDetail string            `json:"error_detail,omitempty"`
	Payload     map[string]string `json:"payload,omitempty"`
	QueuedAt    string            `json:"queued_at"`
	CompletedAt string            `json:"completed_at,omitempty"`
}

func toProfileResponse(p domain.CanonicalProfile) ProfileResponse {
	return ProfileResponse{
		CreatorID:           p.CreatorID.String(),
		Handle:              p.Handle,
		DisplayName:         p.DisplayName,
		Bio:                 p.Bio,
		AvatarRef:           p.AvatarRef,
		CoverRef:            p.CoverRef,
		BrandColorPrimary:   p.BrandColorPrimary,
		BrandColorSecondary: p.BrandColorSecondary,
		LinkInBio:           p.LinkInBio,
		UpdatedAt:           p.UpdatedAt.Format(time.RFC3339),
	}
}

func toCapabilityView(c domain.PlatformCapability) PlatformCapabilityView {
	allowed := make([]string, 0, len(c.AllowedFields))
	for _, field := range domain.SyncableFields() {
		if c.Allows(field) {
			allowed = append(allowed, string(field))
		}
	}
	return PlatformCapabilityView{
		PlatformID:           string(c.PlatformID),
		DisplayLabel:         c.DisplayLabel,
		BioCharLimit:         c.BioCharLimit,
		DisplayNameCharLimit: c.DisplayNameCharLimit,
		AllowedFields:        allowed,
		CroppingMode:         string(c.CroppingMode),
		ColorSupport:         string(c.ColorSupport),
	}
}

func toConnectionResponse(c domain.Connection) ConnectionResponse {
	stored := make(map[string]bool, len(c.SyncFields))
	for field, enabled := range c.SyncFields {
		stored[string(field)] = enabled
	}
	effective := make(map[string]bool, len(c.SyncFields))
	for field, enabled := range c.EffectiveSyncFields() {
		effective[string(field)] = enabled
	}
	resp := ConnectionResponse{
		PlatformID:      string(c.PlatformID),
		Connected:       c.Connected,
		SyncFields:      stored,
		EffectiveFields: effective,
		LastSyncStatus:  string(c.LastSyncStatus),
	}
	if c.LastSyncedAt != nil {
		resp.LastSyncedAt = c.LastSyncedAt.Format(time.RFC3339)
	}
	return resp
}

func toPreviewResponse(p domain.SyncPreview) SyncPreviewResponse {
	rendered := make(map[string]RenderedFieldView, len(p.RenderedFields))
	for field, rf := range p.RenderedFields {
		rendered[string(field)] = RenderedFieldView{Value: rf.Value, Omitted: rf.Omitted}
	}
	warnings := p.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return SyncPreviewResponse{
		PlatformID:     string(p.PlatformID),
		RenderedFields: rendered,
		Warnings:       warnings,
	}
}

func toPushSyncResponse(op domain.PushSyncOperation) PushSyncResponse {
	payload := make(map[string]string, len(op.Payload))
	for field, value := range op.Payload {
		payload[string(field)] = value
	}
	resp := PushSyncResponse{
		OperationID: op.OperationID.String(),
		PlatformID:  string(op.PlatformID),
		State:       string(op.State),
		ErrorDetail: op.ErrorDetail,
		Payload:     payload,
		QueuedAt:    op.QueuedAt.Format(time.RFC3339),
	}
	if op.CompletedAt != nil {
		resp.CompletedAt = op.CompletedAt.Format(time.RFC3339)
	}
	return resp
}
