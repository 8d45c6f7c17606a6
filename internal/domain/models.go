package domain

import (
	"time"

	"github.com/google/uuid"
)

type PlatformID string

const (
	PlatformInstagram PlatformID = "instagram"
	PlatformTikTok    PlatformID = "tiktok"
	PlatformPinterest PlatformID = "pinterest"
	PlatformX         PlatformID = "x"
	PlatformYouTube   PlatformID = "youtube"
)

// FieldName identifies one canonical profile field. The constant values double
// as wire/storage keys, so they never change once released.
type FieldName string

const (
	FieldAvatarRef           FieldName = "avatar_ref"
	FieldBio                 FieldName = "bio"
	FieldBrandColorPrimary   FieldName = "brand_color_primary"
	FieldBrandColorSecondary FieldName = "brand_color_secondary"
	FieldCoverRef            FieldName = "cover_ref"
	FieldDisplayName         FieldName = "display_name"
	FieldLinkInBio           FieldName = "link_in_bio"
)

// SyncableFields is the fixed, alphabetically ordered set of canonical fields
// that can be pushed to an external platform. The handle is canonical identity
// and is never pushed (platform usernames are not remotely assignable).
func SyncableFields() []FieldName {
	return []FieldName{
		FieldAvatarRef,
		FieldBio,
		FieldBrandColorPrimary,
		FieldBrandColorSecondary,
		FieldCoverRef,
		FieldDisplayName,
		FieldLinkInBio,
	}
}

const (
	DisplayNameMaxChars = 50
	BioMaxChars         = 280
)

// CanonicalProfile is the creator's single authoritative identity record. The
// canonical limits are the most permissive across all target platforms;
// per-platform limits apply only at render time and never mutate this record.
type CanonicalProfile struct {
	CreatorID           uuid.UUID
	Handle              string
	DisplayName         string
	Bio                 string
	AvatarRef           string
	CoverRef            string
	BrandColorPrimary   string
	BrandColorSecondary string
	LinkInBio           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

type SyncStatus string

const (
	SyncStatusNever   SyncStatus = "never"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

// Connection is the per-platform link state for one creator. SyncFields keys
// are restricted to the platform's allowed fields; remembered toggles survive
// a disconnect but read as all-false while disconnected.
type Connection struct {
	ConnectionID   uuid.UUID
	CreatorID      uuid.UUID
	PlatformID     PlatformID
	Connected      bool
	SyncFields     map[FieldName]bool
	LastSyncedAt   *time.Time
	LastSyncStatus SyncStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EffectiveSyncFields is what readers must consult: a disconnected platform
// cannot sync anything, regardless of stored toggles.
func (c Connection) EffectiveSyncFields() map[FieldName]bool {
	out := make(map[FieldName]bool, len(c.SyncFields))
	for field, enabled := range c.SyncFields {
		out[field] = enabled && c.Connected
	}
	return out
}

// RenderedField is one entry of a SyncPreview. Omitted fields carry no value.
type RenderedField struct {
	Value   string
	Omitted bool
}

// SyncPreview is derived, never stored. It is a pure function of
// (profile, capability, sync fields) and is regenerated on demand.
type SyncPreview struct {
	PlatformID     PlatformID
	RenderedFields map[FieldName]RenderedField
	Warnings       []string
}

// Payload returns the non-omitted rendered values, the exact shape handed to
// the external platform API at dispatch time.
func (p SyncPreview) Payload() map[FieldName]string {
	out := make(map[FieldName]string)
	for field, rendered := range p.RenderedFields {
		if !rendered.Omitted {
			out[field] = rendered.Value
		}
	}
	return out
}

type OperationState string

const (
	OperationQueued    OperationState = "queued"
	OperationInFlight  OperationState = "in_flight"
	OperationSucceeded OperationState = "succeeded"
	OperationFailed    OperationState = "failed"
)

// PushSyncOperation is a transient unit of work: queued -> in_flight ->
// {succeeded, failed}. Terminal results fold into the Connection row; the
// operation itself is not retained as history.
type PushSyncOperation struct {
	OperationID uuid.UUID
	CreatorID   uuid.UUID
	PlatformID  PlatformID
	Payload     map[FieldName]string
	State       OperationState
	ErrorDetail string
	QueuedAt    time.Time
	CompletedAt *time.Time
}

type UserIdentity struct {
	UserID uuid.UUID
	Email  string
	Role   string
	Status string
}
