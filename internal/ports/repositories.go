package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lalaverse/profile-sync-service/internal/domain"
)

type CreateProfileParams struct {
	CreatorID   uuid.UUID
	Handle      string
	DisplayName string
	CreatedAt   time.Time
}

// UpdateProfileParams carries a partial edit. Nil pointers leave the column
// untouched; the whole update is applied in one statement, all-or-nothing.
type UpdateProfileParams struct {
	CreatorID           uuid.UUID
	Handle              *string
	DisplayName         *string
	Bio                 *string
	AvatarRef           *string
	CoverRef            *string
	BrandColorPrimary   *string
	BrandColorSecondary *string
	LinkInBio           *string
	UpdatedAt           time.Time
}

type ProfileRepository interface {
	CreateProfileWithDefaults(ctx context.Context, params CreateProfileParams) (domain.CanonicalProfile, error)
	GetByCreatorID(ctx context.Context, creatorID uuid.UUID) (domain.CanonicalProfile, error)
	UpdateProfile(ctx context.Context, params UpdateProfileParams) (domain.CanonicalProfile, error)
	SoftDeleteByCreatorID(ctx context.Context, creatorID uuid.UUID, deletedAt time.Time) error
}

type CreateConnectionParams struct {
	CreatorID  uuid.UUID
	PlatformID domain.PlatformID
	SyncFields map[domain.FieldName]bool
	CreatedAt  time.Time
}

type SyncResultParams struct {
	CreatorID  uuid.UUID
	PlatformID domain.PlatformID
	Status     domain.SyncStatus
	// SyncedAt is set only on success; a failed attempt must not move the
	// last-successful-sync timestamp.
	SyncedAt  *time.Time
	UpdatedAt time.Time
}

type ConnectionRepository interface {
	// GetOrCreate returns the connection for (creator, platform), creating a
	// default disconnected record on first access.
	GetOrCreate(ctx context.Context, params CreateConnectionParams) (domain.Connection, error)
	ListByCreatorID(ctx context.Context, creatorID uuid.UUID) ([]domain.Connection, error)
	SetFieldSync(ctx context.Context, creatorID uuid.UUID, platformID domain.PlatformID, field domain.FieldName, enabled bool, updatedAt time.Time) (domain.Connection, error)
	SetConnected(ctx context.Context, creatorID uuid.UUID, platformID domain.PlatformID, connected bool, updatedAt time.Time) (domain.Connection, error)
	RecordSyncResult(ctx context.Context, params SyncResultParams) (domain.Connection, error)
}

type OutboxEvent struct {
	EventID          uuid.UUID
	EventType        string
	PartitionKey     string
	PartitionKeyPath string
	Payload          []byte
	OccurredAt       time.Time
	SchemaVersion    string
	TraceID          string
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	LastErrorAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}
