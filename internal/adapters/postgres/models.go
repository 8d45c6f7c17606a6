package postgres

import (
	"time"

	"github.com/google/uuid"
)

type canonicalProfileModel struct {
	CreatorID           uuid.UUID  `gorm:"column:creator_id;type:uuid;primaryKey"`
	Handle              string     `gorm:"column:handle"`
	DisplayName         string     `gorm:"column:display_name"`
	Bio                 string     `gorm:"column:bio"`
	AvatarRef           string     `gorm:"column:avatar_ref"`
	CoverRef            string     `gorm:"column:cover_ref"`
	BrandColorPrimary   string     `gorm:"column:brand_color_primary"`
	BrandColorSecondary string     `gorm:"column:brand_color_secondary"`
	LinkInBio           string     `gorm:"column:link_in_bio"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
	DeletedAt           *time.Time `gorm:"column:deleted_at"`
}

func (canonicalProfileModel) TableName() string { return "canonical_profiles" }

type platformConnectionModel struct {
	ConnectionID   uuid.UUID  `gorm:"column:connection_id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID      uuid.UUID  `gorm:"column:creator_id"`
	PlatformID     string     `gorm:"column:platform_id"`
	Connected      bool       `gorm:"column:connected"`
	SyncFields     string     `gorm:"column:sync_fields;type:jsonb"`
	LastSyncedAt   *time.Time `gorm:"column:last_synced_at"`
	LastSyncStatus string     `gorm:"column:last_sync_status"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (platformConnectionModel) TableName() string { return "platform_connections" }

type syncOutboxModel struct {
	OutboxID         uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType        string     `gorm:"column:event_type"`
	PartitionKey     string     `gorm:"column:partition_key"`
	PartitionKeyPath string     `gorm:"column:partition_key_path"`
	Payload          string     `gorm:"column:payload"`
	SchemaVersion    string     `gorm:"column:schema_version"`
	TraceID          string     `gorm:"column:trace_id"`
	RetryCount       int        `gorm:"column:retry_count"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	LastError        *string    `gorm:"column:last_error"`
	LastErrorAt      *time.Time `gorm:"column:last_error_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	FirstSeenAt      time.Time  `gorm:"column:first_seen_at"`
}

func (syncOutboxModel) TableName() string { return "sync_outbox" }

type syncIdempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (syncIdempotencyModel) TableName() string { return "sync_idempotency_keys" }

type syncEventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (syncEventDedupModel) TableName() string { return "sync_event_dedup" }
