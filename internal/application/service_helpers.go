package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lalaverse/profile-sync-service/internal/domain"
	"github.com/lalaverse/profile-sync-service/internal/ports"
)

const (
	EventProfileUpdated = "creator.profile_updated"
	EventProfileSynced  = "creator.profile_synced"
)

func cacheKeyProfile(creatorID uuid.UUID) string {
	return "profile-sync:profile:" + creatorID.String()
}

type profileUpdatedEventData struct {
	CreatorID   string `json:"creator_id"`
	UpdatedAt   string `json:"updated_at"`
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	LinkInBio   string `json:"link_in_bio,omitempty"`
}

type profileSyncedEventData struct {
	CreatorID   string `json:"creator_id"`
	PlatformID  string `json:"platform_id"`
	OperationID string `json:"operation_id"`
	State       string `json:"state"`
	ErrorDetail string `json:"error_detail,omitempty"`
	CompletedAt string `json:"completed_at"`
}

func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey string, data any) error {
	occurredAt := s.nowFn()
	envelope := map[string]any{
		"event_id":           uuid.NewString(),
		"event_type":         eventType,
		"occurred_at":        occurredAt.Format(time.RFC3339),
		"source_service":     s.cfg.ServiceName,
		"trace_id":           "",
		"schema_version":     "1.0",
		"partition_key_path": "data.creator_id",
		"partition_key":      partitionKey,
		"data":               data,
	}
	payload, _ := json.Marshal(envelope)
	return s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:          uuid.New(),
		EventType:        eventType,
		PartitionKey:     partitionKey,
		PartitionKeyPath: "data.creator_id",
		Payload:          payload,
		OccurredAt:       occurredAt,
		SchemaVersion:    "1.0",
	})
}

func (s *Service) enqueueProfileUpdated(ctx context.Context, profile domain.CanonicalProfile) error {
	return s.enqueueEvent(ctx, EventProfileUpdated, profile.CreatorID.String(), profileUpdatedEventData{
		CreatorID:   profile.CreatorID.String(),
		UpdatedAt:   s.nowFn().Format(time.RFC3339),
		Handle:      profile.Handle,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		LinkInBio:   profile.LinkInBio,
	})
}

func (s *Service) enqueueProfileSynced(ctx context.Context, op domain.PushSyncOperation) error {
	completedAt := ""
	if op.CompletedAt != nil {
		completedAt = op.CompletedAt.Format(time.RFC3339)
	}
	return s.enqueueEvent(ctx, EventProfileSynced, op.CreatorID.String(), profileSyncedEventData{
		CreatorID:   op.CreatorID.String(),
		PlatformID:  string(op.PlatformID),
		OperationID: op.OperationID.String(),
		State:       string(op.State),
		ErrorDetail: op.ErrorDetail,
		CompletedAt: completedAt,
	})
}

func hashRequest(v any) string {
	raw, _ := json.Marshal(v)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// reserveIdempotency claims the key for this request. A retry carrying the
// same key and an identical payload is allowed through; reusing the key for a
// different payload is a conflict.
func (s *Service) reserveIdempotency(ctx context.Context, key string, request any) error {
	if key == "" {
		return nil
	}
	hash := hashRequest(request)
	err := s.idempotency.Reserve(ctx, key, hash, s.nowFn().Add(s.cfg.IdempotencyTTL))
	if err == nil {
		return nil
	}
	existing, getErr := s.idempotency.Get(ctx, key)
	if getErr == nil && existing != nil && existing.RequestHash == hash {
		return nil
	}
	return fmt.Errorf("%w: %v", domain.ErrIdempotencyConflict, err)
}

func (s *Service) completeIdempotency(ctx context.Context, key string, responseCode int, response any) {
	if key == "" {
		return
	}
	body, err := json.Marshal(response)
	if err != nil {
		return
	}
	_ = s.idempotency.Complete(ctx, key, responseCode, body, s.nowFn())
}

// defaultSyncFields is the stored toggle set for a freshly provisioned
// connection: every allowed field present, none enabled. Strict opt-in.
func defaultSyncFields(capability domain.PlatformCapability) map[domain.FieldName]bool {
	out := make(map[domain.FieldName]bool, len(capability.AllowedFields))
	for _, field := range domain.SyncableFields() {
		if capability.Allows(field) {
			out[field] = false
		}
	}
	return out
}
