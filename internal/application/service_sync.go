package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lalaverse/profile-sync-service/internal/domain"
	"github.com/lalaverse/profile-sync-service/internal/ports"
)

func inflightKey(creatorID uuid.UUID, platformID domain.PlatformID) string {
	return creatorID.String() + ":" + string(platformID)
}

func (s *Service) acquireInflight(key string) error {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return domain.ErrSyncInProgress
	}
	s.inflight[key] = struct{}{}
	return nil
}

func (s *Service) releaseInflight(key string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, key)
}

// Dispatch pushes the freshly rendered preview to one external platform.
//
// Preconditions fail fast with an error and no operation is created. Once an
// operation exists, execution failures are captured into its state and the
// connection's last-sync status instead of being returned as errors, so a
// caller fanning out over platforms cannot mishandle one platform's failure.
// Dispatches to the same (creator, platform) pair are serialized; a retry is
// always a brand-new Dispatch call.
func (s *Service) Dispatch(ctx context.Context, creatorID uuid.UUID, platformID domain.PlatformID, idempotencyKey string) (PushSyncResponse, error) {
	connection, capability, err := s.getOrCreateConnection(ctx, creatorID, platformID)
	if err != nil {
		return PushSyncResponse{}, err
	}
	if !connection.Connected {
		return PushSyncResponse{}, fmt.Errorf("%w: %s", domain.ErrPlatformNotConnected, platformID)
	}

	key := inflightKey(creatorID, platformID)
	if err := s.acquireInflight(key); err != nil {
		return PushSyncResponse{}, err
	}
	defer s.releaseInflight(key)

	if err := s.reserveIdempotency(ctx, idempotencyKey, map[string]string{
		"creator_id":  creatorID.String(),
		"platform_id": string(platformID),
	}); err != nil {
		return PushSyncResponse{}, err
	}

	// Recompute fresh at dispatch time. Profile edits or toggle changes since
	// the creator last looked at a preview must be reflected in the payload.
	profile, err := s.profiles.GetByCreatorID(ctx, creatorID)
	if err != nil {
		return PushSyncResponse{}, err
	}
	preview := domain.Render(profile, capability, connection.EffectiveSyncFields())

	op := domain.PushSyncOperation{
		OperationID: uuid.New(),
		CreatorID:   creatorID,
		PlatformID:  platformID,
		Payload:     preview.Payload(),
		State:       domain.OperationQueued,
		QueuedAt:    s.nowFn(),
	}
	op.State = domain.OperationInFlight

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.DispatchTimeout)
	sendErr := s.platformAPI.Send(sendCtx, platformID, op.Payload)
	cancel()

	completedAt := s.nowFn()
	op.CompletedAt = &completedAt
	if sendErr != nil {
		op.State = domain.OperationFailed
		if errors.Is(sendErr, context.DeadlineExceeded) {
			op.ErrorDetail = domain.ErrSyncTimeout.Error()
		} else {
			op.ErrorDetail = sendErr.Error()
		}
		// A failed attempt must not claim a sync happened: status flips to
		// failed, the last successful sync timestamp stays put.
		if _, recordErr := s.connections.RecordSyncResult(ctx, ports.SyncResultParams{
			CreatorID:  creatorID,
			PlatformID: platformID,
			Status:     domain.SyncStatusFailed,
			UpdatedAt:  completedAt,
		}); recordErr != nil {
			return PushSyncResponse{}, recordErr
		}
	} else {
		op.State = domain.OperationSucceeded
		if _, recordErr := s.connections.RecordSyncResult(ctx, ports.SyncResultParams{
			CreatorID:  creatorID,
			PlatformID: platformID,
			Status:     domain.SyncStatusSuccess,
			SyncedAt:   &completedAt,
			UpdatedAt:  completedAt,
		}); recordErr != nil {
			return PushSyncResponse{}, recordErr
		}
	}
	_ = s.enqueueProfileSynced(ctx, op)

	resp := toPushSyncResponse(op)
	s.completeIdempotency(ctx, idempotencyKey, 200, resp)
	return resp, nil
}
