package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalaverse/profile-sync-service/internal/domain"
	"github.com/lalaverse/profile-sync-service/internal/ports"
)

type fakeProfiles struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]domain.CanonicalProfile
	updates  int
	getCalls int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: make(map[uuid.UUID]domain.CanonicalProfile)}
}

func (f *fakeProfiles) CreateProfileWithDefaults(_ context.Context, params ports.CreateProfileParams) (domain.CanonicalProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.rows[params.CreatorID]; exists {
		return domain.CanonicalProfile{}, domain.ErrConflict
	}
	profile := domain.CanonicalProfile{
		CreatorID:   params.CreatorID,
		Handle:      params.Handle,
		DisplayName: params.DisplayName,
		CreatedAt:   params.CreatedAt,
		UpdatedAt:   params.CreatedAt,
	}
	f.rows[params.CreatorID] = profile
	return profile, nil
}

func (f *fakeProfiles) GetByCreatorID(_ context.Context, creatorID uuid.UUID) (domain.CanonicalProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	profile, ok := f.rows[creatorID]
	if !ok || profile.DeletedAt != nil {
		return domain.CanonicalProfile{}, domain.ErrNotFound
	}
	return profile, nil
}

func (f *fakeProfiles) UpdateProfile(_ context.Context, params ports.UpdateProfileParams) (domain.CanonicalProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.rows[params.CreatorID]
	if !ok || profile.DeletedAt != nil {
		return domain.CanonicalProfile{}, domain.ErrNotFound
	}
	f.updates++
	if params.Handle != nil {
		profile.Handle = *params.Handle
	}
	if params.DisplayName != nil {
		profile.DisplayName = *params.DisplayName
	}
	if params.Bio != nil {
		profile.Bio = *params.Bio
	}
	if params.AvatarRef != nil {
		profile.AvatarRef = *params.AvatarRef
	}
	if params.CoverRef != nil {
		profile.CoverRef = *params.CoverRef
	}
	if params.BrandColorPrimary != nil {
		profile.BrandColorPrimary = *params.BrandColorPrimary
	}
	if params.BrandColorSecondary != nil {
		profile.BrandColorSecondary = *params.BrandColorSecondary
	}
	if params.LinkInBio != nil {
		profile.LinkInBio = *params.LinkInBio
	}
	profile.UpdatedAt = params.UpdatedAt
	f.rows[params.CreatorID] = profile
	return profile, nil
}

func (f *fakeProfiles) SoftDeleteByCreatorID(_ context.Context, creatorID uuid.UUID, deletedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.rows[creatorID]
	if !ok || profile.DeletedAt != nil {
		return domain.ErrNotFound
	}
	profile.DeletedAt = &deletedAt
	f.rows[creatorID] = profile
	return nil
}

type fakeConnections struct {
	mu   sync.Mutex
	rows map[string]domain.Connection
}

func newFakeConnections() *fakeConnections {
	return &fakeConnections{rows: make(map[string]domain.Connection)}
}

func connKey(creatorID uuid.UUID, platformID domain.PlatformID) string {
	return creatorID.String() + ":" + string(platformID)
}

func copyFields(in map[domain.FieldName]bool) map[domain.FieldName]bool {
	out := make(map[domain.FieldName]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (f *fakeConnections) GetOrCreate(_ context.Context, params ports.CreateConnectionParams) (domain.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := connKey(params.CreatorID, params.PlatformID)
	if conn, ok := f.rows[key]; ok {
		conn.SyncFields = copyFields(conn.SyncFields)
		return conn, nil
	}
	conn := domain.Connection{
		ConnectionID:   uuid.New(),
		CreatorID:      params.CreatorID,
		PlatformID:     params.PlatformID,
		SyncFields:     copyFields(params.SyncFields),
		LastSyncStatus: domain.SyncStatusNever,
		CreatedAt:      params.CreatedAt,
		UpdatedAt:      params.CreatedAt,
	}
	f.rows[key] = conn
	conn.SyncFields = copyFields(conn.SyncFields)
	return conn, nil
}

func (f *fakeConnections) ListByCreatorID(_ context.Context, creatorID uuid.UUID) ([]domain.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Connection
	for _, conn := range f.rows {
		if conn.CreatorID == creatorID {
			conn.SyncFields = copyFields(conn.SyncFields)
			out = append(out, conn)
		}
	}
	return out, nil
}

func (f *fakeConnections) SetFieldSync(_ context.Context, creatorID uuid.UUID, platformID domain.PlatformID, field domain.FieldName, enabled bool, updatedAt time.Time) (domain.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := connKey(creatorID, platformID)
	conn, ok := f.rows[key]
	if !ok {
		return domain.Connection{}, domain.ErrNotFound
	}
	conn.SyncFields = copyFields(conn.SyncFields)
	conn.SyncFields[field] = enabled
	conn.UpdatedAt = updatedAt
	f.rows[key] = conn
	conn.SyncFields = copyFields(conn.SyncFields)
	return conn, nil
}

func (f *fakeConnections) SetConnected(_ context.Context, creatorID uuid.UUID, platformID domain.PlatformID, connected bool, updatedAt time.Time) (domain.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := connKey(creatorID, platformID)
	conn, ok := f.rows[key]
	if !ok {
		return domain.Connection{}, domain.ErrNotFound
	}
	conn.Connected = connected
	conn.UpdatedAt = updatedAt
	f.rows[key] = conn
	conn.SyncFields = copyFields(conn.SyncFields)
	return conn, nil
}

func (f *fakeConnections) RecordSyncResult(_ context.Context, params ports.SyncResultParams) (domain.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := connKey(params.CreatorID, params.PlatformID)
	conn, ok := f.rows[key]
	if !ok {
		return domain.Connection{}, domain.ErrNotFound
	}
	conn.LastSyncStatus = params.Status
	if params.SyncedAt != nil {
		conn.LastSyncedAt = params.SyncedAt
	}
	conn.UpdatedAt = params.UpdatedAt
	f.rows[key] = conn
	conn.SyncFields = copyFields(conn.SyncFields)
	return conn, nil
}

func (f *fakeConnections) get(creatorID uuid.UUID, platformID domain.PlatformID) domain.Connection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[connKey(creatorID, platformID)]
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (f *fakeOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) FetchUnpublished(_ context.Context, _ int) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, _ uuid.UUID, _ time.Time) error { return nil }

func (f *fakeOutbox) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}

func (f *fakeOutbox) byType(eventType string) []ports.OutboxEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.OutboxEvent
	for _, event := range f.events {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}

type fakeEventDedup struct {
	mu        sync.Mutex
	processed map[string]string
}

func newFakeEventDedup() *fakeEventDedup {
	return &fakeEventDedup{processed: make(map[string]string)}
}

func (f *fakeEventDedup) IsDuplicate(_ context.Context, eventID string, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.processed[eventID]
	return ok, nil
}

func (f *fakeEventDedup) MarkProcessed(_ context.Context, eventID, eventType string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed[eventID] = eventType
	return nil
}

type fakeIdempotency struct {
	mu       sync.Mutex
	reserved map[string]string
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{reserved: make(map[string]string)}
}

func (f *fakeIdempotency) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := f.reserved[key]
	if !ok {
		return nil, nil
	}
	return &ports.IdempotencyRecord{Key: key, RequestHash: hash}, nil
}

func (f *fakeIdempotency) Reserve(_ context.Context, key, requestHash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reserved[key]; ok {
		return domain.ErrConflict
	}
	f.reserved[key] = requestHash
	return nil
}

func (f *fakeIdempotency) Complete(_ context.Context, _ string, _ int, _ []byte, _ time.Time) error {
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[key], nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

type fakePlatformAPI struct {
	mu      sync.Mutex
	sendErr error
	started chan struct{}
	release chan struct{}
	sent    []map[domain.FieldName]string
}

func (f *fakePlatformAPI) Send(ctx context.Context, _ domain.PlatformID, payload map[domain.FieldName]string) error {
	f.mu.Lock()
	started := f.started
	release := f.release
	sendErr := f.sendErr
	f.sent = append(f.sent, payload)
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return sendErr
}

func (f *fakePlatformAPI) lastPayload() map[domain.FieldName]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

type fakeAuthClient struct{}

func (fakeAuthClient) ValidateToken(_ context.Context, token string) (ports.AuthClaims, error) {
	if token == "valid" {
		return ports.AuthClaims{UserID: uuid.NewString(), Valid: true}, nil
	}
	return ports.AuthClaims{}, domain.ErrUnauthorized
}

func (fakeAuthClient) GetUserIdentity(_ context.Context, userID uuid.UUID) (domain.UserIdentity, error) {
	return domain.UserIdentity{UserID: userID, Email: "jane@creators.example", Status: "active"}, nil
}

type testEnv struct {
	svc         *Service
	profiles    *fakeProfiles
	connections *fakeConnections
	outbox      *fakeOutbox
	cache       *fakeCache
	platformAPI *fakePlatformAPI
}

func newTestEnv(cfg Config) *testEnv {
	env := &testEnv{
		profiles:    newFakeProfiles(),
		connections: newFakeConnections(),
		outbox:      &fakeOutbox{},
		cache:       newFakeCache(),
		platformAPI: &fakePlatformAPI{},
	}
	env.svc = NewService(Dependencies{
		Config:      cfg,
		Profiles:    env.profiles,
		Connections: env.connections,
		Outbox:      env.outbox,
		EventDedup:  newFakeEventDedup(),
		Idempotency: newFakeIdempotency(),
		PlatformAPI: env.platformAPI,
		AuthClient:  fakeAuthClient{},
		Cache:       env.cache,
	})
	return env
}

func (env *testEnv) seedProfile(t *testing.T) uuid.UUID {
	t.Helper()
	creatorID := uuid.New()
	_, err := env.profiles.CreateProfileWithDefaults(context.Background(), ports.CreateProfileParams{
		CreatorID:   creatorID,
		Handle:      "jane_clips",
		DisplayName: "Jane Clips",
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return creatorID
}

func (env *testEnv) connect(t *testing.T, creatorID uuid.UUID, platformID domain.PlatformID, fields ...domain.FieldName) {
	t.Helper()
	ctx := context.Background()
	if _, err := env.svc.MarkConnected(ctx, creatorID, platformID, true); err != nil {
		t.Fatalf("MarkConnected error: %v", err)
	}
	for _, field := range fields {
		if _, err := env.svc.SetFieldSync(ctx, creatorID, platformID, field, true); err != nil {
			t.Fatalf("SetFieldSync(%s) error: %v", field, err)
		}
	}
}

func strPtr(v string) *string { return &v }

func TestUpdateProfileRejectsOverlongBioWithoutWriting(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)

	_, err := env.svc.UpdateProfile(context.Background(), creatorID, UpdateProfileRequest{
		DisplayName: strPtr("Jane Renamed"),
		Bio:         strPtr(strings.Repeat("x", domain.BioMaxChars+1)),
	}, "")
	if !errors.Is(err, domain.ErrFieldTooLong) {
		t.Fatalf("expected ErrFieldTooLong, got %v", err)
	}
	if env.profiles.updates != 0 {
		t.Fatalf("rejected update must not touch the store, got %d writes", env.profiles.updates)
	}
	profile, _ := env.profiles.GetByCreatorID(context.Background(), creatorID)
	if profile.DisplayName != "Jane Clips" {
		t.Fatalf("display name changed despite rejected request: %q", profile.DisplayName)
	}
}

func TestUpdateProfileAppliesPartialEdit(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)

	resp, err := env.svc.UpdateProfile(context.Background(), creatorID, UpdateProfileRequest{
		Bio:       strPtr("Creator of short-form cooking videos"),
		LinkInBio: strPtr("https://jane.example.com"),
	}, "")
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if resp.Bio != "Creator of short-form cooking videos" {
		t.Fatalf("unexpected bio: %q", resp.Bio)
	}
	if resp.DisplayName != "Jane Clips" {
		t.Fatalf("untouched field must survive a partial edit, got %q", resp.DisplayName)
	}
	if events := env.outbox.byType(EventProfileUpdated); len(events) != 1 {
		t.Fatalf("expected one profile_updated outbox event, got %d", len(events))
	}
}

func TestUpdateProfileHandleImmutable(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)
	ctx := context.Background()

	// Same normalized handle is a no-op, not a violation.
	if _, err := env.svc.UpdateProfile(ctx, creatorID, UpdateProfileRequest{Handle: strPtr("@Jane_Clips")}, ""); err != nil {
		t.Fatalf("no-op handle change error: %v", err)
	}

	_, err := env.svc.UpdateProfile(ctx, creatorID, UpdateProfileRequest{Handle: strPtr("new_handle")}, "")
	if !errors.Is(err, domain.ErrImmutableField) {
		t.Fatalf("expected ErrImmutableField, got %v", err)
	}
}

func TestUpdateProfileIdempotencyKeyReuse(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)
	ctx := context.Background()

	if _, err := env.svc.UpdateProfile(ctx, creatorID, UpdateProfileRequest{Bio: strPtr("first")}, "idem-1"); err != nil {
		t.Fatalf("first update error: %v", err)
	}
	_, err := env.svc.UpdateProfile(ctx, creatorID, UpdateProfileRequest{Bio: strPtr("second")}, "idem-1")
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestUpdateProfileIdempotentRetrySamePayload(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)
	ctx := context.Background()

	req := UpdateProfileRequest{Bio: strPtr("same payload")}
	if _, err := env.svc.UpdateProfile(ctx, creatorID, req, "idem-same"); err != nil {
		t.Fatalf("first update error: %v", err)
	}
	// A network retry replays the identical request under the same key. Only
	// reusing the key with a different payload is a conflict.
	resp, err := env.svc.UpdateProfile(ctx, creatorID, req, "idem-same")
	if err != nil {
		t.Fatalf("identical retry must succeed, got %v", err)
	}
	if resp.Bio != "same payload" {
		t.Fatalf("retry returned wrong profile state: %q", resp.Bio)
	}
}

func TestGetProfileCachesAndInvalidates(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)
	ctx := context.Background()

	if _, err := env.svc.GetProfile(ctx, creatorID); err != nil {
		t.Fatalf("GetProfile error: %v", err)
	}
	reads := env.profiles.getCalls
	if _, err := env.svc.GetProfile(ctx, creatorID); err != nil {
		t.Fatalf("cached GetProfile error: %v", err)
	}
	if env.profiles.getCalls != reads {
		t.Fatalf("second read should come from cache")
	}

	if _, err := env.svc.UpdateProfile(ctx, creatorID, UpdateProfileRequest{Bio: strPtr("fresh")}, ""); err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	resp, err := env.svc.GetProfile(ctx, creatorID)
	if err != nil {
		t.Fatalf("GetProfile after update error: %v", err)
	}
	if resp.Bio != "fresh" {
		t.Fatalf("stale cache served after update: %q", resp.Bio)
	}
}

func TestListConnectionsCoversAllPlatforms(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)

	connections, err := env.svc.ListConnections(context.Background(), creatorID)
	if err != nil {
		t.Fatalf("ListConnections error: %v", err)
	}
	if len(connections) != len(domain.SupportedPlatforms()) {
		t.Fatalf("expected %d connections, got %d", len(domain.SupportedPlatforms()), len(connections))
	}
	for _, conn := range connections {
		if conn.Connected {
			t.Fatalf("fresh connection must start disconnected: %+v", conn)
		}
		if conn.LastSyncStatus != string(domain.SyncStatusNever) {
			t.Fatalf("fresh connection must start with never status, got %s", conn.LastSyncStatus)
		}
		for field, enabled := range conn.SyncFields {
			if enabled {
				t.Fatalf("fresh toggle %s on %s must start off", field, conn.PlatformID)
			}
		}
	}
}

func TestSetFieldSyncRejectsUnsupportedField(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)

	_, err := env.svc.SetFieldSync(context.Background(), creatorID, domain.PlatformTikTok, domain.FieldLinkInBio, true)
	if !errors.Is(err, domain.ErrFieldNotSupported) {
		t.Fatalf("expected ErrFieldNotSupported, got %v", err)
	}
}

func TestSetFieldSyncUnknownPlatform(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)

	_, err := env.svc.SetFieldSync(context.Background(), creatorID, "myspace", domain.FieldBio, true)
	if !errors.Is(err, domain.ErrUnknownPlatform) {
		t.Fatalf("expected ErrUnknownPlatform, got %v", err)
	}
}

func TestDisconnectPreservesTogglesButReadsAllFalse(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)
	ctx := context.Background()
	env.connect(t, creatorID, domain.PlatformInstagram, domain.FieldBio, domain.FieldDisplayName)

	disconnected, err := env.svc.MarkConnected(ctx, creatorID, domain.PlatformInstagram, false)
	if err != nil {
		t.Fatalf("disconnect error: %v", err)
	}
	if !disconnected.SyncFields["bio"] {
		t.Fatalf("stored toggle must survive disconnect")
	}
	for field, enabled := range disconnected.EffectiveFields {
		if enabled {
			t.Fatalf("effective toggle %s must read false while disconnected", field)
		}
	}

	reconnected, err := env.svc.MarkConnected(ctx, creatorID, domain.PlatformInstagram, true)
	if err != nil {
		t.Fatalf("reconnect error: %v", err)
	}
	if !reconnected.EffectiveFields["bio"] || !reconnected.EffectiveFields["display_name"] {
		t.Fatalf("reconnect must restore prior toggles, got %v", reconnected.EffectiveFields)
	}
}

func TestPreviewSyncOmitsEverythingWhileDisconnected(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)
	ctx := context.Background()
	env.connect(t, creatorID, domain.PlatformInstagram, domain.FieldBio)
	if _, err := env.svc.MarkConnected(ctx, creatorID, domain.PlatformInstagram, false); err != nil {
		t.Fatalf("disconnect error: %v", err)
	}

	preview, err := env.svc.PreviewSync(ctx, creatorID, domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("PreviewSync error: %v", err)
	}
	for field, rendered := range preview.RenderedFields {
		if !rendered.Omitted {
			t.Fatalf("field %s rendered while disconnected", field)
		}
	}
	if len(preview.Warnings) != 0 {
		t.Fatalf("disconnected preview must not warn, got %v", preview.Warnings)
	}
}

func TestDispatchRequiresConnection(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)

	_, err := env.svc.Dispatch(context.Background(), creatorID, domain.PlatformInstagram, "")
	if !errors.Is(err, domain.ErrPlatformNotConnected) {
		t.Fatalf("expected ErrPlatformNotConnected, got %v", err)
	}
	if len(env.platformAPI.sent) != 0 {
		t.Fatalf("no payload may leave the service without a connection")
	}
}

func TestDispatchSuccessRecordsSyncResult(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)
	ctx := context.Background()
	if _, err := env.svc.UpdateProfile(ctx, creatorID, UpdateProfileRequest{Bio: strPtr("Cooking videos")}, ""); err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	env.connect(t, creatorID, domain.PlatformInstagram, domain.FieldBio, domain.FieldDisplayName)

	resp, err := env.svc.Dispatch(ctx, creatorID, domain.PlatformInstagram, "")
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if resp.State != string(domain.OperationSucceeded) {
		t.Fatalf("expected succeeded state, got %s", resp.State)
	}
	payload := env.platformAPI.lastPayload()
	if payload[domain.FieldBio] != "Cooking videos" || payload[domain.FieldDisplayName] != "Jane Clips" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, ok := payload[domain.FieldAvatarRef]; ok {
		t.Fatalf("disabled field must not be pushed")
	}

	conn := env.connections.get(creatorID, domain.PlatformInstagram)
	if conn.LastSyncStatus != domain.SyncStatusSuccess {
		t.Fatalf("expected success status, got %s", conn.LastSyncStatus)
	}
	if conn.LastSyncedAt == nil {
		t.Fatalf("successful sync must set last synced timestamp")
	}
	if events := env.outbox.byType(EventProfileSynced); len(events) != 1 {
		t.Fatalf("expected one profile_synced outbox event, got %d", len(events))
	}
}

func TestDispatchFailureLeavesLastSyncedAt(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)
	ctx := context.Background()
	env.connect(t, creatorID, domain.PlatformInstagram, domain.FieldBio)

	first, err := env.svc.Dispatch(ctx, creatorID, domain.PlatformInstagram, "")
	if err != nil || first.State != string(domain.OperationSucceeded) {
		t.Fatalf("first dispatch: state=%s err=%v", first.State, err)
	}
	syncedAt := env.connections.get(creatorID, domain.PlatformInstagram).LastSyncedAt

	env.platformAPI.mu.Lock()
	env.platformAPI.sendErr = fmt.Errorf("%w: instagram returned 503", domain.ErrPlatformAPI)
	env.platformAPI.mu.Unlock()

	resp, err := env.svc.Dispatch(ctx, creatorID, domain.PlatformInstagram, "")
	if err != nil {
		t.Fatalf("execution failure must surface as operation state, got error %v", err)
	}
	if resp.State != string(domain.OperationFailed) {
		t.Fatalf("expected failed state, got %s", resp.State)
	}
	if resp.ErrorDetail == "" {
		t.Fatalf("failed operation must carry error detail")
	}

	conn := env.connections.get(creatorID, domain.PlatformInstagram)
	if conn.LastSyncStatus != domain.SyncStatusFailed {
		t.Fatalf("expected failed status, got %s", conn.LastSyncStatus)
	}
	if conn.LastSyncedAt == nil || !conn.LastSyncedAt.Equal(*syncedAt) {
		t.Fatalf("failed sync must not move the last successful sync timestamp")
	}
}

func TestDispatchSerializedPerCreatorPlatform(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)
	ctx := context.Background()
	env.connect(t, creatorID, domain.PlatformInstagram, domain.FieldBio)

	env.platformAPI.mu.Lock()
	env.platformAPI.started = make(chan struct{}, 1)
	env.platformAPI.release = make(chan struct{})
	env.platformAPI.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := env.svc.Dispatch(ctx, creatorID, domain.PlatformInstagram, "")
		done <- err
	}()
	<-env.platformAPI.started

	_, err := env.svc.Dispatch(ctx, creatorID, domain.PlatformInstagram, "")
	if !errors.Is(err, domain.ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}

	close(env.platformAPI.release)
	if err := <-done; err != nil {
		t.Fatalf("first dispatch error: %v", err)
	}

	// The slot frees once the first dispatch resolves.
	env.platformAPI.mu.Lock()
	env.platformAPI.started = nil
	env.platformAPI.release = nil
	env.platformAPI.mu.Unlock()
	if _, err := env.svc.Dispatch(ctx, creatorID, domain.PlatformInstagram, ""); err != nil {
		t.Fatalf("dispatch after release error: %v", err)
	}
}

func TestDispatchTimeoutResolvesToFailed(t *testing.T) {
	env := newTestEnv(Config{DispatchTimeout: 30 * time.Millisecond})
	creatorID := env.seedProfile(t)
	ctx := context.Background()
	env.connect(t, creatorID, domain.PlatformInstagram, domain.FieldBio)

	env.platformAPI.mu.Lock()
	env.platformAPI.release = make(chan struct{})
	env.platformAPI.mu.Unlock()

	resp, err := env.svc.Dispatch(ctx, creatorID, domain.PlatformInstagram, "")
	if err != nil {
		t.Fatalf("timeout must resolve to operation state, got error %v", err)
	}
	if resp.State != string(domain.OperationFailed) {
		t.Fatalf("expected failed state after timeout, got %s", resp.State)
	}
	if resp.ErrorDetail != domain.ErrSyncTimeout.Error() {
		t.Fatalf("expected timeout error detail, got %q", resp.ErrorDetail)
	}
	conn := env.connections.get(creatorID, domain.PlatformInstagram)
	if conn.LastSyncedAt != nil {
		t.Fatalf("timed-out sync must not claim a successful sync")
	}
}

func TestHandleUserRegisteredProvisionsDefaults(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := uuid.New()
	payload, _ := json.Marshal(map[string]any{
		"event_id": "evt-reg-1",
		"data": map[string]string{
			"user_id":      creatorID.String(),
			"username":     "@Jane_Clips",
			"display_name": "Jane Clips",
		},
	})

	if err := env.svc.HandleUserRegistered(context.Background(), payload); err != nil {
		t.Fatalf("HandleUserRegistered error: %v", err)
	}
	profile, err := env.profiles.GetByCreatorID(context.Background(), creatorID)
	if err != nil {
		t.Fatalf("expected provisioned profile, got %v", err)
	}
	if profile.Handle != "jane_clips" {
		t.Fatalf("expected normalized handle, got %q", profile.Handle)
	}
	for _, platformID := range domain.SupportedPlatforms() {
		conn := env.connections.get(creatorID, platformID)
		if conn.PlatformID != platformID {
			t.Fatalf("missing provisioned connection for %s", platformID)
		}
		if conn.Connected {
			t.Fatalf("provisioned connection %s must start disconnected", platformID)
		}
	}

	// Redelivery is a no-op.
	if err := env.svc.HandleUserRegistered(context.Background(), payload); err != nil {
		t.Fatalf("redelivered event error: %v", err)
	}
}

func TestHandleUserRegisteredBackfillsDisplayNameFromIdentity(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := uuid.New()
	payload, _ := json.Marshal(map[string]any{
		"event_id": "evt-reg-sparse",
		"data": map[string]string{
			"user_id":  creatorID.String(),
			"username": "@Jane_Clips",
		},
	})

	if err := env.svc.HandleUserRegistered(context.Background(), payload); err != nil {
		t.Fatalf("HandleUserRegistered error: %v", err)
	}
	profile, err := env.profiles.GetByCreatorID(context.Background(), creatorID)
	if err != nil {
		t.Fatalf("expected provisioned profile, got %v", err)
	}
	// Sparse events carry no display name; the auth identity's email local
	// part fills the gap so the profile never starts blank.
	if profile.DisplayName != "jane" {
		t.Fatalf("expected backfilled display name %q, got %q", "jane", profile.DisplayName)
	}
}

func TestHandleUserDeletedSoftDeletes(t *testing.T) {
	env := newTestEnv(Config{})
	creatorID := env.seedProfile(t)
	payload, _ := json.Marshal(map[string]any{
		"event_id": "evt-del-1",
		"data":     map[string]string{"user_id": creatorID.String()},
	})

	if err := env.svc.HandleUserDeleted(context.Background(), payload); err != nil {
		t.Fatalf("HandleUserDeleted error: %v", err)
	}
	if _, err := env.profiles.GetByCreatorID(context.Background(), creatorID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted profile to be unreadable, got %v", err)
	}
}

func TestValidateTokenRejectsEmptyAndInvalid(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	if _, err := env.svc.ValidateToken(ctx, ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for empty token, got %v", err)
	}
	if _, err := env.svc.ValidateToken(ctx, "garbage"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for bad token, got %v", err)
	}
	claims, err := env.svc.ValidateToken(ctx, "valid")
	if err != nil || !claims.Valid {
		t.Fatalf("expected valid claims, got %+v err %v", claims, err)
	}
}
