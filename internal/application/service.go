package application

import (
	"sync"
	"time"

	"github.com/lalaverse/profile-sync-service/internal/ports"
)

type Service struct {
	cfg         Config
	profiles    ports.ProfileRepository
	connections ports.ConnectionRepository
	outbox      ports.OutboxRepository
	eventDedup  ports.EventDedupRepository
	idempotency ports.IdempotencyRepository
	platformAPI ports.PlatformAPIClient
	authClient  ports.AuthClient
	cache       ports.Cache
	nowFn       func() time.Time

	// inflight serializes dispatches per (creator, platform). A second
	// dispatch while one is running fails fast instead of queuing.
	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

type Dependencies struct {
	Config      Config
	Profiles    ports.ProfileRepository
	Connections ports.ConnectionRepository
	Outbox      ports.OutboxRepository
	EventDedup  ports.EventDedupRepository
	Idempotency ports.IdempotencyRepository
	PlatformAPI ports.PlatformAPIClient
	AuthClient  ports.AuthClient
	Cache       ports.Cache
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "Profile-Sync-Service"
	}
	if cfg.ProfileCacheTTL <= 0 {
		cfg.ProfileCacheTTL = 5 * time.Minute
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 15 * time.Second
	}

	return &Service{
		cfg:         cfg,
		profiles:    deps.Profiles,
		connections: deps.Connections,
		outbox:      deps.Outbox,
		eventDedup:  deps.EventDedup,
		idempotency: deps.Idempotency,
		platformAPI: deps.PlatformAPI,
		authClient:  deps.AuthClient,
		cache:       deps.Cache,
		nowFn:       func() time.Time { return time.Now().UTC() },
		inflight:    make(map[string]struct{}),
	}
}
