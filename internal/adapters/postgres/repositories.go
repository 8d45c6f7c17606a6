package postgres

import (
	"github.com/lalaverse/profile-sync-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Profiles    ports.ProfileRepository
	Connections ports.ConnectionRepository
	Outbox      ports.OutboxRepository
	EventDedup  ports.EventDedupRepository
	Idempotency ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Profiles:    &profileRepository{db: db},
		Connections: &connectionRepository{db: db},
		Outbox:      &outboxRepository{db: db},
		EventDedup:  &eventDedupRepository{db: db},
		Idempotency: &idempotencyRepository{db: db},
	}
}
