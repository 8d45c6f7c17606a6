package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	AuthHTTPURL  string
	KafkaBrokers []string

	PlatformAPIBaseURLs map[string]string

	MaxDBConns               int32
	KafkaConsumerGroup       string
	KafkaTopicUserRegistered string
	KafkaTopicUserDeleted    string
	KafkaTopicProfileUpdated string
	KafkaTopicProfileSynced  string

	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration

	ProfileCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	EventDedupTTL   time.Duration
	DispatchTimeout time.Duration
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL              string            `yaml:"postgres_url"`
		RedisURL                 string            `yaml:"redis_url"`
		AuthHTTPURL              string            `yaml:"auth_http_url"`
		KafkaBrokers             []string          `yaml:"kafka_brokers"`
		KafkaConsumerGroup       string            `yaml:"kafka_consumer_group"`
		KafkaTopicUserRegistered string            `yaml:"kafka_topic_user_registered"`
		KafkaTopicUserDeleted    string            `yaml:"kafka_topic_user_deleted"`
		KafkaTopicProfileUpdated string            `yaml:"kafka_topic_profile_updated"`
		KafkaTopicProfileSynced  string            `yaml:"kafka_topic_profile_synced"`
		PlatformAPIBaseURLs      map[string]string `yaml:"platform_api_base_urls"`
	} `yaml:"dependencies"`
	Sync struct {
		DispatchTimeoutSeconds int `yaml:"dispatch_timeout_seconds"`
	} `yaml:"sync"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                "Profile-Sync-Service",
		HTTPPort:                 8080,
		GRPCPort:                 9090,
		MaxDBConns:               20,
		KafkaConsumerGroup:       "profile-sync-service",
		KafkaTopicUserRegistered: "user.registered",
		KafkaTopicUserDeleted:    "user.deleted",
		KafkaTopicProfileUpdated: "creator.profile_updated",
		KafkaTopicProfileSynced:  "creator.profile_synced",
		OutboxPollInterval:       2 * time.Second,
		OutboxBatchSize:          100,
		ConsumerPollInterval:     2 * time.Second,
		ProfileCacheTTL:          5 * time.Minute,
		IdempotencyTTL:           7 * 24 * time.Hour,
		EventDedupTTL:            7 * 24 * time.Hour,
		DispatchTimeout:          15 * time.Second,
		PlatformAPIBaseURLs:      map[string]string{},
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.AuthHTTPURL != "" {
			cfg.AuthHTTPURL = f.Dependencies.AuthHTTPURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		if f.Dependencies.KafkaTopicUserRegistered != "" {
			cfg.KafkaTopicUserRegistered = f.Dependencies.KafkaTopicUserRegistered
		}
		if f.Dependencies.KafkaTopicUserDeleted != "" {
			cfg.KafkaTopicUserDeleted = f.Dependencies.KafkaTopicUserDeleted
		}
		if f.Dependencies.KafkaTopicProfileUpdated != "" {
			cfg.KafkaTopicProfileUpdated = f.Dependencies.KafkaTopicProfileUpdated
		}
		if f.Dependencies.KafkaTopicProfileSynced != "" {
			cfg.KafkaTopicProfileSynced = f.Dependencies.KafkaTopicProfileSynced
		}
		for platform, base := range f.Dependencies.PlatformAPIBaseURLs {
			if trimmed := strings.TrimSpace(base); trimmed != "" {
				cfg.PlatformAPIBaseURLs[platform] = trimmed
			}
		}
		if f.Sync.DispatchTimeoutSeconds > 0 {
			cfg.DispatchTimeout = time.Duration(f.Sync.DispatchTimeoutSeconds) * time.Second
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.AuthHTTPURL = envOrDefault("AUTH_HTTP_URL", envOrDefault("AUTH_SERVICE_HTTP_ADDR", cfg.AuthHTTPURL))
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.KafkaTopicUserRegistered = envOrDefault("KAFKA_TOPIC_USER_REGISTERED", cfg.KafkaTopicUserRegistered)
	cfg.KafkaTopicUserDeleted = envOrDefault("KAFKA_TOPIC_USER_DELETED", cfg.KafkaTopicUserDeleted)
	cfg.KafkaTopicProfileUpdated = envOrDefault("KAFKA_TOPIC_PROFILE_UPDATED", cfg.KafkaTopicProfileUpdated)
	cfg.KafkaTopicProfileSynced = envOrDefault("KAFKA_TOPIC_PROFILE_SYNCED", cfg.KafkaTopicProfileSynced)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.ProfileCacheTTL = time.Duration(envInt("PROFILE_CACHE_SECONDS", int(cfg.ProfileCacheTTL.Seconds()))) * time.Second
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.DispatchTimeout = time.Duration(envInt("SYNC_DISPATCH_TIMEOUT_SECONDS", int(cfg.DispatchTimeout.Seconds()))) * time.Second
	for _, platform := range []string{"instagram", "tiktok", "pinterest", "x", "youtube"} {
		envName := "PLATFORM_API_" + strings.ToUpper(platform) + "_URL"
		if v := os.Getenv(envName); v != "" {
			cfg.PlatformAPIBaseURLs[platform] = v
		}
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.AuthHTTPURL == "" {
		return Config{}, fmt.Errorf("missing AUTH_HTTP_URL")
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
