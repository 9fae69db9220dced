package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/impostor/go/internal/dbconfig"
	"github.com/mcdev12/impostor/go/internal/room/eventbus"
	"github.com/mcdev12/impostor/go/internal/room/repository"
)

// roomStore bundles the configured backend with its sweeper (nil when the
// backend expires keys itself) and a close func.
type roomStore struct {
	repository.Store
	sweeper repository.Sweeper
	close   func()
}

func setupStore(ctx context.Context, config *Config, clock clockwork.Clock) (*roomStore, error) {
	switch config.StoreBackend {
	case backendRedis:
		redisCfg := dbconfig.NewRedisConfigFromEnv()
		rdb := redis.NewClient(redisCfg.Options())
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		log.Info().Str("addr", redisCfg.Addr).Int("db", redisCfg.DB).Msg("connected to redis")
		return &roomStore{
			Store: repository.NewRedisStore(rdb, config.RoomTTL),
			close: func() { _ = rdb.Close() },
		}, nil

	case backendPostgres:
		dbCfg := dbconfig.NewConfigFromEnv()
		pool, err := pgxpool.New(ctx, dbCfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		store := repository.NewPostgresStore(pool, config.RoomTTL)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().
			Str("host", dbCfg.Host).
			Int("port", dbCfg.Port).
			Str("database", dbCfg.Database).
			Msg("connected to database")
		return &roomStore{Store: store, sweeper: store, close: pool.Close}, nil

	default:
		store := repository.NewMemoryStore(clock, config.RoomTTL)
		return &roomStore{Store: store, sweeper: store, close: func() {}}, nil
	}
}

func setupPublisher(ctx context.Context, config *Config) (eventbus.Publisher, error) {
	if config.NATSURL == "" {
		log.Info().Msg("NATS_URL not set, room events are not streamed")
		return eventbus.Noop{}, nil
	}

	jsCfg := eventbus.DefaultJetStreamConfig()
	jsCfg.URL = config.NATSURL
	jsCfg.MaxAge = config.RoomTTL
	publisher, err := eventbus.NewJetStreamPublisher(ctx, jsCfg)
	if err != nil {
		return nil, err
	}
	return eventbus.NewAsyncPublisher(publisher, 1024, 2), nil
}
