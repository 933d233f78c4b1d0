package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/utils"
)

const velocityWindow = time.Minute

// VelocityCounter reports how many orders a user has placed inside the
// current one-minute window, including the one being placed now.
type VelocityCounter interface {
	Bump(ctx context.Context, userID uuid.UUID) (int64, error)
}

type redisVelocityCounter struct {
	log    *logger.Logger
	client *redis.Client
}

func NewRedisVelocityCounter(log *logger.Logger) (VelocityCounter, error) {
	serviceLog := log.With("service", "RedisVelocityCounter")
	addr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
	password := utils.GetEnv("REDIS_PASSWORD", "", log)
	db := utils.GetEnvAsInt("REDIS_DB", 0, log)

	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &redisVelocityCounter{log: serviceLog, client: client}, nil
}

func (rc *redisVelocityCounter) Bump(ctx context.Context, userID uuid.UUID) (int64, error) {
	key := fmt.Sprintf("velocity:order:%s", userID)
	count, err := rc.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := rc.client.Expire(ctx, key, velocityWindow).Err(); err != nil {
			rc.log.Warn("Failed to set velocity key TTL", "key", key, "error", err)
		}
	}
	return count, nil
}

// sqlVelocityCounter is the degraded path used when Redis is not
// configured: it counts order rows in the window instead.
type sqlVelocityCounter struct {
	log       *logger.Logger
	orderRepo repos.OrderRepo
}

func NewSQLVelocityCounter(log *logger.Logger, orderRepo repos.OrderRepo) VelocityCounter {
	return &sqlVelocityCounter{
		log:       log.With("service", "SQLVelocityCounter"),
		orderRepo: orderRepo,
	}
}

func (sc *sqlVelocityCounter) Bump(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := sc.orderRepo.CountByUserSince(ctx, nil, userID, time.Now().Add(-velocityWindow))
	if err != nil {
		return 0, err
	}
	// the order being placed is not a row yet
	return count + 1, nil
}
