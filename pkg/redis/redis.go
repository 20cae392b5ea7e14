package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"FocusGolang/internal/entity"
)

// IRedis caches the newest FocusMetricRecords per session (backing the
// recent-metrics query) and tracks session liveness with a sliding TTL.
type IRedis interface {
	PushMetric(ctx context.Context, sessionID string, record entity.FocusMetricRecord, maxLen int) error
	GetRecentMetrics(ctx context.Context, sessionID string, n int) ([]entity.FocusMetricRecord, error)
	SetSessionActive(ctx context.Context, sessionID string, ttl time.Duration) error
	IsSessionActive(ctx context.Context, sessionID string) (bool, error)
	ClearSession(ctx context.Context, sessionID string) error
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func recentKey(sessionID string) string  { return "attention:recent:" + sessionID }
func sessionKey(sessionID string) string { return "attention:session:" + sessionID }

func (r *redisClient) PushMetric(ctx context.Context, sessionID string, record entity.FocusMetricRecord, maxLen int) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	key := recentKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(maxLen-1))
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.Error(fmt.Sprintf("Error caching metric for session %s: %v", sessionID, err))
		return err
	}
	return nil
}

// GetRecentMetrics returns up to n cached records, oldest first.
func (r *redisClient) GetRecentMetrics(ctx context.Context, sessionID string, n int) ([]entity.FocusMetricRecord, error) {
	raw, err := r.client.LRange(ctx, recentKey(sessionID), 0, int64(n-1)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error reading recent metrics for session %s: %v", sessionID, err))
		return nil, err
	}

	// The list is newest-first; reverse into chronological order.
	records := make([]entity.FocusMetricRecord, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var record entity.FocusMetricRecord
		if err := json.Unmarshal([]byte(raw[i]), &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *redisClient) SetSessionActive(ctx context.Context, sessionID string, ttl time.Duration) error {
	return r.client.Set(ctx, sessionKey(sessionID), "1", ttl).Err()
}

func (r *redisClient) IsSessionActive(ctx context.Context, sessionID string) (bool, error) {
	_, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisClient) ClearSession(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, recentKey(sessionID), sessionKey(sessionID)).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error clearing cached session %s: %v", sessionID, err))
		return err
	}
	return nil
}
