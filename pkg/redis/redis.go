package redis

import (
	"JoyverseEmotion/internal/entity"
	"errors"
	"fmt"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"os"
	"strconv"
	"time"
)

const (
	latestEmotionPrefix = "emotion:latest:"
	DefaultLatestTTL    = 30 * time.Minute
)

var ErrNotFound = errors.New("key not found")

type IRedis interface {
	SetLatestEmotion(ctx context.Context, sample entity.EmotionSample) error
	GetLatestEmotion(ctx context.Context, sessionID string) (entity.EmotionSample, error)
	Ping(ctx context.Context) error
	Close() error
}

type redisClient struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// New connects using REDIS_ADDRESS, REDIS_PASSWORD, REDIS_DB and REDIS_TTL
// (a Go duration, default 30m).
func New(log *logrus.Logger) IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")

	ttl, err := time.ParseDuration(os.Getenv("REDIS_TTL"))
	if err != nil || ttl <= 0 {
		ttl = DefaultLatestTTL
	}

	log.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	r := &redisClient{client: client, ttl: ttl, log: log}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Ping(ctx); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return r
}

func latestKey(sessionID string) string {
	return latestEmotionPrefix + sessionID
}

func (r *redisClient) SetLatestEmotion(ctx context.Context, sample entity.EmotionSample) error {
	payload, err := jsoniter.Marshal(sample)
	if err != nil {
		return err
	}

	key := latestKey(sample.SessionID)
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.log.Error(fmt.Sprintf("Error setting latest emotion for key %s: %v", key, err))
		return err
	}

	r.log.Debug(fmt.Sprintf("Stored latest emotion for key %s", key))
	return nil
}

func (r *redisClient) GetLatestEmotion(ctx context.Context, sessionID string) (entity.EmotionSample, error) {
	key := latestKey(sessionID)

	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.log.Debug(fmt.Sprintf("Latest emotion not found for key %s", key))
		return entity.EmotionSample{}, ErrNotFound
	} else if err != nil {
		r.log.Error(fmt.Sprintf("Error getting latest emotion for key %s: %v", key, err))
		return entity.EmotionSample{}, err
	}

	var sample entity.EmotionSample
	if err := jsoniter.Unmarshal(raw, &sample); err != nil {
		return entity.EmotionSample{}, fmt.Errorf("decode cached sample: %w", err)
	}

	return sample, nil
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
