package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/4DevsO/qtut-b4a/internal/errs"
)

const (
	tokenPrefix = "token:"
	resetPrefix = "reset:"
)

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 5
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisService keeps session and password reset tokens with a TTL.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

func (r *RedisService) SetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return wrapRedis(r.client.Set(ctx, tokenPrefix+token, userID, ttl).Err())
}

// GetToken returns the user id a session token belongs to, or "" when the
// token is unknown or expired.
func (r *RedisService) GetToken(ctx context.Context, token string) (string, error) {
	userID, err := r.client.Get(ctx, tokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return userID, wrapRedis(err)
}

func (r *RedisService) DeleteToken(ctx context.Context, token string) error {
	return wrapRedis(r.client.Del(ctx, tokenPrefix+token).Err())
}

func (r *RedisService) SetResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return wrapRedis(r.client.Set(ctx, resetPrefix+token, userID, ttl).Err())
}

// TakeResetToken returns the user id behind a reset token and removes it, so
// a token works once. It returns "" when the token is unknown or expired.
func (r *RedisService) TakeResetToken(ctx context.Context, token string) (string, error) {
	userID, err := r.client.GetDel(ctx, resetPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return userID, wrapRedis(err)
}

func (r *RedisService) Ping(ctx context.Context) error {
	return wrapRedis(r.client.Ping(ctx).Err())
}

func (r *RedisService) Close() error {
	return r.client.Close()
}

func wrapRedis(err error) error {
	if err == nil {
		return nil
	}
	return errs.Wrap(errs.CodeConnectionFailed, err)
}
