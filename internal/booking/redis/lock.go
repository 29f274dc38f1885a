package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultLockTTL = 30 * time.Second

// Redis serializes order creation per (user, flight, schedule) with a SetNX
// lock, so two concurrent createOrder calls from the same user cannot both
// pass the duplicate-pending check. The TTL bounds how long an abandoned
// request can block its key.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client, TTL: defaultLockTTL}
}

func bookingKey(userID, flightID, scheduleID string) string {
	return fmt.Sprintf("booking_lock:%s:%s:%s", userID, flightID, scheduleID)
}

func (r *Redis) LockBooking(ctx context.Context, userID, flightID, scheduleID string) (bool, error) {
	ttl := r.TTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	ok, err := r.Client.SetNX(ctx, bookingKey(userID, flightID, scheduleID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock error: %w", err)
	}
	return ok, nil
}

func (r *Redis) UnlockBooking(ctx context.Context, userID, flightID, scheduleID string) error {
	if err := r.Client.Del(ctx, bookingKey(userID, flightID, scheduleID)).Err(); err != nil {
		return fmt.Errorf("redis unlock error: %w", err)
	}
	return nil
}
