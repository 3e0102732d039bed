// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the server pushes win records onto.
const DefaultQueueName = "termo_wins"

// WinRecord is the minimal description of a win consumed by the historian.
type WinRecord struct {
	RoomCode       string  `json:"room_code"`
	PlayerName     string  `json:"player_name"`
	Word           string  `json:"word"`
	Attempts       int     `json:"attempts"`
	ServerAttempts int     `json:"server_attempts"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Timestamp      int64   `json:"timestamp"` // epoch millis
}

// Options holds Redis connection settings.
type Options struct {
	Addr string
	DB   int
}

// Connect creates a client and pings it.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// listPusher is the subset of *redis.Client the publisher needs.
type listPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// WinPublisher pushes win records onto a Redis list.
type WinPublisher struct {
	rdb     listPusher
	queue   string
	timeout time.Duration
}

// NewWinPublisher wraps a Redis client. An empty queue uses DefaultQueueName.
func NewWinPublisher(rdb listPusher, queue string) *WinPublisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &WinPublisher{rdb: rdb, queue: queue, timeout: 2 * time.Second}
}

// PublishWin serializes rec to JSON and RPushes it onto the queue.
func (p *WinPublisher) PublishWin(ctx context.Context, rec WinRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal WinRecord: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}
