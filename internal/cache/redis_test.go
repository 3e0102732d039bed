// internal/cache/redis_test.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	key    string
	values []interface{}
	err    error
}

func (f *fakePusher) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.key = key
	f.values = append(f.values, values...)
	return redis.NewIntResult(int64(len(f.values)), f.err)
}

func TestPublishWinPushesJSON(t *testing.T) {
	fp := &fakePusher{}
	pub := NewWinPublisher(fp, "")

	rec := WinRecord{
		RoomCode:       "ABCDE",
		PlayerName:     "alice",
		Word:           "TERMO",
		Attempts:       2,
		ServerAttempts: 2,
		ElapsedSeconds: 12.5,
		Timestamp:      1700000000000,
	}
	require.NoError(t, pub.PublishWin(context.Background(), rec))

	assert.Equal(t, DefaultQueueName, fp.key)
	require.Len(t, fp.values, 1)
	data, ok := fp.values[0].([]byte)
	require.True(t, ok)

	var got WinRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, rec, got)
	assert.Contains(t, string(data), `"room_code":"ABCDE"`)
}

func TestPublishWinCustomQueue(t *testing.T) {
	fp := &fakePusher{}
	require.NoError(t, NewWinPublisher(fp, "wins_test").PublishWin(context.Background(), WinRecord{RoomCode: "X"}))
	assert.Equal(t, "wins_test", fp.key)
}

func TestPublishWinError(t *testing.T) {
	fp := &fakePusher{err: errors.New("connection refused")}
	err := NewWinPublisher(fp, "q").PublishWin(context.Background(), WinRecord{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "'q'")
}
