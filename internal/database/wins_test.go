// internal/database/wins_test.go
package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/termo/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx records statements. Methods not overridden panic through the nil
// embedded interface, which keeps the fake honest about what is used.
type fakeTx struct {
	pgx.Tx
	execs      [][]any
	failOn     int
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, append([]any{sql}, args...))
	if f.failOn > 0 && len(f.execs) == f.failOn {
		return pgconn.CommandTag{}, errors.New("unique violation")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (f *fakeBeginner) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

func sampleWins() []cache.WinRecord {
	return []cache.WinRecord{
		{RoomCode: "ABCDE", PlayerName: "alice", Word: "TERMO", Attempts: 2, ServerAttempts: 2, ElapsedSeconds: 12.5, Timestamp: 1700000000000},
		{RoomCode: "ABCDE", PlayerName: "bob", Word: "TERMO", Attempts: 3, ServerAttempts: 4, ElapsedSeconds: 30, Timestamp: 1700000005000},
	}
}

func TestInsertWinsCommits(t *testing.T) {
	tx := &fakeTx{}
	archive := NewWinArchive(&fakeBeginner{tx: tx})

	require.NoError(t, archive.InsertWins(context.Background(), sampleWins()))
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
	require.Len(t, tx.execs, 2)

	first := tx.execs[0]
	assert.Equal(t, insertWinQ, first[0])
	assert.Equal(t, []any{"ABCDE", "alice", "TERMO", 2, 2, 12.5, time.UnixMilli(1700000000000).UTC()}, first[1:])
}

func TestInsertWinsRollsBackOnError(t *testing.T) {
	tx := &fakeTx{failOn: 2}
	archive := NewWinArchive(&fakeBeginner{tx: tx})

	err := archive.InsertWins(context.Background(), sampleWins())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert win for bob in ABCDE")
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestInsertWinsEmptyIsNoop(t *testing.T) {
	b := &fakeBeginner{err: errors.New("should not begin")}
	assert.NoError(t, NewWinArchive(b).InsertWins(context.Background(), nil))
}

func TestInsertWinsBeginError(t *testing.T) {
	b := &fakeBeginner{err: errors.New("pool closed")}
	err := NewWinArchive(b).InsertWins(context.Background(), sampleWins())
	assert.EqualError(t, err, "pool closed")
}

func TestEnsureSchema(t *testing.T) {
	tx := &fakeTx{}
	require.NoError(t, NewWinArchive(&fakeBeginner{tx: tx}).EnsureSchema(context.Background()))
	require.Len(t, tx.execs, 1)
	assert.Contains(t, tx.execs[0][0], "CREATE TABLE IF NOT EXISTS room_wins")
	assert.True(t, tx.committed)
}
