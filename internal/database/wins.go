// internal/database/wins.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/termo/internal/cache"
)

// Schema creates the win archive. Live rooms are never restored from it.
const Schema = `
CREATE TABLE IF NOT EXISTS room_wins (
	id              BIGSERIAL PRIMARY KEY,
	room_code       TEXT             NOT NULL,
	player_name     TEXT             NOT NULL,
	word            TEXT             NOT NULL,
	attempts        INTEGER          NOT NULL,
	server_attempts INTEGER          NOT NULL,
	elapsed_seconds DOUBLE PRECISION NOT NULL,
	won_at          TIMESTAMPTZ      NOT NULL,
	archived_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS room_wins_room_code_idx ON room_wins (room_code);
`

const insertWinQ = `
	INSERT INTO room_wins (
		room_code, player_name, word, attempts, server_attempts, elapsed_seconds, won_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// txBeginner is satisfied by *pgxpool.Pool and pgx.Conn.
type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// WinArchive stores win records in PostgreSQL.
type WinArchive struct {
	db txBeginner
}

// NewWinArchive wraps a pool.
func NewWinArchive(db txBeginner) *WinArchive {
	return &WinArchive{db: db}
}

// EnsureSchema creates the archive table if it is missing.
func (a *WinArchive) EnsureSchema(ctx context.Context) error {
	return beginTxFunc(ctx, a.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, Schema)
		return err
	})
}

// InsertWins writes recs in a single transaction; either all rows land or none.
func (a *WinArchive) InsertWins(ctx context.Context, recs []cache.WinRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return beginTxFunc(ctx, a.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			_, err := tx.Exec(ctx, insertWinQ,
				rec.RoomCode, rec.PlayerName, rec.Word,
				rec.Attempts, rec.ServerAttempts, rec.ElapsedSeconds,
				time.UnixMilli(rec.Timestamp).UTC(),
			)
			if err != nil {
				return fmt.Errorf("insert win for %s in %s: %w", rec.PlayerName, rec.RoomCode, err)
			}
		}
		return nil
	})
}

// beginTxFunc starts a transaction, calls f with it, and commits or rolls
// back depending on f's result.
func beginTxFunc(ctx context.Context, db txBeginner, txOptions pgx.TxOptions, f func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx rollback error: %v; original error: %w", rbErr, err)
		}
		return err
	}
	return tx.Commit(ctx)
}
