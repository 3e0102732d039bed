// internal/room/room.go
package room

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Room is one game instance: a secret word and the players guessing it.
// Rooms are owned by the Registry and only mutated under its lock.
type Room struct {
	Code       string
	SecretWord string
	StartTime  time.Time
	Owner      string

	// Players maps display name -> opaque connection ID. A later join with
	// the same name replaces the earlier connection.
	Players map[string]uuid.UUID

	// Attempts counts guesses per player name as seen by the server.
	Attempts map[string]int
	// Completed marks players who have guessed the word.
	Completed map[string]bool
}

func newRoom(code, secret, owner string, ownerConn uuid.UUID, start time.Time) *Room {
	return &Room{
		Code:       code,
		SecretWord: secret,
		StartTime:  start,
		Owner:      owner,
		Players:    map[string]uuid.UUID{owner: ownerConn},
		Attempts:   make(map[string]int),
		Completed:  make(map[string]bool),
	}
}

// connectionIDsUnsafe lists every distinct connection in the room. Assumes lock is held.
func (r *Room) connectionIDsUnsafe() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(r.Players))
	ids := make([]uuid.UUID, 0, len(r.Players))
	for _, id := range r.Players {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// LeaderboardEntry records one winning guess.
type LeaderboardEntry struct {
	PlayerName string  `json:"playerName"`
	Attempts   int     `json:"attempts"`
	Time       float64 `json:"time"` // seconds since the room was created
}

// compareEntries orders by attempts, then by time.
func compareEntries(a, b LeaderboardEntry) int {
	if c := cmp.Compare(a.Attempts, b.Attempts); c != 0 {
		return c
	}
	return cmp.Compare(a.Time, b.Time)
}

// insertSorted appends e and re-sorts; equal entries keep insertion order.
func insertSorted(board []LeaderboardEntry, e LeaderboardEntry) []LeaderboardEntry {
	board = append(board, e)
	slices.SortStableFunc(board, compareEntries)
	return board
}

// Snapshot is a read-only copy of a room's state.
type Snapshot struct {
	Code       string
	SecretWord string
	StartTime  time.Time
	Owner      string
	Players    map[string]uuid.UUID
}

func (r *Room) snapshotUnsafe() Snapshot {
	players := make(map[string]uuid.UUID, len(r.Players))
	for name, id := range r.Players {
		players[name] = id
	}
	return Snapshot{
		Code:       r.Code,
		SecretWord: r.SecretWord,
		StartTime:  r.StartTime,
		Owner:      r.Owner,
		Players:    players,
	}
}

// PlayerStatus is the public view of one player.
type PlayerStatus struct {
	Name      string `json:"name"`
	Attempts  int    `json:"attempts"`
	Completed bool   `json:"completed"`
	IsOwner   bool   `json:"isOwner"`
	Score     int    `json:"score,omitempty"`
}

// Status is the public view of a room. It never includes the secret word.
// Finished is true once every current player has guessed the word.
type Status struct {
	Code        string             `json:"code"`
	WordLength  int                `json:"wordLength"`
	StartedAt   time.Time          `json:"startedAt"`
	Elapsed     float64            `json:"elapsed"`
	Finished    bool               `json:"finished"`
	Players     []PlayerStatus     `json:"players"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// WinScore converts the attempts used to win into points: 100 for a first
// try and 10 fewer per extra attempt, never below 10.
func WinScore(attempts int) int {
	return max(100-(attempts-1)*10, 10)
}
