// internal/room/registry.go
package room

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/termo/internal/game"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned for operations on a room code that is not live.
	ErrNotFound = errors.New("room not found")
	// ErrCodeSpaceExhausted is returned when no free room code was found
	// within the configured number of attempts.
	ErrCodeSpaceExhausted = errors.New("no free room code")
	// ErrNotMember is returned when a player name in the room is no longer
	// bound to the calling connection.
	ErrNotMember = errors.New("not a member of the room")
)

// DefaultCodeRetries bounds how many codes CreateRoom draws before giving up.
const DefaultCodeRetries = 16

// Registry owns every live Room and its leaderboard. All operations run
// under a single mutex and are safe for concurrent use; none of them
// perform I/O while holding it.
type Registry struct {
	mu           sync.Mutex
	rooms        map[string]*Room
	leaderboards map[string][]LeaderboardEntry

	now         func() time.Time
	newCode     func() string
	codeRetries int
	logger      logrus.FieldLogger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithCodeGenerator replaces RandomCode.
func WithCodeGenerator(gen func() string) Option {
	return func(r *Registry) { r.newCode = gen }
}

// WithCodeRetries sets how many codes CreateRoom may draw. Values below 1 are ignored.
func WithCodeRetries(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.codeRetries = n
		}
	}
}

// WithLogger sets the logger used for room lifecycle events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry initializes an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms:        make(map[string]*Room),
		leaderboards: make(map[string][]LeaderboardEntry),
		now:          time.Now,
		newCode:      RandomCode,
		codeRetries:  DefaultCodeRetries,
		logger:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateRoom stores a new room for secretWord with the creator as its only
// player and owner, and returns the room code. A code already held by a
// live room is never reused; the generator is retried instead.
func (r *Registry) CreateRoom(secretWord, playerName string, conn uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < r.codeRetries; i++ {
		code := r.newCode()
		if _, taken := r.rooms[code]; taken {
			r.logger.WithField("room", code).Debug("room code collision, retrying")
			continue
		}
		r.rooms[code] = newRoom(code, strings.ToUpper(secretWord), playerName, conn, r.now())
		r.logger.WithFields(logrus.Fields{"room": code, "player": playerName}).Info("room created")
		return code, nil
	}
	return "", fmt.Errorf("create room after %d attempts: %w", r.codeRetries, ErrCodeSpaceExhausted)
}

// JoinRoom adds playerName to the room, replacing any earlier connection
// registered under that name. Names already bound to conn in this room are
// dropped, so joining again under a new name renames the player. It returns
// the connections of the other members so the caller can notify them.
func (r *Registry) JoinRoom(code, playerName string, conn uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return nil, fmt.Errorf("join %s: %w", code, ErrNotFound)
	}
	if prev, exists := rm.Players[playerName]; exists && prev != conn {
		r.logger.WithFields(logrus.Fields{"room": code, "player": playerName}).Warn("player name rejoined from a new connection")
	}
	for name, id := range rm.Players {
		if id == conn && name != playerName {
			delete(rm.Players, name)
			r.logger.WithFields(logrus.Fields{"room": code, "from": name, "to": playerName}).Info("player renamed")
		}
	}
	rm.Players[playerName] = conn

	others := make([]uuid.UUID, 0, len(rm.Players))
	for _, id := range rm.connectionIDsUnsafe() {
		if id != conn {
			others = append(others, id)
		}
	}
	r.logger.WithFields(logrus.Fields{"room": code, "player": playerName}).Info("player joined room")
	return others, nil
}

// GuessRecord is the outcome of scoring one guess.
type GuessRecord struct {
	Result    []game.Color
	IsCorrect bool
	// Attempt is the attempt number stored on the leaderboard entry.
	Attempt int
	// ServerAttempts is the server's own count of guesses by the player.
	ServerAttempts int
	Elapsed        time.Duration
	// Leaderboard is the room's updated leaderboard when IsCorrect, nil otherwise.
	Leaderboard []LeaderboardEntry
	// Recipients holds every connection in the room, the guesser included.
	Recipients []uuid.UUID
}

// RecordGuess scores guess against the room's secret word on behalf of
// playerName, which must still be bound to conn. A correct guess
// is appended to the leaderboard with the reported attempt number; a
// non-positive report falls back to the server's count. Scoring, the
// leaderboard update and the recipient snapshot happen under one lock so
// concurrent guesses in a room are applied in order.
func (r *Registry) RecordGuess(code, playerName string, conn uuid.UUID, guess string, reportedAttempt int) (GuessRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return GuessRecord{}, fmt.Errorf("guess in %s: %w", code, ErrNotFound)
	}
	if id, ok := rm.Players[playerName]; !ok || id != conn {
		return GuessRecord{}, fmt.Errorf("guess by %s in %s: %w", playerName, code, ErrNotMember)
	}

	rm.Attempts[playerName]++
	rec := GuessRecord{
		Result:         game.Score(rm.SecretWord, guess),
		IsCorrect:      guess == rm.SecretWord,
		ServerAttempts: rm.Attempts[playerName],
		Recipients:     rm.connectionIDsUnsafe(),
	}
	rec.Attempt = reportedAttempt
	if rec.Attempt <= 0 {
		rec.Attempt = rec.ServerAttempts
	}

	if rec.IsCorrect {
		rec.Elapsed = r.now().Sub(rm.StartTime)
		rm.Completed[playerName] = true
		rec.Leaderboard = r.appendWinUnsafe(code, LeaderboardEntry{
			PlayerName: playerName,
			Attempts:   rec.Attempt,
			Time:       rec.Elapsed.Seconds(),
		})
		if reportedAttempt > 0 && reportedAttempt != rec.ServerAttempts {
			r.logger.WithFields(logrus.Fields{
				"room":     code,
				"player":   playerName,
				"reported": reportedAttempt,
				"counted":  rec.ServerAttempts,
			}).Debug("reported attempt differs from server count")
		}
	}
	return rec, nil
}

// AppendWin inserts entry into the room's leaderboard and returns a copy of
// the re-sorted board.
func (r *Registry) AppendWin(code string, entry LeaderboardEntry) ([]LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[code]; !ok {
		return nil, fmt.Errorf("append win to %s: %w", code, ErrNotFound)
	}
	return r.appendWinUnsafe(code, entry), nil
}

// appendWinUnsafe is the internal implementation. Assumes lock is held.
func (r *Registry) appendWinUnsafe(code string, entry LeaderboardEntry) []LeaderboardEntry {
	board := insertSorted(r.leaderboards[code], entry)
	r.leaderboards[code] = board
	return slices.Clone(board)
}

// Leaderboard returns a copy of the room's leaderboard. A live room with no
// wins yields an empty, non-nil slice.
func (r *Registry) Leaderboard(code string) ([]LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[code]; !ok {
		return nil, fmt.Errorf("leaderboard for %s: %w", code, ErrNotFound)
	}
	board := slices.Clone(r.leaderboards[code])
	if board == nil {
		board = []LeaderboardEntry{}
	}
	return board, nil
}

// RemoveConnection drops every player entry bound to conn. Rooms left with
// no players are deleted together with their leaderboards; their codes are
// returned.
func (r *Registry) RemoveConnection(conn uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted []string
	for code, rm := range r.rooms {
		for name, id := range rm.Players {
			if id == conn {
				delete(rm.Players, name)
				r.logger.WithFields(logrus.Fields{"room": code, "player": name}).Info("player left room")
			}
		}
		if len(rm.Players) == 0 {
			delete(r.rooms, code)
			delete(r.leaderboards, code)
			deleted = append(deleted, code)
			r.logger.WithField("room", code).Info("room empty, deleted")
		}
	}
	return deleted
}

// Lookup returns a snapshot of the room.
func (r *Registry) Lookup(code string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[code]
	if !ok {
		return Snapshot{}, fmt.Errorf("lookup %s: %w", code, ErrNotFound)
	}
	return rm.snapshotUnsafe(), nil
}

// Status returns the public view of the room, players sorted by name.
func (r *Registry) Status(code string) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[code]
	if !ok {
		return Status{}, fmt.Errorf("status of %s: %w", code, ErrNotFound)
	}

	st := Status{
		Code:        rm.Code,
		WordLength:  len([]rune(rm.SecretWord)),
		StartedAt:   rm.StartTime,
		Elapsed:     r.now().Sub(rm.StartTime).Seconds(),
		Players:     make([]PlayerStatus, 0, len(rm.Players)),
		Leaderboard: slices.Clone(r.leaderboards[code]),
	}
	if st.Leaderboard == nil {
		st.Leaderboard = []LeaderboardEntry{}
	}
	for name := range rm.Players {
		ps := PlayerStatus{
			Name:      name,
			Attempts:  rm.Attempts[name],
			Completed: rm.Completed[name],
			IsOwner:   name == rm.Owner,
		}
		if ps.Completed {
			ps.Score = WinScore(ps.Attempts)
		}
		st.Players = append(st.Players, ps)
	}
	st.Finished = len(st.Players) > 0
	for _, ps := range st.Players {
		if !ps.Completed {
			st.Finished = false
			break
		}
	}
	slices.SortFunc(st.Players, func(a, b PlayerStatus) int { return strings.Compare(a.Name, b.Name) })
	return st, nil
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
