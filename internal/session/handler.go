// internal/session/handler.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/termo/internal/cache"
	"github.com/jason-s-yu/termo/internal/game"
	"github.com/jason-s-yu/termo/internal/protocol"
	"github.com/jason-s-yu/termo/internal/room"
	"github.com/sirupsen/logrus"
)

// MaxNameLength caps display names, in runes.
const MaxNameLength = 24

// Messages sent back in ERROR replies.
const (
	msgNameRequired     = "Player name is required"
	msgNameTooLong      = "Player name is too long"
	msgJoinFieldsNeeded = "Player name and room code are required"
	msgRoomNotFound     = "Room not found"
	msgNotInRoom        = "Join a room before guessing"
	msgCreateFailed     = "Could not create room, try again"
	msgDisplaced        = "You are no longer in room %s"
)

// WinPublisher receives a record of every winning guess.
type WinPublisher interface {
	PublishWin(ctx context.Context, rec cache.WinRecord) error
}

// Outcome is the result of handling one message: the next state, the
// messages to deliver, and the win to publish, if any.
type Outcome struct {
	State      State
	Deliveries []Delivery
	Win        *cache.WinRecord
}

// Handler interprets protocol messages against the room registry.
type Handler struct {
	registry  *room.Registry
	words     *game.WordList
	pickWord  func() string
	publisher WinPublisher
	logger    logrus.FieldLogger
	now       func() time.Time

	// order serializes handle+dispatch per room so every member sees
	// results in scoring order.
	orderMu sync.Mutex
	order   map[string]*sync.Mutex
}

// Option configures a Handler.
type Option func(*Handler)

// WithWordPicker replaces the uniform random secret word choice.
func WithWordPicker(pick func() string) Option {
	return func(h *Handler) { h.pickWord = pick }
}

// WithWinPublisher publishes every win. A nil publisher disables publishing.
func WithWinPublisher(p WinPublisher) Option {
	return func(h *Handler) { h.publisher = p }
}

// WithLogger sets the handler's logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithClock replaces time.Now for win timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler wires a Handler to its registry and word list.
func NewHandler(reg *room.Registry, words *game.WordList, opts ...Option) *Handler {
	h := &Handler{
		registry: reg,
		words:    words,
		pickWord: words.Random,
		logger:   logrus.StandardLogger(),
		now:      time.Now,
		order:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle applies one inbound message to the registry and returns what the
// transport should send. It never touches a connection itself.
func (h *Handler) Handle(st State, in protocol.Inbound) Outcome {
	if st.Phase == Closed {
		return Outcome{State: st}
	}
	switch in.Type {
	case protocol.KindCreateRoom:
		return h.handleCreate(st, in)
	case protocol.KindJoinRoom:
		return h.handleJoin(st, in)
	case protocol.KindGuess:
		return h.handleGuess(st, in)
	default:
		h.logger.WithFields(logrus.Fields{"conn": st.ConnID, "type": in.Type}).Debug("ignoring unknown message type")
		return Outcome{State: st}
	}
}

func (h *Handler) handleCreate(st State, in protocol.Inbound) Outcome {
	name, reason := validName(in.PlayerName)
	if reason != "" {
		return replyError(st, reason)
	}

	h.leaveCurrentRoom(st)
	st = st.unjoined()

	code, err := h.registry.CreateRoom(h.pickWord(), name, st.ConnID)
	if err != nil {
		h.logger.WithError(err).WithField("player", name).Error("create room failed")
		return replyError(st, msgCreateFailed)
	}
	return Outcome{
		State:      st.inRoom(code, name),
		Deliveries: []Delivery{{To: []uuid.UUID{st.ConnID}, Message: protocol.NewRoomCreated(code)}},
	}
}

func (h *Handler) handleJoin(st State, in protocol.Inbound) Outcome {
	code := room.NormalizeCode(in.RoomCode)
	name, reason := validName(in.PlayerName)
	if code == "" || reason == msgNameRequired {
		return replyError(st, msgJoinFieldsNeeded)
	}
	if reason != "" {
		return replyError(st, reason)
	}
	if !room.ValidCode(code) {
		return replyError(st, msgRoomNotFound)
	}

	if _, err := h.registry.Lookup(code); err != nil {
		return h.replyRegistryError(st, err)
	}
	if st.Phase == InRoom && st.RoomCode != code {
		h.leaveCurrentRoom(st)
		st = st.unjoined()
	}

	others, err := h.registry.JoinRoom(code, name, st.ConnID)
	if err != nil {
		return h.replyRegistryError(st.unjoined(), err)
	}

	out := Outcome{
		State:      st.inRoom(code, name),
		Deliveries: []Delivery{{To: []uuid.UUID{st.ConnID}, Message: protocol.NewJoinedRoom(code)}},
	}
	if len(others) > 0 {
		out.Deliveries = append(out.Deliveries, Delivery{To: others, Message: protocol.NewPlayerJoined(name)})
	}
	return out
}

func (h *Handler) handleGuess(st State, in protocol.Inbound) Outcome {
	if st.Phase != InRoom {
		return replyError(st, msgNotInRoom)
	}
	if code := room.NormalizeCode(in.RoomCode); code != "" && code != st.RoomCode {
		return replyError(st, fmt.Sprintf("You are not in room %s", code))
	}
	guess := strings.ToUpper(strings.TrimSpace(in.Guess))
	if utf8.RuneCountInString(guess) != h.words.Len() {
		return replyError(st, fmt.Sprintf("Guess must have %d letters", h.words.Len()))
	}

	rec, err := h.registry.RecordGuess(st.RoomCode, st.PlayerName, st.ConnID, guess, in.AttemptNumber)
	if errors.Is(err, room.ErrNotMember) {
		// Another connection took over the name.
		h.logger.WithFields(logrus.Fields{"room": st.RoomCode, "player": st.PlayerName, "conn": st.ConnID}).Info("guess from displaced connection")
		return replyError(st.unjoined(), fmt.Sprintf(msgDisplaced, st.RoomCode))
	}
	if err != nil {
		return h.replyRegistryError(st, err)
	}

	out := Outcome{
		State: st,
		Deliveries: []Delivery{{
			To:      rec.Recipients,
			Message: protocol.NewGuessResult(st.PlayerName, guess, rec.Result, rec.IsCorrect, rec.Leaderboard),
		}},
	}
	if rec.IsCorrect {
		h.logger.WithFields(logrus.Fields{
			"room":     st.RoomCode,
			"player":   st.PlayerName,
			"attempts": rec.Attempt,
			"elapsed":  rec.Elapsed,
		}).Info("player guessed the word")
		out.Win = &cache.WinRecord{
			RoomCode:       st.RoomCode,
			PlayerName:     st.PlayerName,
			Word:           guess,
			Attempts:       rec.Attempt,
			ServerAttempts: rec.ServerAttempts,
			ElapsedSeconds: rec.Elapsed.Seconds(),
			Timestamp:      h.now().UnixMilli(),
		}
	}
	return out
}

// Serve handles in and dispatches the resulting deliveries while holding
// the ordering lock of the affected room. Wins are published after the
// lock is released. It returns the next state.
func (h *Handler) Serve(ctx context.Context, st State, in protocol.Inbound, d Dispatcher) State {
	var out Outcome
	if key := orderingKey(st, in); key != "" {
		mu := h.roomLock(key)
		mu.Lock()
		out = h.Handle(st, in)
		dispatch(d, out.Deliveries)
		mu.Unlock()
	} else {
		out = h.Handle(st, in)
		dispatch(d, out.Deliveries)
	}

	if out.Win != nil && h.publisher != nil {
		if err := h.publisher.PublishWin(ctx, *out.Win); err != nil {
			h.logger.WithError(err).WithField("room", out.Win.RoomCode).Warn("failed to publish win")
		}
	}
	return out.State
}

// Disconnect removes the connection from every room, unconditionally, and
// returns the closed state.
func (h *Handler) Disconnect(st State) State {
	h.forgetRooms(h.registry.RemoveConnection(st.ConnID))
	return State{ConnID: st.ConnID, Phase: Closed}
}

func (h *Handler) leaveCurrentRoom(st State) {
	if st.Phase != InRoom {
		return
	}
	h.forgetRooms(h.registry.RemoveConnection(st.ConnID))
}

func (h *Handler) replyRegistryError(st State, err error) Outcome {
	if errors.Is(err, room.ErrNotFound) {
		return replyError(st, msgRoomNotFound)
	}
	h.logger.WithError(err).WithField("conn", st.ConnID).Error("registry operation failed")
	return replyError(st, "Internal error")
}

func (h *Handler) roomLock(code string) *sync.Mutex {
	h.orderMu.Lock()
	defer h.orderMu.Unlock()
	mu, ok := h.order[code]
	if !ok {
		mu = &sync.Mutex{}
		h.order[code] = mu
	}
	return mu
}

func (h *Handler) forgetRooms(codes []string) {
	if len(codes) == 0 {
		return
	}
	h.orderMu.Lock()
	defer h.orderMu.Unlock()
	for _, code := range codes {
		delete(h.order, code)
	}
}

// orderingKey names the room whose broadcasts a message can produce.
// Creating a room only answers the requester and needs no ordering.
func orderingKey(st State, in protocol.Inbound) string {
	switch in.Type {
	case protocol.KindJoinRoom:
		return room.NormalizeCode(in.RoomCode)
	case protocol.KindGuess:
		if st.Phase == InRoom {
			return st.RoomCode
		}
	}
	return ""
}

func dispatch(d Dispatcher, deliveries []Delivery) {
	for _, dl := range deliveries {
		d.Deliver(dl.To, dl.Message)
	}
}

func replyError(st State, msg string) Outcome {
	return Outcome{
		State:      st,
		Deliveries: []Delivery{{To: []uuid.UUID{st.ConnID}, Message: protocol.NewError(msg)}},
	}
}

// validName trims a display name and returns the reason it is unusable, if any.
func validName(raw string) (string, string) {
	name := strings.TrimSpace(raw)
	switch {
	case name == "":
		return "", msgNameRequired
	case utf8.RuneCountInString(name) > MaxNameLength:
		return "", msgNameTooLong
	}
	return name, ""
}
