// internal/handlers/api.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/termo/internal/game"
	"github.com/jason-s-yu/termo/internal/room"
	"github.com/sirupsen/logrus"
)

// API serves the read-only HTTP endpoints next to the WebSocket.
type API struct {
	registry *room.Registry
	words    *game.WordList
	logger   logrus.FieldLogger
}

// NewAPI creates the HTTP API handlers.
func NewAPI(reg *room.Registry, words *game.WordList, logger logrus.FieldLogger) *API {
	return &API{registry: reg, words: words, logger: logger}
}

type healthResponse struct {
	OK    bool `json:"ok"`
	Rooms int  `json:"rooms"`
}

type wordsResponse struct {
	Words []string `json:"words"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

type randomResponse struct {
	Word string `json:"word"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HealthHandler reports liveness and the number of live rooms.
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, healthResponse{OK: true, Rooms: a.registry.Count()})
}

// WordsHandler lists the playable words.
func (a *API) WordsHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, wordsResponse{Words: a.words.Words()})
}

// ValidateHandler reports whether {word} is on the word list.
func (a *API) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	word := strings.TrimSpace(chi.URLParam(r, "word"))
	if utf8.RuneCountInString(word) != a.words.Len() {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("word must have %d letters", a.words.Len())})
		return
	}
	a.writeJSON(w, http.StatusOK, validateResponse{Valid: a.words.Contains(word)})
}

// RandomHandler returns one word drawn from the list.
func (a *API) RandomHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, randomResponse{Word: a.words.Random()})
}

// RoomHandler returns the public status of {code}.
func (a *API) RoomHandler(w http.ResponseWriter, r *http.Request) {
	code := room.NormalizeCode(chi.URLParam(r, "code"))
	st, err := a.registry.Status(code)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			a.writeJSON(w, http.StatusNotFound, errorResponse{Error: "room not found"})
			return
		}
		a.logger.WithError(err).WithField("room", code).Error("room status failed")
		a.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	a.writeJSON(w, http.StatusOK, st)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.WithError(err).Warn("failed to encode response")
	}
}
