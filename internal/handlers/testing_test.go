// internal/handlers/testing_test.go
package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/jason-s-yu/termo/internal/game"
	"github.com/jason-s-yu/termo/internal/room"
	"github.com/jason-s-yu/termo/internal/session"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	reg   *room.Registry
	hub   *Hub
	words *game.WordList
	srv   *httptest.Server
}

// newTestServer starts the full router with a fixed secret word.
func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	logger, _ := test.NewNullLogger()

	words, err := game.NewWordList([]string{"TERMO", "TEMPO", "PAPEL", "FESTA", "PRAIA"})
	require.NoError(t, err)

	reg := room.NewRegistry(room.WithLogger(logger))
	h := session.NewHandler(reg, words,
		session.WithWordPicker(func() string { return secret }),
		session.WithLogger(logger),
	)
	hub := NewHub(logger)
	ws := NewWSServer(h, hub, DefaultWSOptions(), logger)
	api := NewAPI(reg, words, logger)

	srv := httptest.NewServer(NewRouter(api, ws, nil, logger))
	t.Cleanup(srv.Close)
	return &testServer{reg: reg, hub: hub, words: words, srv: srv}
}
