package commands

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chesstempo/internal/client/api"
	"chesstempo/internal/client/game"
	"chesstempo/internal/client/gametest"
	"chesstempo/internal/config"
	"chesstempo/internal/journal"
)

func newRegistry(t *testing.T) (*Registry, *gametest.Server, *bytes.Buffer) {
	t.Helper()

	srv := gametest.New(t)
	out := &bytes.Buffer{}
	client := api.New(srv.URL, logr.Discard())

	env := &Env{
		Client: client,
		Games:  game.NewService(client, out, logr.Discard()),
		Config: &config.Config{BaseURL: srv.URL, NoClear: true},
		Out:    out,
		Log:    logr.Discard(),
	}
	return NewRegistry(env), srv, out
}

func TestStartParams(t *testing.T) {
	base := game.StartParams{Color: "w"}

	assert.Equal(t, base, startParams(base, nil))
	assert.Equal(t, game.StartParams{Color: "b"}, startParams(base, []string{"black"}))
	assert.Equal(t, game.StartParams{Color: "w", FEN: DemoFEN}, startParams(base, []string{"demo"}))
	assert.Equal(t,
		game.StartParams{Color: "b", FEN: "8/8/8/8/8/8/8/K6k w - - 0 1"},
		startParams(game.StartParams{}, []string{"b", "8/8/8/8/8/8/8/K6k", "w", "-", "-", "0", "1"}),
	)
}

func TestRegistry_Play(t *testing.T) {
	// Given: A registry against a fake service with a journal
	r, srv, out := newRegistry(t)
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.NewStore(dbPath, logr.Discard())
	require.NoError(t, err)
	require.NoError(t, store.InitDB())
	r.Env().Journal = store

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// When: Playing the demo position to the end
	err = r.Run(ctx, "play", []string{"w", "demo"})

	// Then: The game finished and became the current game
	require.NoError(t, err)
	require.NotEmpty(t, r.Env().Current)
	assert.NotEqual(t, "*", string(srv.Outcome(string(r.Env().Current))))
	assert.Contains(t, out.String(), "Done!")

	creates := srv.CallsTo(gametest.RouteCreate)
	require.Len(t, creates, 1)
	assert.JSONEq(t, `{"fen":"`+DemoFEN+`","color":"w"}`, string(creates[0].Body))

	// And: The history lists it once the journal is flushed
	require.NoError(t, store.Close())
	store, err = journal.NewStore(dbPath, logr.Discard())
	require.NoError(t, err)
	defer store.Close()
	r.Env().Journal = store

	out.Reset()
	require.NoError(t, r.Run(ctx, "history", nil))
	assert.Contains(t, out.String(), string(r.Env().Current))
	assert.Contains(t, out.String(), "Found 1 game(s)")

	out.Reset()
	require.NoError(t, r.Run(ctx, "history", []string{string(r.Env().Current)}))
	assert.Contains(t, out.String(), "Ply")
}

func TestRegistry_ResignAll(t *testing.T) {
	r, srv, out := newRegistry(t)
	srv.Script("g1", `{"Outcome":"*","Board":"b","Turn":"User","Color":"White","ValidMoves":[]}`)
	srv.Script("g2", `{"Outcome":"*","Board":"b","Turn":"User","Color":"White","ValidMoves":[]}`)

	err := r.Run(context.Background(), "resign-all", nil)

	require.NoError(t, err)
	assert.Equal(t, "Resigned g1\nResigned g2\n", out.String())
}

func TestRegistry_Resign(t *testing.T) {
	t.Run("Requires a game", func(t *testing.T) {
		r, srv, _ := newRegistry(t)

		err := r.Run(context.Background(), "resign", nil)

		assert.Error(t, err)
		assert.Empty(t, srv.Calls())
	})

	t.Run("Returns the service error", func(t *testing.T) {
		r, srv, _ := newRegistry(t)
		srv.Fail(gametest.RouteResign, "g1", http.StatusInternalServerError, "workflow not found for ID: g1")

		err := r.Run(context.Background(), "r", []string{"g1"})

		assert.True(t, api.IsStatus(err, http.StatusInternalServerError))
	})
}

func TestRegistry_List(t *testing.T) {
	r, srv, out := newRegistry(t)
	id, err := srv.StartGame("", "w")
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background(), "list", nil))

	assert.Equal(t, id+"\n", out.String())
}

func TestRegistry_Show(t *testing.T) {
	r, srv, out := newRegistry(t)
	srv.Script("g1", `{"Outcome":"*","Board":"the board","Turn":"User","Color":"White","ValidMoves":["e2e4"]}`)

	require.NoError(t, r.Run(context.Background(), "show", []string{"g1"}))

	assert.Contains(t, out.String(), "the board")
	assert.Contains(t, out.String(), "Valid moves: e2e4")
	assert.Equal(t, game.ID("g1"), r.Env().Current)
	assert.Empty(t, srv.CallsTo(gametest.RouteMove))
}

func TestRegistry_History(t *testing.T) {
	r, _, _ := newRegistry(t)

	err := r.Run(context.Background(), "history", nil)

	assert.ErrorIs(t, err, ErrNoJournal)
}

func TestRegistry_Execute(t *testing.T) {
	r, _, out := newRegistry(t)
	ctx := context.Background()

	assert.True(t, r.Execute(ctx, ""))
	assert.True(t, r.Execute(ctx, "bogus"))
	assert.Contains(t, out.String(), "Unknown command: bogus")

	out.Reset()
	assert.True(t, r.Execute(ctx, "url http://127.0.0.1:1/api"))
	assert.Equal(t, "http://127.0.0.1:1/api", r.Env().Client.BaseURL)
	assert.Equal(t, "http://127.0.0.1:1/api", r.Env().Config.BaseURL)

	out.Reset()
	assert.True(t, r.Execute(ctx, "help play"))
	assert.Contains(t, out.String(), "play [w|b] [demo|<fen>]")

	assert.False(t, r.Execute(ctx, "exit"))
	assert.Contains(t, r.Names(), "resign-all")
}
