// Package gametest runs an in-process game service for tests. It serves
// the same resources as the real service on a loopback listener, plays
// real chess for created games, and can replay scripted snapshots or fail
// chosen routes.
package gametest

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/notnil/chess"
)

// Routes, as recorded in calls and used by Fail.
const (
	RouteCreate = "create"
	RouteList   = "list"
	RouteFetch  = "fetch"
	RouteMove   = "move"
	RouteResign = "resign"
)

var notation = chess.UCINotation{}

// Call is one request received by the server.
type Call struct {
	Route  string
	GameID string
	Move   string
	Body   []byte
	// Valid reports whether a submitted move was legal for the position
	// the game was in when it arrived.
	Valid bool
}

type Server struct {
	// URL is the API base, e.g. http://127.0.0.1:41234/api
	URL string

	// ThinkPolls is the number of fetches during which the machine is
	// still "thinking" after each user move.
	ThinkPolls int

	app *fiber.App

	mu       sync.Mutex
	games    map[string]*liveGame
	scripted map[string]*script
	order    []string
	calls    []Call
	failures map[string]failure
	rnd      *rand.Rand
}

type failure struct {
	status int
	body   string
}

// New starts a server and stops it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()

	s := &Server{
		games:    make(map[string]*liveGame),
		scripted: make(map[string]*script),
		failures: make(map[string]failure),
		rnd:      rand.New(rand.NewPCG(1, 2)),
	}
	s.app = newApp(s)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("gametest: listen: %v", err)
	}
	s.URL = "http://" + ln.Addr().String() + "/api"

	go s.app.Listener(ln)
	tb.Cleanup(func() {
		s.app.Shutdown()
	})

	return s
}

// Fail makes route answer status with body. An empty gameID applies the
// failure to every game.
func (s *Server) Fail(route, gameID string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route+"/"+gameID] = failure{status: status, body: body}
}

// Script registers a game whose successive fetches return docs in order,
// repeating the last one. Docs are encoded as JSON as they are.
func (s *Server) Script(gameID string, docs ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := &script{}
	for _, d := range docs {
		if raw, ok := d.(string); ok {
			sc.docs = append(sc.docs, []byte(raw))
			continue
		}
		data, err := json.Marshal(d)
		if err != nil {
			panic(fmt.Sprintf("gametest: script %s: %v", gameID, err))
		}
		sc.docs = append(sc.docs, data)
	}
	s.scripted[gameID] = sc
	s.order = append(s.order, gameID)
}

// StartGame creates a live game directly, bypassing the API.
func (s *Server) StartGame(fen, color string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startGameLocked(fen, color)
}

// Calls returns a copy of every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded calls for one route.
func (s *Server) CallsTo(route string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Route == route {
			out = append(out, c)
		}
	}
	return out
}

// Outcome reports the current outcome of a live game.
func (s *Server) Outcome(gameID string) chess.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[gameID]; ok {
		return g.game.Outcome()
	}
	return chess.NoOutcome
}

func (s *Server) startGameLocked(fen, color string) (string, error) {
	opts := []func(*chess.Game){chess.UseNotation(notation)}
	if fen != "" {
		fenOpt, err := chess.FEN(fen)
		if err != nil {
			return "", err
		}
		opts = append(opts, fenOpt)
	}

	user := chess.White
	if color == "b" || color == "black" {
		user = chess.Black
	}

	g := &liveGame{game: chess.NewGame(opts...), user: user}
	id := uuid.NewString()
	s.games[id] = g
	s.order = append(s.order, id)

	if g.game.Position().Turn() != g.user {
		g.machineMove(s.rnd)
	}
	return id, nil
}

func (s *Server) record(c Call) {
	s.calls = append(s.calls, c)
}

func (s *Server) failureFor(route, gameID string) (failure, bool) {
	if f, ok := s.failures[route+"/"+gameID]; ok {
		return f, true
	}
	f, ok := s.failures[route+"/"]
	return f, ok
}

type script struct {
	docs    [][]byte
	fetches int
}

func (sc *script) next() []byte {
	i := sc.fetches
	if i >= len(sc.docs) {
		i = len(sc.docs) - 1
	}
	sc.fetches++
	return sc.docs[i]
}

// liveGame is a real game against a machine that plays random moves.
type liveGame struct {
	game     *chess.Game
	user     chess.Color
	thinking int
}

type info struct {
	FEN        string
	Outcome    chess.Outcome
	Method     chess.Method
	Board      string
	Turn       string
	Color      string
	ValidMoves []string
}

func (g *liveGame) info() info {
	inf := info{
		FEN:     g.game.FEN(),
		Outcome: g.game.Outcome(),
		Method:  g.game.Method(),
		Board:   g.game.Position().Board().Draw(),
		Turn:    "Machine",
		Color:   g.user.Name(),
	}

	if g.userTurn() {
		inf.Turn = "User"
		inf.ValidMoves = g.validMoves()
	}
	return inf
}

func (g *liveGame) userTurn() bool {
	return g.thinking == 0 && g.game.Position().Turn() == g.user
}

func (g *liveGame) validMoves() []string {
	if g.game.Outcome() != chess.NoOutcome {
		return nil
	}

	pos := g.game.Position()
	moves := g.game.ValidMoves()
	ret := make([]string, len(moves))
	for i, m := range moves {
		ret[i] = notation.Encode(pos, m)
	}
	return ret
}

func (g *liveGame) machineMove(rnd *rand.Rand) {
	if g.game.Outcome() != chess.NoOutcome {
		return
	}
	moves := g.game.ValidMoves()
	if len(moves) == 0 {
		return
	}
	g.game.Move(moves[rnd.IntN(len(moves))])
}
