package gametest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/notnil/chess"
)

var validate = validator.New()

type createRequest struct {
	Color string `json:"color" validate:"omitempty,oneof=w b white black"`
	FEN   string `json:"fen" validate:"omitempty,min=15"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func newApp(s *Server) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
		UnescapePath:          true,
	})

	api := app.Group("/api")
	api.Get("/games", s.handleList)
	api.Post("/games", s.handleCreate)
	api.Get("/games/:id", s.handleFetch)
	api.Post("/games/:id/move/:move", s.handleMove)
	api.Post("/games/:id/resign", s.handleResign)

	return app
}

// injected answers with a configured failure, if any. Callers hold s.mu.
func (s *Server) injected(c *fiber.Ctx, route, gameID string) (bool, error) {
	f, ok := s.failureFor(route, gameID)
	if !ok {
		return false, nil
	}
	if f.body == "" {
		return true, c.SendStatus(f.status)
	}
	return true, c.Status(f.status).SendString(f.body)
}

func (s *Server) handleList(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(Call{Route: RouteList})
	if done, err := s.injected(c, RouteList, ""); done {
		return err
	}

	ids := []string{}
	for _, id := range s.order {
		if g, ok := s.games[id]; ok && g.game.Outcome() != chess.NoOutcome {
			continue
		}
		ids = append(ids, id)
	}
	return c.JSON(ids)
}

func (s *Server) handleCreate(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(Call{Route: RouteCreate, Body: append([]byte(nil), c.Body()...)})
	if done, err := s.injected(c, RouteCreate, ""); done {
		return err
	}

	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "invalid request body",
			Details: err.Error(),
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "validation failed",
			Details: err.Error(),
		})
	}

	id, err := s.startGameLocked(req.FEN, strings.ToLower(req.Color))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}
	return c.JSON(fiber.Map{"id": id})
}

func (s *Server) handleFetch(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Params("id")
	s.record(Call{Route: RouteFetch, GameID: id})
	if done, err := s.injected(c, RouteFetch, id); done {
		return err
	}

	if sc, ok := s.scripted[id]; ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(sc.next())
	}

	g, ok := s.games[id]
	if !ok {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("workflow not found for ID: %s", id))
	}

	inf := g.info()
	if g.thinking > 0 {
		g.thinking--
		if g.thinking == 0 {
			g.machineMove(s.rnd)
		}
	}
	return c.JSON(inf)
}

func (s *Server) handleMove(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, move := c.Params("id"), c.Params("move")
	call := Call{Route: RouteMove, GameID: id, Move: move}

	if sc, ok := s.scripted[id]; ok {
		call.Valid = sc.lastHasMove(move)
	}
	g, live := s.games[id]
	if live {
		call.Valid = g.userTurn() && contains(g.validMoves(), move)
	}
	s.record(call)

	if done, err := s.injected(c, RouteMove, id); done {
		return err
	}

	if !live {
		if _, ok := s.scripted[id]; ok {
			return c.JSON(fiber.Map{"OK": true})
		}
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("workflow not found for ID: %s", id))
	}

	if !call.Valid {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "invalid move",
			Details: move,
		})
	}
	if err := g.game.MoveStr(move); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "invalid move",
			Details: err.Error(),
		})
	}

	if s.ThinkPolls > 0 {
		g.thinking = s.ThinkPolls
	} else {
		g.machineMove(s.rnd)
	}
	return c.JSON(fiber.Map{"OK": true})
}

func (s *Server) handleResign(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Params("id")
	s.record(Call{Route: RouteResign, GameID: id})
	if done, err := s.injected(c, RouteResign, id); done {
		return err
	}

	if g, ok := s.games[id]; ok {
		g.game.Resign(g.user)
	} else if _, ok := s.scripted[id]; !ok {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("workflow not found for ID: %s", id))
	}
	return c.JSON(fiber.Map{"OK": true})
}

// lastHasMove reports whether move was offered by the last served document.
func (sc *script) lastHasMove(move string) bool {
	if sc.fetches == 0 {
		return false
	}
	i := sc.fetches - 1
	if i >= len(sc.docs) {
		i = len(sc.docs) - 1
	}

	var doc struct {
		ValidMoves []string
	}
	if err := json.Unmarshal(sc.docs[i], &doc); err != nil {
		return false
	}
	return contains(doc.ValidMoves, move)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
