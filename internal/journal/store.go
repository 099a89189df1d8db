// Package journal keeps a local SQLite history of the games this client
// played. Writes are asynchronous and never fail the caller: a broken
// database degrades the journal, not the game.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	_ "github.com/mattn/go-sqlite3"
)

var ErrClosed = errors.New("journal is closed")

const writeQueueSize = 256

// Store handles SQLite database operations with async writes
type Store struct {
	db           *sql.DB
	path         string
	log          logr.Logger
	writeChan    chan func(*sql.Tx) error
	healthStatus atomic.Bool
	closed       atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewStore opens the database at path and starts the writer.
func NewStore(path string, log logr.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// A single connection keeps the pragma in effect for every statement.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:        db,
		path:      path,
		log:       log.WithName("journal"),
		writeChan: make(chan func(*sql.Tx) error, writeQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.healthStatus.Store(true)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

// writerLoop processes async write operations
func (s *Store) writerLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			// Drain what is already queued
			for {
				select {
				case fn := <-s.writeChan:
					if s.healthStatus.Load() {
						s.executeWrite(fn)
					}
				default:
					return
				}
			}

		case fn := <-s.writeChan:
			if !s.healthStatus.Load() {
				continue
			}
			s.executeWrite(fn)
		}
	}
}

// executeWrite runs a transactional write operation
func (s *Store) executeWrite(fn func(*sql.Tx) error) {
	tx, err := s.db.Begin()
	if err != nil {
		s.log.Error(err, "Journal degraded: failed to begin transaction")
		s.healthStatus.Store(false)
		return
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		s.log.Error(err, "Journal degraded: write operation failed")
		s.healthStatus.Store(false)
		return
	}

	if err := tx.Commit(); err != nil {
		s.log.Error(err, "Journal degraded: failed to commit")
		s.healthStatus.Store(false)
	}
}

func (s *Store) enqueue(what string, fn func(*sql.Tx) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if !s.healthStatus.Load() {
		return nil // Silently drop if degraded
	}

	select {
	case s.writeChan <- fn:
	default:
		s.log.Info("Journal write queue full, dropping record", "record", what)
	}
	return nil
}

// RecordGame asynchronously records a game. Recording a game twice keeps
// the first row.
func (s *Store) RecordGame(record GameRecord) error {
	if record.StartedAt.IsZero() {
		record.StartedAt = time.Now().UTC()
	}

	return s.enqueue("game", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT OR IGNORE INTO games (
			game_id, initial_fen, color, started_at
		) VALUES (?, ?, ?, ?)`,
			record.GameID, record.InitialFEN, record.Color, record.StartedAt,
		)
		return err
	})
}

// RecordMove asynchronously appends a move. The ply continues from the
// moves already journaled for the game.
func (s *Store) RecordMove(record MoveRecord) error {
	if record.PlayedAt.IsZero() {
		record.PlayedAt = time.Now().UTC()
	}

	return s.enqueue("move", func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO games (game_id, started_at) VALUES (?, ?)`,
			record.GameID, record.PlayedAt,
		); err != nil {
			return err
		}

		_, err := tx.Exec(`INSERT INTO moves (
			game_id, ply, move_uci, fen_before, color, played_at
		) VALUES (?, (SELECT COALESCE(MAX(ply), 0) + 1 FROM moves WHERE game_id = ?), ?, ?, ?, ?)`,
			record.GameID, record.GameID, record.MoveUCI,
			record.FENBefore, record.Color, record.PlayedAt,
		)
		return err
	})
}

// RecordOutcome asynchronously marks a game as finished.
func (s *Store) RecordOutcome(gameID, outcome, method string) error {
	finishedAt := time.Now().UTC()

	return s.enqueue("outcome", func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO games (game_id, started_at) VALUES (?, ?)`,
			gameID, finishedAt,
		); err != nil {
			return err
		}

		_, err := tx.Exec(`UPDATE games SET outcome = ?, method = ?, finished_at = ? WHERE game_id = ?`,
			outcome, method, finishedAt, gameID,
		)
		return err
	})
}

// IsHealthy returns the current health status
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// Close flushes queued writes and closes the database.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.log.Info("Journal writer shutdown timeout, some records may be lost")
	}

	return s.db.Close()
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

// QueryGames retrieves journaled games, newest first. An empty or "*"
// gameID returns every game.
func (s *Store) QueryGames(gameID string) ([]GameRecord, error) {
	query := `SELECT
		game_id, initial_fen, color, started_at, outcome, method, finished_at
	FROM games WHERE 1=1`

	var args []interface{}
	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}
	query += " ORDER BY started_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		if err := rows.Scan(
			&g.GameID, &g.InitialFEN, &g.Color, &g.StartedAt,
			&g.Outcome, &g.Method, &g.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return games, nil
}

// Moves returns the journaled moves of a game in play order.
func (s *Store) Moves(gameID string) ([]MoveRecord, error) {
	rows, err := s.db.Query(`SELECT
		move_id, game_id, ply, move_uci, fen_before, color, played_at
	FROM moves WHERE game_id = ? ORDER BY ply`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(
			&m.MoveID, &m.GameID, &m.Ply, &m.MoveUCI,
			&m.FENBefore, &m.Color, &m.PlayedAt,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return moves, nil
}
