package journal

import (
	"database/sql"
	"time"
)

// GameRecord represents a row in the games table
type GameRecord struct {
	GameID     string       `db:"game_id"`
	InitialFEN string       `db:"initial_fen"` // empty for service default or resumed games
	Color      string       `db:"color"`       // requested colour, "w", "b" or empty
	StartedAt  time.Time    `db:"started_at"`
	Outcome    string       `db:"outcome"` // "*" until the game concludes
	Method     string       `db:"method"`
	FinishedAt sql.NullTime `db:"finished_at"`
}

// MoveRecord represents a row in the moves table
type MoveRecord struct {
	MoveID    int64     `db:"move_id"`
	GameID    string    `db:"game_id"`
	Ply       int       `db:"ply"` // assigned by the store, counting across sessions
	MoveUCI   string    `db:"move_uci"`
	FENBefore string    `db:"fen_before"`
	Color     string    `db:"color"` // colour the client played, as reported by the service
	PlayedAt  time.Time `db:"played_at"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	initial_fen TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '' CHECK(color IN ('', 'w', 'b')),
	started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	outcome TEXT NOT NULL DEFAULT '*',
	method TEXT NOT NULL DEFAULT '',
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS moves (
	move_id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	ply INTEGER NOT NULL,
	move_uci TEXT NOT NULL,
	fen_before TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '',
	played_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (game_id) REFERENCES games(game_id) ON DELETE CASCADE,
	UNIQUE(game_id, ply)
);

CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves(game_id);
CREATE INDEX IF NOT EXISTS idx_games_started_at ON games(started_at);
`
