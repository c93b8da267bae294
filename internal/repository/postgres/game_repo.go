package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/freeeve/dexter-sinister/internal/model"
	"github.com/freeeve/dexter-sinister/internal/repository"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// GameRepo handles games, game_players and game_log.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

const gameColumns = `g.id, g.name, g.host_id, g.status, g.phase, g.public, g.capacity, g.player_count,
	g.winner, g.version, g.created_at, g.started_at, g.finished_at`

// Create inserts a new game with its initial snapshot, seats and log.
func (r *GameRepo) Create(ctx context.Context, g *dexter.Game) error {
	state, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	s := model.SummaryOf(g)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create game: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO games (id, name, host_id, status, phase, public, capacity, player_count, version, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.Name, s.HostID, s.Status, s.Phase, s.Public, s.Capacity, s.PlayerCount, s.Version, state,
	)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	if err := replacePlayers(ctx, tx, s); err != nil {
		return err
	}
	if err := appendLog(ctx, tx, g.ID, g.Log); err != nil {
		return err
	}
	return tx.Commit()
}

// Save writes a new snapshot guarded by the version the caller loaded.
func (r *GameRepo) Save(ctx context.Context, g *dexter.Game, prevVersion int, entries []dexter.LogEntry) error {
	state, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	s := model.SummaryOf(g)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save game: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE games SET
		   host_id = $3, status = $4, phase = $5, player_count = $6, winner = NULLIF($7, ''),
		   version = $8, state = $9,
		   started_at = CASE WHEN started_at IS NULL AND $4 <> 'lobby' THEN NOW() ELSE started_at END,
		   finished_at = CASE WHEN finished_at IS NULL AND $4 = 'finished' THEN NOW() ELSE finished_at END
		 WHERE id = $1 AND version = $2`,
		s.ID, prevVersion, s.HostID, s.Status, s.Phase, s.PlayerCount, s.Winner, s.Version, state,
	)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("save game %s at version %d: %w", g.ID, prevVersion, repository.ErrVersionConflict)
	}
	if err := replacePlayers(ctx, tx, s); err != nil {
		return err
	}
	if err := appendLog(ctx, tx, g.ID, entries); err != nil {
		return err
	}
	return tx.Commit()
}

func replacePlayers(ctx context.Context, tx *sql.Tx, s model.Game) error {
	ids := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		ids = append(ids, p.UserID)
	}
	_, err := tx.ExecContext(ctx,
		`DELETE FROM game_players WHERE game_id = $1 AND NOT (user_id = ANY($2))`,
		s.ID, pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("remove departed players: %w", err)
	}
	for _, p := range s.Players {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO game_players (game_id, user_id, display_name, kind, seat) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (game_id, user_id) DO UPDATE SET display_name = EXCLUDED.display_name, seat = EXCLUDED.seat`,
			s.ID, p.UserID, p.DisplayName, p.Kind, p.Seat,
		)
		if err != nil {
			return fmt.Errorf("upsert player: %w", err)
		}
	}
	return nil
}

func appendLog(ctx context.Context, tx *sql.Tx, gameID string, entries []dexter.LogEntry) error {
	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO game_log (game_id, seq, story, kind, actor, message) VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (game_id, seq) DO NOTHING`,
			gameID, e.Seq, e.Story, e.Kind, e.Actor, e.Message,
		)
		if err != nil {
			return fmt.Errorf("append log: %w", err)
		}
	}
	return nil
}

// Load returns the stored engine snapshot, or nil if the game does not exist.
func (r *GameRepo) Load(ctx context.Context, gameID string) (*dexter.Game, error) {
	var state []byte
	err := r.db.QueryRowContext(ctx, `SELECT state FROM games WHERE id = $1`, gameID).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	var g dexter.Game
	if err := json.Unmarshal(state, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", gameID, err)
	}
	return &g, nil
}

// FindByID returns a game listing row with its players.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games g WHERE g.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	players, err := r.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Players = players
	return g, nil
}

// ListOpen returns public games still in the lobby.
func (r *GameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	return r.list(ctx, "list open games",
		`SELECT `+gameColumns+` FROM games g
		 WHERE g.status = 'lobby' AND g.public
		 ORDER BY g.created_at DESC LIMIT 50`)
}

// ListByUser returns all games the user holds a seat in.
func (r *GameRepo) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	return r.list(ctx, "list user games",
		`SELECT `+gameColumns+` FROM games g
		 JOIN game_players gp ON g.id = gp.game_id
		 WHERE gp.user_id = $1
		 ORDER BY g.created_at DESC LIMIT 50`, userID)
}

// ListActive returns games that have started and not finished.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	return r.list(ctx, "list active games",
		`SELECT `+gameColumns+` FROM games g WHERE g.status = 'active' ORDER BY g.created_at`)
}

func (r *GameRepo) list(ctx context.Context, what, query string, args ...any) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*model.Game, error) {
	var g model.Game
	var winner sql.NullString
	err := row.Scan(&g.ID, &g.Name, &g.HostID, &g.Status, &g.Phase, &g.Public, &g.Capacity, &g.PlayerCount,
		&winner, &g.Version, &g.CreatedAt, &g.StartedAt, &g.FinishedAt)
	if err != nil {
		return nil, err
	}
	g.Winner = winner.String
	return &g, nil
}

// ListPlayers returns the seats of a game in seat order.
func (r *GameRepo) ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, user_id, display_name, kind, seat, joined_at FROM game_players WHERE game_id = $1 ORDER BY seat`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.GamePlayer
	for rows.Next() {
		var p model.GamePlayer
		if err := rows.Scan(&p.GameID, &p.UserID, &p.DisplayName, &p.Kind, &p.Seat, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// ListLog returns log entries with a sequence number greater than since.
func (r *GameRepo) ListLog(ctx context.Context, gameID string, since int) ([]model.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, seq, story, kind, actor, message, created_at
		 FROM game_log WHERE game_id = $1 AND seq > $2 ORDER BY seq`,
		gameID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("list log: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var e model.LogEntry
		if err := rows.Scan(&e.GameID, &e.Seq, &e.Story, &e.Kind, &e.Actor, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a game; seats and log rows cascade.
func (r *GameRepo) Delete(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}
