package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/connectfour/backend/internal/domain"
	"github.com/connectfour/backend/internal/service/game"
)

var _ game.Archive = (*GameRepo)(nil)

// GameRepo is the postgres Archive: players with ratings and finished games.
type GameRepo struct {
	DB *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{DB: db}
}

func (r *GameRepo) UpsertPlayer(ctx context.Context, p game.Player) error {
	query := `
	INSERT INTO players (id, name, rating, games_played, games_won, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name;
	`
	_, err := r.DB.ExecContext(ctx, query, p.ID, p.Name, p.Rating, p.GamesPlayed, p.GamesWon, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert player: %w", err)
	}
	return nil
}

func (r *GameRepo) GetPlayer(ctx context.Context, playerID string) (*game.Player, error) {
	query := `
	SELECT id, name, rating, games_played, games_won, created_at
	FROM players
	WHERE id = $1;
	`
	var p game.Player
	err := r.DB.QueryRowContext(ctx, query, playerID).Scan(&p.ID, &p.Name, &p.Rating, &p.GamesPlayed, &p.GamesWon, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

// SaveGame inserts a finished game and updates player stats transactionally.
// A game that was already archived is left alone so ratings move once per game.
func (r *GameRepo) SaveGame(ctx context.Context, g game.FinishedGame) error {
	boardJSON, err := json.Marshal(g.Board.Ints())
	if err != nil {
		return fmt.Errorf("failed to marshal board state: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO games (game_id, player1_id, player1_name, player2_id, player2_name, winner_id, state, reason, policy, moves, board, duration_seconds, created_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (game_id) DO NOTHING;
	`
	res, err := tx.ExecContext(ctx, query,
		g.GameID, g.Player1ID, g.Player1Name, g.Player2ID, g.Player2Name, nullString(g.WinnerID),
		string(g.State), g.Reason, string(g.Policy), pq.Array(toInt64s(g.Moves)), boardJSON,
		g.DurationSeconds(), g.CreatedAt, g.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert game record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tx.Commit()
	}

	winner, _ := g.State.Winner()
	rating1, ok1, rating2, ok2, err := r.lockRatingsTx(ctx, tx, g.Player1ID, g.Player2ID)
	if err != nil {
		return err
	}
	if ok1 && ok2 {
		rating1, rating2 = domain.UpdateRatings(rating1, rating2, winner)
	}

	if ok1 {
		if err := r.updatePlayerStatsTx(ctx, tx, g.Player1ID, rating1, winner == domain.Player1); err != nil {
			return err
		}
	}
	if ok2 {
		if err := r.updatePlayerStatsTx(ctx, tx, g.Player2ID, rating2, winner == domain.Player2); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lockRatingsTx locks both player rows in ID order, so saves of two games between the
// same pair with swapped seats cannot deadlock. Results come back in seat order.
func (r *GameRepo) lockRatingsTx(ctx context.Context, tx *sql.Tx, player1ID, player2ID string) (int, bool, int, bool, error) {
	first, second := player1ID, player2ID
	swapped := second < first
	if swapped {
		first, second = second, first
	}

	ratingA, okA, err := r.lockRatingTx(ctx, tx, first)
	if err != nil {
		return 0, false, 0, false, err
	}
	ratingB, okB, err := r.lockRatingTx(ctx, tx, second)
	if err != nil {
		return 0, false, 0, false, err
	}

	if swapped {
		return ratingB, okB, ratingA, okA, nil
	}
	return ratingA, okA, ratingB, okB, nil
}

// lockRatingTx reads a player's rating FOR UPDATE. The bot has no row.
func (r *GameRepo) lockRatingTx(ctx context.Context, tx *sql.Tx, playerID string) (int, bool, error) {
	if playerID == domain.BotPlayerID {
		return 0, false, nil
	}

	var rating int
	err := tx.QueryRowContext(ctx, `SELECT rating FROM players WHERE id = $1 FOR UPDATE;`, playerID).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to lock player rating: %w", err)
	}
	return rating, true, nil
}

func (r *GameRepo) updatePlayerStatsTx(ctx context.Context, tx *sql.Tx, playerID string, rating int, won bool) error {
	query := `
	UPDATE players
	SET games_played = games_played + 1,
	    games_won = games_won + CASE WHEN $3 THEN 1 ELSE 0 END,
	    rating = $2
	WHERE id = $1;
	`
	if _, err := tx.ExecContext(ctx, query, playerID, rating, won); err != nil {
		return fmt.Errorf("failed to update player stats in transaction: %w", err)
	}
	return nil
}

const gameColumns = `game_id, player1_id, player1_name, player2_id, player2_name, winner_id,
	state, reason, policy, moves, board, created_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*game.FinishedGame, error) {
	var (
		g         game.FinishedGame
		winnerID  sql.NullString
		state     string
		policy    string
		moves     []int64
		boardJSON []byte
	)
	err := row.Scan(&g.GameID, &g.Player1ID, &g.Player1Name, &g.Player2ID, &g.Player2Name, &winnerID,
		&state, &g.Reason, &policy, pq.Array(&moves), &boardJSON, &g.CreatedAt, &g.FinishedAt)
	if err != nil {
		return nil, err
	}

	g.WinnerID = winnerID.String
	g.State = domain.GameState(state)
	g.Policy = domain.Policy(policy)
	g.Moves = make([]int, len(moves))
	for i, m := range moves {
		g.Moves[i] = int(m)
	}

	var cells [][]int
	if err := json.Unmarshal(boardJSON, &cells); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board state: %w", err)
	}
	if g.Board, err = domain.BoardFromInts(cells); err != nil {
		return nil, fmt.Errorf("stored board for %s: %w", g.GameID, err)
	}
	return &g, nil
}

func (r *GameRepo) GetGame(ctx context.Context, gameID string) (*game.FinishedGame, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE game_id = $1;`
	g, err := scanGame(r.DB.QueryRowContext(ctx, query, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}
	return g, nil
}

// History retrieves all games for a player (both as player1 and player2)
func (r *GameRepo) History(ctx context.Context, playerID string) ([]game.FinishedGame, error) {
	query := `SELECT ` + gameColumns + `
	FROM games
	WHERE player1_id = $1 OR player2_id = $1
	ORDER BY finished_at DESC;`

	rows, err := r.DB.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query game history: %w", err)
	}
	defer rows.Close()

	games := []game.FinishedGame{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

func (r *GameRepo) Leaderboard(ctx context.Context, limit int) ([]game.Player, error) {
	query := `
	SELECT id, name, rating, games_played, games_won, created_at
	FROM players
	ORDER BY rating DESC, name ASC
	LIMIT $1;
	`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	players := []game.Player{}
	for rows.Next() {
		var p game.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Rating, &p.GamesPlayed, &p.GamesWon, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
