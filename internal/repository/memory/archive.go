package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/connectfour/backend/internal/domain"
	"github.com/connectfour/backend/internal/service/game"
)

var _ game.Archive = (*Archive)(nil)

// Archive is the in-process archive used when no database is configured.
type Archive struct {
	mu      sync.RWMutex
	players map[string]game.Player
	games   map[string]game.FinishedGame
}

func NewArchive() *Archive {
	return &Archive{
		players: make(map[string]game.Player),
		games:   make(map[string]game.FinishedGame),
	}
}

func (a *Archive) UpsertPlayer(ctx context.Context, p game.Player) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.players[p.ID] = p
	return nil
}

func (a *Archive) GetPlayer(ctx context.Context, playerID string) (*game.Player, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, ok := a.players[playerID]
	if !ok {
		return nil, game.ErrPlayerNotFound
	}
	return &p, nil
}

// SaveGame stores g once. Saving the same game again changes nothing.
func (a *Archive) SaveGame(ctx context.Context, g game.FinishedGame) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.games[g.GameID]; ok {
		return nil
	}
	g.Moves = append([]int(nil), g.Moves...)
	a.games[g.GameID] = g

	p1, ok1 := a.players[g.Player1ID]
	p2, ok2 := a.players[g.Player2ID]
	winner, _ := g.State.Winner()

	if ok1 && ok2 {
		p1.Rating, p2.Rating = domain.UpdateRatings(p1.Rating, p2.Rating, winner)
	}
	if ok1 {
		a.players[g.Player1ID] = recordResult(p1, winner == domain.Player1)
	}
	if ok2 {
		a.players[g.Player2ID] = recordResult(p2, winner == domain.Player2)
	}
	return nil
}

func recordResult(p game.Player, won bool) game.Player {
	p.GamesPlayed++
	if won {
		p.GamesWon++
	}
	return p
}

func (a *Archive) GetGame(ctx context.Context, gameID string) (*game.FinishedGame, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	g, ok := a.games[gameID]
	if !ok {
		return nil, game.ErrGameNotFound
	}
	return &g, nil
}

// History lists playerID's finished games, newest first.
func (a *Archive) History(ctx context.Context, playerID string) ([]game.FinishedGame, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := []game.FinishedGame{}
	for _, g := range a.games {
		if g.Player1ID == playerID || g.Player2ID == playerID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	return out, nil
}

func (a *Archive) Leaderboard(ctx context.Context, limit int) ([]game.Player, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]game.Player, 0, len(a.players))
	for _, p := range a.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
