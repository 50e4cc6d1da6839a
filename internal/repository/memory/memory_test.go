package memory

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectfour/backend/internal/domain"
	"github.com/connectfour/backend/internal/service/game"
)

func newRecord(id string) game.Record {
	return game.Record{
		GameID:    id,
		Board:     domain.NewBoard(),
		State:     domain.InitialState,
		Policy:    domain.GravityDrop,
		Player1ID: "p1",
		Player2ID: "p2",
		Accepted:  true,
		Version:   1,
		CreatedAt: time.Now(),
	}
}

func TestStoreCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Create(ctx, newRecord("g1")))
	assert.ErrorIs(t, s.Create(ctx, newRecord("g1")), game.ErrGameExists)

	rec, err := s.Get(ctx, "g1")
	require.NoError(t, err)

	next := rec.Clone()
	next.Board[5][3] = domain.Player1
	next.State = domain.StatePlayer2Turn
	next.Version = 2
	require.NoError(t, s.CompareAndSwap(ctx, next, 1))

	stale := rec.Clone()
	stale.Version = 2
	assert.ErrorIs(t, s.CompareAndSwap(ctx, stale, 1), game.ErrVersionConflict)

	got, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, domain.Player1, got.Board[5][3])

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestStoreReturnsClones(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	rec := newRecord("g1")
	rec.Moves = []int{38}
	require.NoError(t, s.Create(ctx, rec))

	got, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	got.Moves[0] = 0
	got.Board[0][0] = domain.Player2

	again, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []int{38}, again.Moves)
	assert.Equal(t, domain.Empty, again.Board[0][0])
}

func TestStoreSubscribeReceivesCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewStore()
	require.NoError(t, s.Create(ctx, newRecord("g1")))

	updates, unsubscribe, err := s.Subscribe(ctx, "g1")
	require.NoError(t, err)
	defer unsubscribe()

	next := newRecord("g1")
	next.Version = 2
	require.NoError(t, s.CompareAndSwap(ctx, next, 1))

	select {
	case got := <-updates:
		assert.Equal(t, int64(2), got.Version)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}

	assert.ErrorIs(t, s.Delete(ctx, "g1", 1), game.ErrVersionConflict)
	require.NoError(t, s.Delete(ctx, "g1", 2))
	_, open := <-updates
	assert.False(t, open)

	_, _, err = s.Subscribe(ctx, "g1")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestStoreUnsubscribeReleasesWatcher(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Create(ctx, newRecord("g1")))

	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		updates, unsubscribe, err := s.Subscribe(ctx, "g1")
		require.NoError(t, err)
		unsubscribe()
		_, open := <-updates
		require.False(t, open)
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}

func TestStoreDropsSlowSubscriber(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Create(ctx, newRecord("g1")))

	updates, _, err := s.Subscribe(ctx, "g1")
	require.NoError(t, err)

	for v := int64(1); v <= subscriberBuffer+1; v++ {
		next := newRecord("g1")
		next.Version = v + 1
		require.NoError(t, s.CompareAndSwap(ctx, next, v))
	}

	received := 0
	for range updates {
		received++
	}
	assert.Equal(t, subscriberBuffer, received)
}

func TestArchiveSaveGameUpdatesRatingsOnce(t *testing.T) {
	ctx := context.Background()
	a := NewArchive()
	require.NoError(t, a.UpsertPlayer(ctx, game.Player{ID: "p1", Name: "ann", Rating: domain.InitialRating}))
	require.NoError(t, a.UpsertPlayer(ctx, game.Player{ID: "p2", Name: "bob", Rating: domain.InitialRating}))

	g := game.FinishedGame{
		GameID:     "g1",
		Player1ID:  "p1",
		Player2ID:  "p2",
		WinnerID:   "p1",
		State:      domain.StatePlayer1Won,
		Reason:     "connect_four",
		FinishedAt: time.Now(),
	}
	require.NoError(t, a.SaveGame(ctx, g))
	require.NoError(t, a.SaveGame(ctx, g))

	p1, err := a.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialRating+16, p1.Rating)
	assert.Equal(t, 1, p1.GamesPlayed)
	assert.Equal(t, 1, p1.GamesWon)

	p2, err := a.GetPlayer(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialRating-16, p2.Rating)
	assert.Equal(t, 0, p2.GamesWon)

	board, err := a.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "p1", board[0].ID)

	history, err := a.History(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = a.GetGame(ctx, "nope")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestArchiveBotGameKeepsRating(t *testing.T) {
	ctx := context.Background()
	a := NewArchive()
	require.NoError(t, a.UpsertPlayer(ctx, game.Player{ID: "p1", Name: "ann", Rating: domain.InitialRating}))

	require.NoError(t, a.SaveGame(ctx, game.FinishedGame{
		GameID:    "g1",
		Player1ID: "p1",
		Player2ID: domain.BotPlayerID,
		State:     domain.StatePlayer2Won,
	}))

	p1, err := a.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialRating, p1.Rating)
	assert.Equal(t, 1, p1.GamesPlayed)
}
