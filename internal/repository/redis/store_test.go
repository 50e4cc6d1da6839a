package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/connectfour/backend/internal/domain"
	"github.com/connectfour/backend/internal/service/game"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), Options{URL: mr.Addr()}, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewStore(client, nil, time.Hour), mr
}

func record(id string) game.Record {
	return game.Record{
		GameID:    id,
		Board:     domain.NewBoard(),
		State:     domain.InitialState,
		Policy:    domain.GravityDrop,
		Player1ID: "p1",
		Player2ID: "p2",
		Accepted:  true,
		Moves:     []int{},
		Version:   1,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	rec := record("g1")
	rec.Board[5][3] = domain.Player1
	require.NoError(t, s.Create(ctx, rec))
	assert.ErrorIs(t, s.Create(ctx, rec), game.ErrGameExists)
	assert.True(t, mr.Exists("connectfour:game:g1"))

	got, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, rec.Board, got.Board)
	assert.Equal(t, rec.State, got.State)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

	assert.ErrorIs(t, s.Delete(ctx, "g1", 7), game.ErrVersionConflict)
	require.NoError(t, s.Delete(ctx, "g1", 1))
	_, err = s.Get(ctx, "g1")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "g1", 1), game.ErrGameNotFound)
}

func TestCompareAndSwapChecksVersion(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	require.NoError(t, s.Create(ctx, record("g1")))

	next := record("g1")
	next.Version = 2
	next.State = domain.StatePlayer2Turn
	require.NoError(t, s.CompareAndSwap(ctx, next, 1))
	assert.ErrorIs(t, s.CompareAndSwap(ctx, next, 1), game.ErrVersionConflict)

	got, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, time.Duration(0), mr.TTL("connectfour:game:g1"))

	done := record("g1")
	done.Version = 3
	done.State = domain.StatePlayer1Won
	require.NoError(t, s.CompareAndSwap(ctx, done, 2))
	assert.Equal(t, time.Hour, mr.TTL("connectfour:game:g1"))

	assert.ErrorIs(t, s.CompareAndSwap(ctx, record("missing"), 1), game.ErrGameNotFound)
}

func TestListSkipsOtherKeys(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	require.NoError(t, s.Create(ctx, record("g1")))
	require.NoError(t, s.Create(ctx, record("g2")))
	require.NoError(t, mr.Set("unrelated", "x"))

	recs, err := s.List(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, r := range recs {
		ids = append(ids, r.GameID)
	}
	assert.ElementsMatch(t, []string{"g1", "g2"}, ids)
}

func TestSubscribeReceivesPublishedRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, _ := newTestStore(t)
	require.NoError(t, s.Create(ctx, record("g1")))

	updates, unsubscribe, err := s.Subscribe(ctx, "g1")
	require.NoError(t, err)

	next := record("g1")
	next.Version = 2
	next.Board[5][0] = domain.Player1
	require.NoError(t, s.CompareAndSwap(ctx, next, 1))

	select {
	case got := <-updates:
		assert.Equal(t, int64(2), got.Version)
		assert.Equal(t, domain.Player1, got.Board[5][0])
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}

	unsubscribe()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	_, _, err = s.Subscribe(ctx, "missing")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions(Options{URL: "redis://:secret@cache:6380/2"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = parseOptions(Options{URL: "cache:6379", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, &redis.Options{Addr: "cache:6379", Password: "pw"}, opts)

	opts, err = parseOptions(Options{})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
}

func TestDeleteEndsSubscription(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, _ := newTestStore(t)
	require.NoError(t, s.Create(ctx, record("g1")))

	updates, unsubscribe, err := s.Subscribe(ctx, "g1")
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, s.Delete(ctx, "g1", 1))

	select {
	case _, ok := <-updates:
		assert.False(t, ok, "no record is sent for a deleted game")
	case <-time.After(2 * time.Second):
		t.Fatal("subscription still open after delete")
	}
}
