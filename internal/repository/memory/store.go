package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/connectfour/backend/internal/service/game"
)

// subscriberBuffer is how many updates a subscriber may lag before it is dropped.
const subscriberBuffer = 16

var _ game.SessionStore = (*Store)(nil)

type subscriber struct {
	mu     sync.Mutex
	ch     chan game.Record
	done   chan struct{}
	closed bool
}

func newSubscriber() *subscriber {
	return &subscriber{
		ch:   make(chan game.Record, subscriberBuffer),
		done: make(chan struct{}),
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *subscriber) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.ch)
		close(s.done)
	}
}

// send never blocks. A full channel closes the subscriber.
func (s *subscriber) send(rec game.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- rec:
		return true
	default:
		s.closeLocked()
		return false
	}
}

// Store keeps live games in process memory. Every read hands out a clone.
type Store struct {
	mu    sync.Mutex
	games map[string]game.Record
	subs  map[string]map[*subscriber]struct{}
}

func NewStore() *Store {
	return &Store{
		games: make(map[string]game.Record),
		subs:  make(map[string]map[*subscriber]struct{}),
	}
}

func (s *Store) Create(ctx context.Context, rec game.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[rec.GameID]; ok {
		return game.ErrGameExists
	}
	s.games[rec.GameID] = rec.Clone()
	return nil
}

func (s *Store) Get(ctx context.Context, gameID string) (game.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.games[gameID]
	if !ok {
		return game.Record{}, game.ErrGameNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) CompareAndSwap(ctx context.Context, rec game.Record, expectedVersion int64) error {
	s.mu.Lock()
	current, ok := s.games[rec.GameID]
	if !ok {
		s.mu.Unlock()
		return game.ErrGameNotFound
	}
	if current.Version != expectedVersion {
		s.mu.Unlock()
		return game.ErrVersionConflict
	}
	s.games[rec.GameID] = rec.Clone()
	subs := s.copySubsLocked(rec.GameID)
	s.mu.Unlock()

	s.broadcast(rec.GameID, rec, subs)
	return nil
}

func (s *Store) Delete(ctx context.Context, gameID string, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.games[gameID]
	if !ok {
		return game.ErrGameNotFound
	}
	if current.Version != expectedVersion {
		return game.ErrVersionConflict
	}
	delete(s.games, gameID)
	for sub := range s.subs[gameID] {
		sub.close()
	}
	delete(s.subs, gameID)
	return nil
}

func (s *Store) List(ctx context.Context) ([]game.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]game.Record, 0, len(s.games))
	for _, rec := range s.games {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Subscribe registers for committed updates of one game. The channel is closed when
// ctx ends, when unsubscribe is called, when the game is deleted or when the
// subscriber falls too far behind.
func (s *Store) Subscribe(ctx context.Context, gameID string) (<-chan game.Record, func(), error) {
	s.mu.Lock()
	if _, ok := s.games[gameID]; !ok {
		s.mu.Unlock()
		return nil, nil, game.ErrGameNotFound
	}
	set := s.subs[gameID]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[gameID] = set
	}
	sub := newSubscriber()
	set[sub] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[gameID]; ok {
				delete(set, sub)
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-sub.done:
			unsubscribe()
		}
	}()
	return sub.ch, unsubscribe, nil
}

func (s *Store) copySubsLocked(gameID string) []*subscriber {
	out := make([]*subscriber, 0, len(s.subs[gameID]))
	for sub := range s.subs[gameID] {
		out = append(out, sub)
	}
	return out
}

func (s *Store) broadcast(gameID string, rec game.Record, subs []*subscriber) {
	var dropped []*subscriber
	for _, sub := range subs {
		if !sub.send(rec.Clone()) {
			dropped = append(dropped, sub)
		}
	}
	if len(dropped) == 0 {
		return
	}

	s.mu.Lock()
	for _, sub := range dropped {
		if set, ok := s.subs[gameID]; ok {
			delete(set, sub)
		}
	}
	s.mu.Unlock()
}
