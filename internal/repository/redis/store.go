package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/connectfour/backend/internal/service/game"
)

const (
	keyPrefix     = "connectfour:game:"
	updatesSuffix = ":updates"

	// published on the updates channel when a game is deleted
	tombstone = "deleted"
)

var _ game.SessionStore = (*Store)(nil)

func gameKey(gameID string) string {
	return keyPrefix + gameID
}

func updatesChannel(gameID string) string {
	return keyPrefix + gameID + updatesSuffix
}

// Store keeps live games as JSON documents so several API processes can share them.
// Finished games expire after finishedTTL; zero keeps them until Cleanup removes them.
type Store struct {
	client      *redis.Client
	log         *zap.SugaredLogger
	finishedTTL time.Duration
}

func NewStore(client *redis.Client, log *zap.SugaredLogger, finishedTTL time.Duration) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{client: client, log: log, finishedTTL: finishedTTL}
}

func (s *Store) Create(ctx context.Context, rec game.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	ok, err := s.client.SetNX(ctx, gameKey(rec.GameID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return game.ErrGameExists
	}
	return nil
}

func (s *Store) Get(ctx context.Context, gameID string) (game.Record, error) {
	return s.get(ctx, s.client, gameID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) get(ctx context.Context, c getter, gameID string) (game.Record, error) {
	data, err := c.Get(ctx, gameKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.Record{}, game.ErrGameNotFound
	}
	if err != nil {
		return game.Record{}, fmt.Errorf("redis get: %w", err)
	}

	var rec game.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return game.Record{}, fmt.Errorf("decode game %s: %w", gameID, err)
	}
	return rec, nil
}

// CompareAndSwap writes rec under WATCH so a concurrent writer aborts the transaction,
// then publishes the new record on the game's updates channel.
func (s *Store) CompareAndSwap(ctx context.Context, rec game.Record, expectedVersion int64) error {
	key := gameKey(rec.GameID)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	var ttl time.Duration
	if rec.State.IsTerminal() {
		ttl = s.finishedTTL
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.get(ctx, tx, rec.GameID)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return game.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			pipe.Publish(ctx, updatesChannel(rec.GameID), data)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return game.ErrVersionConflict
	}
	return err
}

// Delete removes the game if it is still at expectedVersion and tells subscribers it is gone.
func (s *Store) Delete(ctx context.Context, gameID string, expectedVersion int64) error {
	key := gameKey(gameID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.get(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return game.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.Publish(ctx, updatesChannel(gameID), tombstone)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return game.ErrVersionConflict
	}
	return err
}

// List scans every stored game. Keys that vanish mid-scan are skipped.
func (s *Store) List(ctx context.Context) ([]game.Record, error) {
	var out []game.Record
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, updatesSuffix) {
			continue
		}
		rec, err := s.get(ctx, s.client, strings.TrimPrefix(key, keyPrefix))
		if errors.Is(err, game.ErrGameNotFound) {
			continue
		}
		if err != nil {
			s.log.Warnf("[REDIS] Skipping unreadable game %s: %v", key, err)
			continue
		}
		out = append(out, rec)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return out, nil
}

// Subscribe forwards records published for gameID until ctx ends, unsubscribe is called
// or the game is deleted.
func (s *Store) Subscribe(ctx context.Context, gameID string) (<-chan game.Record, func(), error) {
	if _, err := s.Get(ctx, gameID); err != nil {
		return nil, nil, err
	}

	pubsub := s.client.Subscribe(ctx, updatesChannel(gameID))
	// wait for the subscription to be confirmed so no publish is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan game.Record, 16)

	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok || msg.Payload == tombstone {
					return
				}
				var rec game.Record
				if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
					s.log.Warnf("[REDIS] Dropping malformed update on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- rec:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return out, cancel, nil
}
