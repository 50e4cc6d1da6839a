package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/connectfour/backend/internal/domain"
	"github.com/connectfour/backend/internal/service/bot"
	"github.com/connectfour/backend/pkg/uid"
)

const (
	ReasonConnectFour = "connect_four"
	ReasonDraw        = "draw"
	ReasonResign      = "resign"

	// active games untouched for this long are dropped by Cleanup
	abandonedAfter = 24 * time.Hour
)

type Options struct {
	Policy        domain.Policy
	BotDifficulty string
	BotDelay      time.Duration
	MoveRetries   int
}

// Service owns the move pipeline: read a snapshot, run the rules engine on it,
// then commit conditionally on the version that was read.
type Service struct {
	store   SessionStore
	archive Archive
	log     *zap.SugaredLogger
	opts    Options
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex // gameID → single-writer lock

	wg sync.WaitGroup // archive writes and bot turns in flight
}

func NewService(store SessionStore, archive Archive, log *zap.SugaredLogger, opts Options) *Service {
	if opts.Policy == "" {
		opts.Policy = domain.GravityDrop
	}
	if opts.BotDifficulty == "" {
		opts.BotDifficulty = bot.DifficultyHard
	}
	if opts.MoveRetries <= 0 {
		opts.MoveRetries = 3
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		store:   store,
		archive: archive,
		log:     log,
		opts:    opts,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Wait blocks until background archive writes and bot turns have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

type NewGameRequest struct {
	CreatorID     string
	OpponentID    string
	Policy        domain.Policy
	BotDifficulty string
}

// CreateGame sends an invitation to OpponentID. Games against the bot start immediately.
func (s *Service) CreateGame(ctx context.Context, req NewGameRequest) (Record, error) {
	if req.CreatorID == req.OpponentID {
		return Record{}, ErrSelfInvite
	}
	if req.CreatorID == domain.BotPlayerID {
		return Record{}, ErrNotAPlayer
	}
	if _, err := s.archive.GetPlayer(ctx, req.CreatorID); err != nil {
		return Record{}, err
	}

	vsBot := req.OpponentID == domain.BotPlayerID
	if !vsBot {
		if _, err := s.archive.GetPlayer(ctx, req.OpponentID); err != nil {
			return Record{}, err
		}
	}

	policy := req.Policy
	if policy == "" {
		policy = s.opts.Policy
	}
	if _, err := domain.ParsePolicy(string(policy)); err != nil {
		return Record{}, err
	}

	now := s.now()
	rec := Record{
		GameID:    uid.GenerateGameID(),
		Board:     domain.NewBoard(),
		State:     domain.InitialState,
		Policy:    policy,
		Player1ID: req.CreatorID,
		Player2ID: req.OpponentID,
		Accepted:  vsBot,
		Moves:     []int{},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if vsBot {
		rec.BotDifficulty = req.BotDifficulty
		if rec.BotDifficulty == "" {
			rec.BotDifficulty = s.opts.BotDifficulty
		}
	}

	if err := s.store.Create(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("create game: %w", err)
	}

	s.log.Infof("[SESSION] Created game %s: %s vs %s (policy %s, accepted %v)",
		rec.GameID, rec.Player1ID, rec.Player2ID, rec.Policy, rec.Accepted)
	return rec, nil
}

func (s *Service) GetGame(ctx context.Context, gameID string) (Record, error) {
	return s.store.Get(ctx, gameID)
}

// AcceptInvite starts the game. Only the invited player can accept.
func (s *Service) AcceptInvite(ctx context.Context, gameID, playerID string) (Record, error) {
	return s.update(ctx, gameID, func(rec Record) (Record, error) {
		if rec.Accepted {
			return rec, ErrInviteNotPending
		}
		if rec.Player2ID != playerID {
			return rec, ErrNotAPlayer
		}
		next := rec.Clone()
		next.Accepted = true
		return next, nil
	})
}

// DeclineInvite drops a pending game. Either seat may decline; the creator withdraws.
func (s *Service) DeclineInvite(ctx context.Context, gameID, playerID string) error {
	unlock := s.lock(gameID)
	defer unlock()

	rec, err := s.store.Get(ctx, gameID)
	if err != nil {
		return err
	}
	if _, ok := rec.PlayerFor(playerID); !ok {
		return ErrNotAPlayer
	}
	if rec.Accepted {
		return ErrInviteNotPending
	}

	if err := s.store.Delete(ctx, gameID, rec.Version); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	s.forget(gameID)

	s.log.Infof("[SESSION] Invitation %s declined by %s", gameID, playerID)
	return nil
}

// MakeMove applies one move for playerID. Rules violations come back as domain errors
// and leave the stored game untouched.
func (s *Service) MakeMove(ctx context.Context, gameID, playerID string, move domain.Move) (Record, error) {
	return s.update(ctx, gameID, func(rec Record) (Record, error) {
		return s.applyMove(rec, playerID, move)
	})
}

// Resign ends an accepted game in the opponent's favour.
func (s *Service) Resign(ctx context.Context, gameID, playerID string) (Record, error) {
	return s.update(ctx, gameID, func(rec Record) (Record, error) {
		p, ok := rec.PlayerFor(playerID)
		if !ok || playerID == domain.BotPlayerID {
			return rec, ErrNotAPlayer
		}
		if !rec.Accepted {
			return rec, ErrInvitePending
		}
		if rec.State.IsTerminal() {
			return rec, domain.ErrGameAlreadyOver
		}

		next := rec.Clone()
		next.State = domain.WonState(p.Opponent())
		next.Reason = ReasonResign
		next.FinishedAt = s.now()
		return next, nil
	})
}

// ActiveGames lists accepted games that are still being played, oldest first.
func (s *Service) ActiveGames(ctx context.Context) ([]Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	active := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Accepted && !rec.State.IsTerminal() {
			active = append(active, rec)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.Before(active[j].CreatedAt) })
	return active, nil
}

func (s *Service) Subscribe(ctx context.Context, gameID string) (<-chan Record, func(), error) {
	if _, err := s.store.Get(ctx, gameID); err != nil {
		return nil, nil, err
	}
	return s.store.Subscribe(ctx, gameID)
}

func (s *Service) applyMove(rec Record, playerID string, move domain.Move) (Record, error) {
	p, ok := rec.PlayerFor(playerID)
	if !ok {
		return rec, ErrNotAPlayer
	}
	if !rec.Accepted {
		return rec, ErrInvitePending
	}

	board, landing, state, err := domain.Play(rec.State, rec.Board, move, p, rec.Policy)
	if err != nil {
		return rec, err
	}

	next := rec.Clone()
	next.Board = board
	next.State = state
	next.LastMove = &landing
	next.Moves = append(next.Moves, domain.CellIndex(landing.Row, landing.Column))

	switch {
	case state == domain.StateDraw:
		next.Reason = ReasonDraw
		next.FinishedAt = s.now()
	case state.IsTerminal():
		next.Reason = ReasonConnectFour
		next.FinishedAt = s.now()
	}
	return next, nil
}

// update runs mutate against the latest record and commits the result with
// compare-and-swap. The per-game lock serialises writers inside this process; the
// version check catches writers in other processes sharing the store.
func (s *Service) update(ctx context.Context, gameID string, mutate func(Record) (Record, error)) (Record, error) {
	unlock := s.lock(gameID)
	defer unlock()

	for attempt := 0; ; attempt++ {
		rec, err := s.store.Get(ctx, gameID)
		if err != nil {
			return Record{}, err
		}

		next, err := mutate(rec)
		if err != nil {
			return rec, err
		}
		next.Version = rec.Version + 1
		next.UpdatedAt = s.now()

		err = s.store.CompareAndSwap(ctx, next, rec.Version)
		if errors.Is(err, ErrVersionConflict) && attempt < s.opts.MoveRetries {
			s.log.Warnf("[SESSION] Version conflict on game %s (attempt %d), retrying", gameID, attempt+1)
			continue
		}
		if err != nil {
			return rec, fmt.Errorf("commit game %s: %w", gameID, err)
		}

		s.afterCommit(next)
		return next, nil
	}
}

func (s *Service) afterCommit(rec Record) {
	if rec.State.IsTerminal() {
		s.log.Infof("[GAME] Game %s finished: %s (%s)", rec.GameID, rec.State, rec.Reason)
		s.saveGameAsync(rec)
		return
	}

	if rec.Accepted && rec.IsBotGame() && rec.State.ToMove() == domain.Player2 {
		s.scheduleBotMove(rec.GameID)
	}
}

func (s *Service) scheduleBotMove(gameID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if s.opts.BotDelay > 0 {
			time.Sleep(s.opts.BotDelay)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err := s.update(ctx, gameID, func(rec Record) (Record, error) {
			// verify it's still the bot's turn, a resign may have landed first
			if !rec.IsBotGame() || rec.State.ToMove() != domain.Player2 {
				return rec, errBotIdle
			}
			move, ok := bot.ChooseMove(rec.Board, domain.Player2, rec.BotDifficulty, rec.Policy)
			if !ok {
				return rec, errBotIdle
			}
			return s.applyMove(rec, domain.BotPlayerID, move)
		})
		if err != nil && !errors.Is(err, errBotIdle) {
			s.log.Errorf("[BOT] Error handling bot move in game %s: %v", gameID, err)
		}
	}()
}

var errBotIdle = errors.New("bot has nothing to play")

// Saves game data to the archive in background so the mover is not blocked
func (s *Service) saveGameAsync(rec Record) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		finished := FinishedGame{
			GameID:      rec.GameID,
			Player1ID:   rec.Player1ID,
			Player1Name: s.playerName(ctx, rec.Player1ID, rec.BotDifficulty),
			Player2ID:   rec.Player2ID,
			Player2Name: s.playerName(ctx, rec.Player2ID, rec.BotDifficulty),
			WinnerID:    rec.WinnerID(),
			State:       rec.State,
			Reason:      rec.Reason,
			Policy:      rec.Policy,
			Moves:       append([]int(nil), rec.Moves...),
			Board:       rec.Board,
			CreatedAt:   rec.CreatedAt,
			FinishedAt:  rec.FinishedAt,
		}

		if err := s.archive.SaveGame(ctx, finished); err != nil {
			s.log.Errorf("[GAME] Error saving game %s: %v", rec.GameID, err)
			return
		}
		s.log.Infof("[GAME] Game %s saved successfully", rec.GameID)
	}()
}

func (s *Service) playerName(ctx context.Context, playerID, botDifficulty string) string {
	if playerID == domain.BotPlayerID {
		return domain.GetBotName(botDifficulty)
	}
	p, err := s.archive.GetPlayer(ctx, playerID)
	if err != nil || p == nil {
		return playerID
	}
	return p.Name
}

// RegisterPlayer creates a player with the starting rating.
func (s *Service) RegisterPlayer(ctx context.Context, name string) (Player, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 32 {
		return Player{}, fmt.Errorf("%w: must be between 2 and 32 characters", ErrInvalidName)
	}
	if domain.IsBotName(name) {
		return Player{}, fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}

	p := Player{
		ID:        uid.GeneratePlayerID(),
		Name:      name,
		Rating:    domain.InitialRating,
		CreatedAt: s.now(),
	}
	if err := s.archive.UpsertPlayer(ctx, p); err != nil {
		return Player{}, fmt.Errorf("register player: %w", err)
	}

	s.log.Infof("[PLAYER] Registered %s (ID: %s)", p.Name, p.ID)
	return p, nil
}

func (s *Service) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	return s.archive.GetPlayer(ctx, playerID)
}

func (s *Service) History(ctx context.Context, playerID string) ([]FinishedGame, error) {
	return s.archive.History(ctx, playerID)
}

func (s *Service) ArchivedGame(ctx context.Context, gameID string) (*FinishedGame, error) {
	return s.archive.GetGame(ctx, gameID)
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]Player, error) {
	if limit <= 0 {
		limit = 20
	}
	limit = min(limit, 100)
	return s.archive.Leaderboard(ctx, limit)
}

// Cleanup drops finished games older than finishedTTL, invitations older than inviteTTL
// and active games nobody has touched for a day. It returns how many were removed.
func (s *Service) Cleanup(ctx context.Context, finishedTTL, inviteTTL time.Duration) (int, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list games: %w", err)
	}

	count := 0
	for _, rec := range records {
		if !s.isStale(rec, finishedTTL, inviteTTL) {
			continue
		}

		removed, err := s.removeIfStale(ctx, rec.GameID, finishedTTL, inviteTTL)
		if err != nil {
			s.log.Errorf("[CLEANUP] Failed to remove game %s: %v", rec.GameID, err)
			continue
		}
		if removed {
			count++
		}
	}

	if count > 0 {
		s.log.Infof("[SESSION] Memory cleanup: Removed %d stale game sessions", count)
	}
	return count, nil
}

// removeIfStale re-reads the game under its lock. The listed copy may predate an accept
// or a move, so the delete is conditional on the version judged stale.
func (s *Service) removeIfStale(ctx context.Context, gameID string, finishedTTL, inviteTTL time.Duration) (bool, error) {
	unlock := s.lock(gameID)
	defer unlock()

	rec, err := s.store.Get(ctx, gameID)
	if errors.Is(err, ErrGameNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !s.isStale(rec, finishedTTL, inviteTTL) {
		return false, nil
	}

	err = s.store.Delete(ctx, gameID, rec.Version)
	if errors.Is(err, ErrGameNotFound) || errors.Is(err, ErrVersionConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.forget(gameID)
	return true, nil
}

func (s *Service) isStale(rec Record, finishedTTL, inviteTTL time.Duration) bool {
	now := s.now()
	switch {
	case rec.State.IsTerminal():
		return now.Sub(rec.FinishedAt) > finishedTTL
	case !rec.Accepted:
		return now.Sub(rec.CreatedAt) > inviteTTL
	default:
		return now.Sub(rec.UpdatedAt) > abandonedAfter
	}
}

func (s *Service) lock(gameID string) func() {
	s.mu.Lock()
	l, ok := s.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[gameID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Service) forget(gameID string) {
	s.mu.Lock()
	delete(s.locks, gameID)
	s.mu.Unlock()
}
