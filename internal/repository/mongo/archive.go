package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/connectfour/backend/internal/domain"
	"github.com/connectfour/backend/internal/service/game"
)

const (
	playersCollection = "players"
	gamesCollection   = "games"
)

var _ game.Archive = (*Archive)(nil)

type playerDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Rating      int       `bson:"rating"`
	GamesPlayed int       `bson:"games_played"`
	GamesWon    int       `bson:"games_won"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d playerDoc) player() game.Player {
	return game.Player{
		ID:          d.ID,
		Name:        d.Name,
		Rating:      d.Rating,
		GamesPlayed: d.GamesPlayed,
		GamesWon:    d.GamesWon,
		CreatedAt:   d.CreatedAt,
	}
}

type gameDoc struct {
	ID          string    `bson:"_id"`
	Player1ID   string    `bson:"player1_id"`
	Player1Name string    `bson:"player1_name"`
	Player2ID   string    `bson:"player2_id"`
	Player2Name string    `bson:"player2_name"`
	WinnerID    string    `bson:"winner_id,omitempty"`
	State       string    `bson:"state"`
	Reason      string    `bson:"reason"`
	Policy      string    `bson:"policy"`
	Moves       []int     `bson:"moves"`
	Board       [][]int   `bson:"board"`
	Duration    int       `bson:"duration_seconds"`
	CreatedAt   time.Time `bson:"created_at"`
	FinishedAt  time.Time `bson:"finished_at"`
}

func (d gameDoc) finishedGame() (game.FinishedGame, error) {
	board, err := domain.BoardFromInts(d.Board)
	if err != nil {
		return game.FinishedGame{}, fmt.Errorf("stored board for %s: %w", d.ID, err)
	}
	return game.FinishedGame{
		GameID:      d.ID,
		Player1ID:   d.Player1ID,
		Player1Name: d.Player1Name,
		Player2ID:   d.Player2ID,
		Player2Name: d.Player2Name,
		WinnerID:    d.WinnerID,
		State:       domain.GameState(d.State),
		Reason:      d.Reason,
		Policy:      domain.Policy(d.Policy),
		Moves:       d.Moves,
		Board:       board,
		CreatedAt:   d.CreatedAt,
		FinishedAt:  d.FinishedAt,
	}, nil
}

// Archive keeps players and finished games in MongoDB.
type Archive struct {
	db  *mongo.Database
	log *zap.SugaredLogger
}

func NewArchive(db *mongo.Database, log *zap.SugaredLogger) *Archive {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Archive{db: db, log: log}
}

// Connect dials uri and pings the deployment.
func Connect(ctx context.Context, uri string, log *zap.SugaredLogger) (*mongo.Client, error) {
	ctxConnect, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctxConnect, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctxConnect, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("[MONGO] Connected successfully")
	return client, nil
}

// EnsureIndexes creates the history and leaderboard indexes.
func (a *Archive) EnsureIndexes(ctx context.Context) error {
	_, err := a.db.Collection(gamesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "player1_id", Value: 1}, {Key: "finished_at", Value: -1}}},
		{Keys: bson.D{{Key: "player2_id", Value: 1}, {Key: "finished_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create game indexes: %w", err)
	}

	_, err = a.db.Collection(playersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "rating", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create player index: %w", err)
	}
	return nil
}

func (a *Archive) UpsertPlayer(ctx context.Context, p game.Player) error {
	update := bson.M{
		"$set": bson.M{"name": p.Name},
		"$setOnInsert": bson.M{
			"rating":       p.Rating,
			"games_played": p.GamesPlayed,
			"games_won":    p.GamesWon,
			"created_at":   p.CreatedAt,
		},
	}
	_, err := a.db.Collection(playersCollection).UpdateOne(ctx, bson.M{"_id": p.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

func (a *Archive) GetPlayer(ctx context.Context, playerID string) (*game.Player, error) {
	var doc playerDoc
	err := a.db.Collection(playersCollection).FindOne(ctx, bson.M{"_id": playerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, game.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find player: %w", err)
	}
	p := doc.player()
	return &p, nil
}

// SaveGame inserts the game document, then applies the result to both players.
// The unique _id makes a repeated save a no-op.
func (a *Archive) SaveGame(ctx context.Context, g game.FinishedGame) error {
	doc := gameDoc{
		ID:          g.GameID,
		Player1ID:   g.Player1ID,
		Player1Name: g.Player1Name,
		Player2ID:   g.Player2ID,
		Player2Name: g.Player2Name,
		WinnerID:    g.WinnerID,
		State:       string(g.State),
		Reason:      g.Reason,
		Policy:      string(g.Policy),
		Moves:       g.Moves,
		Board:       g.Board.Ints(),
		Duration:    g.DurationSeconds(),
		CreatedAt:   g.CreatedAt,
		FinishedAt:  g.FinishedAt,
	}
	if doc.Moves == nil {
		doc.Moves = []int{}
	}

	_, err := a.db.Collection(gamesCollection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	winner, _ := g.State.Winner()
	p1, err := a.findPlayer(ctx, g.Player1ID)
	if err != nil {
		return err
	}
	p2, err := a.findPlayer(ctx, g.Player2ID)
	if err != nil {
		return err
	}

	if p1 != nil && p2 != nil {
		p1.Rating, p2.Rating = domain.UpdateRatings(p1.Rating, p2.Rating, winner)
	}
	if p1 != nil {
		if err := a.recordResult(ctx, *p1, winner == domain.Player1); err != nil {
			return err
		}
	}
	if p2 != nil {
		if err := a.recordResult(ctx, *p2, winner == domain.Player2); err != nil {
			return err
		}
	}
	return nil
}

// findPlayer returns nil for the bot and for unknown IDs.
func (a *Archive) findPlayer(ctx context.Context, playerID string) (*game.Player, error) {
	if playerID == domain.BotPlayerID {
		return nil, nil
	}
	p, err := a.GetPlayer(ctx, playerID)
	if errors.Is(err, game.ErrPlayerNotFound) {
		a.log.Warnf("[MONGO] Finished game references unknown player %s", playerID)
		return nil, nil
	}
	return p, err
}

func (a *Archive) recordResult(ctx context.Context, p game.Player, won bool) error {
	inc := bson.M{"games_played": 1}
	if won {
		inc["games_won"] = 1
	}
	update := bson.M{
		"$set": bson.M{"rating": p.Rating},
		"$inc": inc,
	}
	if _, err := a.db.Collection(playersCollection).UpdateOne(ctx, bson.M{"_id": p.ID}, update); err != nil {
		return fmt.Errorf("update player %s: %w", p.ID, err)
	}
	return nil
}

func (a *Archive) GetGame(ctx context.Context, gameID string) (*game.FinishedGame, error) {
	var doc gameDoc
	err := a.db.Collection(gamesCollection).FindOne(ctx, bson.M{"_id": gameID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, game.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	g, err := doc.finishedGame()
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (a *Archive) History(ctx context.Context, playerID string) ([]game.FinishedGame, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"player1_id": playerID},
			{"player2_id": playerID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "finished_at", Value: -1}})

	cursor, err := a.db.Collection(gamesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find history: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []gameDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	games := make([]game.FinishedGame, 0, len(docs))
	for _, doc := range docs {
		g, err := doc.finishedGame()
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

func (a *Archive) Leaderboard(ctx context.Context, limit int) ([]game.Player, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "name", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := a.db.Collection(playersCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []playerDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}

	players := make([]game.Player, 0, len(docs))
	for _, d := range docs {
		players = append(players, d.player())
	}
	return players, nil
}
