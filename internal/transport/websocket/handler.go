package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/connectfour/backend/internal/service/game"
	httptransport "github.com/connectfour/backend/internal/transport/http"
	"github.com/connectfour/backend/pkg/auth"
)

const initTimeout = 10 * time.Second

// Handler streams one game to a connected player or spectator.
type Handler struct {
	games    *game.Service
	issuer   *auth.Issuer
	log      *zap.SugaredLogger
	Upgrader websocket.Upgrader
}

func NewHandler(games *game.Service, issuer *auth.Issuer, allowedOrigins []string, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{
		games:  games,
		issuer: issuer,
		log:    log,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleGame is mounted at GET /ws/games/:id.
func (h *Handler) HandleGame(c *gin.Context) {
	gameID := c.Param("id")
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnf("[WS] Upgrade error: %v", err)
		return
	}

	client := newClient(conn)
	defer client.Close()

	h.handleConnection(c.Request.Context(), client, gameID)
}

func (h *Handler) handleConnection(parent context.Context, client *Client, gameID string) {
	// 1. Wait for initialization (auth)
	client.conn.SetReadDeadline(time.Now().Add(initTimeout))
	var init ClientMessage
	if err := client.conn.ReadJSON(&init); err != nil {
		h.log.Debugf("[WS] Read error during init: %v", err)
		return
	}
	if init.Type != "init" || init.JWT == "" {
		client.Send(ServerMessage{Type: "error", Message: "first message must be init with a token", Code: "unauthorized"})
		return
	}
	claims, err := h.issuer.ValidateToken(init.JWT)
	if err != nil {
		client.Send(ServerMessage{Type: "error", Message: "Invalid token", Code: "unauthorized"})
		return
	}
	client.playerID = claims.PlayerID

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	updates, unsubscribe, err := h.games.Subscribe(ctx, gameID)
	if err != nil {
		h.sendError(client, err)
		return
	}
	defer unsubscribe()

	// subscribe first so no commit between snapshot and subscription is lost
	rec, err := h.games.GetGame(ctx, gameID)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if err := h.sendGame(client, rec); err != nil {
		return
	}

	h.log.Infof("[WS] Connection initialized for player %s on game %s", claims.PlayerID, gameID)

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go client.keepAlive(done)
	go h.forwardUpdates(ctx, cancel, client, updates)

	// 2. Main message loop
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Infof("[WS] Player %s disconnected unexpectedly: %v", claims.PlayerID, err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			client.Send(ServerMessage{Type: "error", Message: "invalid message format", Code: "bad_request"})
			continue
		}
		h.processMessage(ctx, client, gameID, msg)
	}
}

// forwardUpdates pushes committed records until the subscription ends.
func (h *Handler) forwardUpdates(ctx context.Context, cancel context.CancelFunc, client *Client, updates <-chan game.Record) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-updates:
			if !ok {
				client.Send(ServerMessage{Type: "error", Message: "game closed", Code: "game_closed"})
				client.Close()
				return
			}
			if err := h.sendGame(client, rec); err != nil {
				return
			}
		}
	}
}

func (h *Handler) processMessage(ctx context.Context, client *Client, gameID string, msg ClientMessage) {
	switch msg.Type {
	case "make_move":
		rec, err := h.games.GetGame(ctx, gameID)
		if err != nil {
			h.sendError(client, err)
			return
		}
		req := httptransport.MoveRequest{Column: msg.Column, Row: msg.Row, Cell: msg.Cell}
		move, problem := req.ToMove(rec.Policy)
		if problem != "" {
			client.Send(ServerMessage{Type: "error", Message: problem, Code: "bad_request"})
			return
		}
		if _, err := h.games.MakeMove(ctx, gameID, client.playerID, move); err != nil {
			h.sendError(client, err)
		}

	case "resign":
		if _, err := h.games.Resign(ctx, gameID, client.playerID); err != nil {
			h.sendError(client, err)
		}

	default:
		client.Send(ServerMessage{Type: "error", Message: "unknown message type " + msg.Type, Code: "bad_request"})
	}
}

func (h *Handler) sendGame(client *Client, rec game.Record) error {
	resp := httptransport.NewGameResponse(rec)
	return client.Send(ServerMessage{Type: "game_update", Game: &resp})
}

func (h *Handler) sendError(client *Client, err error) {
	status, code := httptransport.ErrorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Errorf("[WS] Player %s: %v", client.playerID, err)
		msg = "internal server error"
	}
	client.Send(ServerMessage{Type: "error", Message: msg, Code: code})
}
