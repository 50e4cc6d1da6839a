package websocket

import (
	httptransport "github.com/connectfour/backend/internal/transport/http"
)

// ClientMessage is anything a client may send: "init", "make_move" or "resign".
type ClientMessage struct {
	Type   string `json:"type"`
	JWT    string `json:"jwt,omitempty"`
	Column *int   `json:"column,omitempty"`
	Row    *int   `json:"row,omitempty"`
	Cell   *int   `json:"cell,omitempty"`
}

// ServerMessage is "game_update" with the current game, or "error".
type ServerMessage struct {
	Type    string                      `json:"type"`
	Game    *httptransport.GameResponse `json:"game,omitempty"`
	Message string                      `json:"message,omitempty"`
	Code    string                      `json:"code,omitempty"`
}
