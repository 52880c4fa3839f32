package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/registry"
)

// Inbound actions.
const (
	actionCreateRoom = "create_room"
	actionJoinRoom   = "join_room"
	actionMakeMove   = "make_move"
	actionRestart    = "restart_game"
	actionLeaveRoom  = "leave_room"
)

// Outbound actions.
const (
	actionRoomCreated          = "room_created"
	actionGameStart            = "game_start"
	actionMoveMade             = "move_made"
	actionGameRestarted        = "game_restarted"
	actionOpponentLeft         = "opponent_left"
	actionOpponentDisconnected = "opponent_disconnected"
	actionJoinError            = "join_error"
)

// Message is the wire envelope: a named event plus its payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CreateRoomRequest struct {
	PlayerName string `json:"playerName,omitempty"`
}

type JoinRoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName,omitempty"`
}

type MoveRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type RoomCreatedPayload struct {
	RoomID       string `json:"roomId"`
	PlayerName   string `json:"playerName"`
	PlayerNumber int    `json:"playerNumber"`
}

type GameStartPayload struct {
	RoomID        string                `json:"roomId"`
	Players       []registry.PlayerInfo `json:"players"`
	YourNumber    int                   `json:"yourNumber"`
	Board         entity.Board          `json:"board"`
	CurrentPlayer int                   `json:"currentPlayer"`
}

// MoveMadePayload mirrors the source protocol: winner is always present
// (null while the game is open) and currentPlayer disappears once the
// game is won.
type MoveMadePayload struct {
	Row           int  `json:"row"`
	Col           int  `json:"col"`
	Player        int  `json:"player"`
	CurrentPlayer *int `json:"currentPlayer,omitempty"`
	Winner        *int `json:"winner"`
}

type GameRestartedPayload struct {
	Board         entity.Board `json:"board"`
	CurrentPlayer int          `json:"currentPlayer"`
}

type JoinErrorPayload struct {
	Message string `json:"message"`
}
