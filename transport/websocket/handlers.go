package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/registry"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
)

const archiveTimeout = 5 * time.Second

func (that *Server) handleCreateRoom(connID string, msg *Message) error {
	log := that.logger.With("method", "handleCreateRoom", "connID", connID)

	var payloadReq CreateRoomRequest
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	name := playerNameOrDefault(payloadReq.PlayerName, connID)

	info, err := that.registry.CreateRoom(connID, name)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	that.sendTo(connID, actionRoomCreated, RoomCreatedPayload{
		RoomID:       info.RoomID,
		PlayerName:   info.PlayerName,
		PlayerNumber: info.PlayerNumber,
	})

	log.Info("room created", "roomID", info.RoomID, "playerName", name)

	return nil
}

func (that *Server) handleJoinRoom(connID string, msg *Message) error {
	log := that.logger.With("method", "handleJoinRoom", "connID", connID)

	var payloadReq JoinRoomRequest
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	roomID := strings.ToUpper(strings.TrimSpace(payloadReq.RoomID))
	name := playerNameOrDefault(payloadReq.PlayerName, connID)

	info, err := that.registry.JoinRoom(roomID, connID, name)
	if err != nil {
		log.Info("join rejected", "roomID", roomID, "error", err)
		that.sendTo(connID, actionJoinError, JoinErrorPayload{Message: "room not found or full"})

		return nil
	}

	// Each participant gets the same started-game view with their own
	// player number filled in.
	for i, participantID := range info.ConnIDs {
		that.sendTo(participantID, actionGameStart, GameStartPayload{
			RoomID:        info.RoomID,
			Players:       info.Players,
			YourNumber:    i + 1,
			Board:         info.Board,
			CurrentPlayer: info.CurrentPlayer,
		})
	}

	log.Info("player joined", "roomID", roomID, "playerName", name)

	return nil
}

func (that *Server) handleMakeMove(connID string, msg *Message) error {
	log := that.logger.With("method", "handleMakeMove", "connID", connID)

	var payloadReq MoveRequest
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	info, err := that.registry.ApplyMove(connID, payloadReq.Row, payloadReq.Col)
	if err != nil {
		// Out-of-turn, finished-game and bad-cell moves are dropped
		// without a reply; the client is trusted to stay in sync.
		log.Debug("move rejected", "row", payloadReq.Row, "col", payloadReq.Col, "error", err)
		return nil
	}

	payloadResp := MoveMadePayload{
		Row:    info.Move.Row,
		Col:    info.Move.Col,
		Player: info.Move.Player,
	}

	if info.Move.Winner != 0 {
		winner := info.Move.Winner
		payloadResp.Winner = &winner
	} else {
		nextTurn := info.Move.NextTurn
		payloadResp.CurrentPlayer = &nextTurn
	}

	that.broadcast(info.ConnIDs, actionMoveMade, payloadResp)

	if info.Move.Winner != 0 {
		go that.archiveMatch(info)
	}

	return nil
}

func (that *Server) handleRestartGame(connID string, _ *Message) error {
	log := that.logger.With("method", "handleRestartGame", "connID", connID)

	info, err := that.registry.Restart(connID)
	if err != nil {
		log.Debug("restart rejected", "error", err)
		return nil
	}

	that.broadcast(info.ConnIDs, actionGameRestarted, GameRestartedPayload{
		Board:         info.Board,
		CurrentPlayer: info.CurrentPlayer,
	})

	log.Info("game restarted", "roomID", info.RoomID)

	return nil
}

func (that *Server) handleLeaveRoom(connID string, _ *Message) error {
	log := that.logger.With("method", "handleLeaveRoom", "connID", connID)

	remainingID, ok := that.registry.Leave(connID)
	if !ok {
		return nil
	}

	that.sendTo(remainingID, actionOpponentLeft, struct{}{})

	log.Info("player left room")

	return nil
}

// archiveMatch - records a finished game, fire-and-forget.
func (that *Server) archiveMatch(info *registry.MoveInfo) {
	if that.matches == nil {
		return
	}

	log := that.logger.With("method", "archiveMatch", "roomID", info.RoomID)

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	record := &repository.MatchRecord{
		RoomID:     info.RoomID,
		Players:    info.PlayerNames,
		Winner:     info.Move.Winner,
		Moves:      info.MoveCount,
		StartedAt:  info.Move.StartedAt,
		FinishedAt: time.Now(),
	}

	if err := that.matches.CreateOrUpdate(ctx, record); err != nil {
		log.Error("failed to archive match", "error", err)
		return
	}

	log.Info("match archived", "winner", info.Move.Winner)
}

// playerNameOrDefault derives a display name from the connection id when
// the client did not choose one.
func playerNameOrDefault(name, connID string) string {
	if name != "" {
		return name
	}

	short := connID
	if len(short) > 4 {
		short = short[:4]
	}

	return "Player-" + short
}
