package registry

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// PlayerInfo is one player slot as presented to clients.
type PlayerInfo struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// RoomInfo describes a freshly created waiting room.
type RoomInfo struct {
	RoomID       string
	PlayerName   string
	PlayerNumber int
}

// JoinInfo carries everything the gateway needs to announce a started
// game to both participants.
type JoinInfo struct {
	RoomID        string
	Players       []PlayerInfo
	ConnIDs       []string
	Board         entity.Board
	CurrentPlayer int
}

// MoveInfo is an accepted move plus the broadcast targets. PlayerNames
// and MoveCount ride along so a finished game can be archived without
// touching the session again.
type MoveInfo struct {
	RoomID      string
	Move        entity.Move
	ConnIDs     []string
	PlayerNames []string
	MoveCount   int
}

// RestartInfo is the cleared state after a rematch request.
type RestartInfo struct {
	RoomID        string
	Board         entity.Board
	CurrentPlayer int
	ConnIDs       []string
}

// Registry is the process-wide map of live rooms. Its own lock guards
// only the three indexes and is held briefly; game-state transitions
// serialize on the per-session lock, so rooms never block each other.
type Registry struct {
	mu sync.RWMutex

	sessions         map[string]*entity.Session
	waiting          map[string]struct{}
	connectionToRoom map[string]string
}

func New() *Registry {
	return &Registry{
		sessions:         make(map[string]*entity.Session),
		waiting:          make(map[string]struct{}),
		connectionToRoom: make(map[string]string),
	}
}

// CreateRoom - opens a new waiting room with the caller as player one.
func (that *Registry) CreateRoom(connID, name string) (*RoomInfo, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	roomID, err := that.newRoomID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate room id: %w", err)
	}

	session := entity.NewSession(roomID)
	if _, err = session.AddParticipant(connID, name); err != nil {
		return nil, fmt.Errorf("failed to seat creator: %w", err)
	}

	that.sessions[roomID] = session
	that.waiting[roomID] = struct{}{}
	that.connectionToRoom[connID] = roomID

	return &RoomInfo{
		RoomID:       roomID,
		PlayerName:   name,
		PlayerNumber: entity.PlayerOne,
	}, nil
}

// JoinRoom - seats the caller as player two in a waiting room. A room
// that never existed and a room that is already full fail identically:
// neither is in the waiting set.
func (that *Registry) JoinRoom(roomID, connID, name string) (*JoinInfo, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.waiting[roomID]; !ok {
		return nil, fmt.Errorf("%w: room %s", apperror.ErrRoomNotFound, roomID)
	}

	session := that.sessions[roomID]

	if _, err := session.AddParticipant(connID, name); err != nil {
		return nil, fmt.Errorf("failed to seat joiner: %w", err)
	}

	delete(that.waiting, roomID)
	that.connectionToRoom[connID] = roomID

	board, participants, turn, _ := session.Snapshot()

	return &JoinInfo{
		RoomID:        roomID,
		Players:       playerInfos(participants),
		ConnIDs:       connIDs(participants),
		Board:         board,
		CurrentPlayer: turn,
	}, nil
}

// ApplyMove - resolves the caller's room and applies the placement.
func (that *Registry) ApplyMove(connID string, row, col int) (*MoveInfo, error) {
	session, roomID, err := that.sessionFor(connID)
	if err != nil {
		return nil, err
	}

	move, err := session.ApplyMove(connID, row, col)
	if err != nil {
		return nil, err
	}

	_, participants, _, _ := session.Snapshot()

	return &MoveInfo{
		RoomID:      roomID,
		Move:        *move,
		ConnIDs:     connIDs(participants),
		PlayerNames: playerNames(participants),
		MoveCount:   move.MoveCount,
	}, nil
}

// Restart - clears the caller's room for a rematch.
func (that *Registry) Restart(connID string) (*RestartInfo, error) {
	session, roomID, err := that.sessionFor(connID)
	if err != nil {
		return nil, err
	}

	if err = session.Restart(); err != nil {
		return nil, err
	}

	board, participants, turn, _ := session.Snapshot()

	return &RestartInfo{
		RoomID:        roomID,
		Board:         board,
		CurrentPlayer: turn,
		ConnIDs:       connIDs(participants),
	}, nil
}

// Leave - removes the caller from its room and destroys the room.
// Returns the remaining participant's connection id, if one is left to
// notify. Safe to call for connections that are in no room.
func (that *Registry) Leave(connID string) (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	roomID, ok := that.connectionToRoom[connID]
	if !ok {
		return "", false
	}

	session := that.sessions[roomID]
	remaining, hasRemaining := session.RemoveParticipant(connID)

	that.teardownLocked(roomID)
	delete(that.connectionToRoom, connID)

	if !hasRemaining {
		return "", false
	}

	return remaining.ConnID, true
}

// ResolveRoom - reverse lookup from connection to room.
func (that *Registry) ResolveRoom(connID string) (string, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	roomID, ok := that.connectionToRoom[connID]

	return roomID, ok
}

// Teardown - removes a room and every reverse mapping pointing at it.
func (that *Registry) Teardown(roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.teardownLocked(roomID)
}

// teardownLocked removes the session, its waiting entry and the reverse
// mappings of all its participants. Caller holds the write lock.
func (that *Registry) teardownLocked(roomID string) {
	session, ok := that.sessions[roomID]
	if !ok {
		return
	}

	_, participants, _, _ := session.Snapshot()
	for _, participant := range participants {
		delete(that.connectionToRoom, participant.ConnID)
	}

	delete(that.sessions, roomID)
	delete(that.waiting, roomID)
}

func (that *Registry) sessionFor(connID string) (*entity.Session, string, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	roomID, ok := that.connectionToRoom[connID]
	if !ok {
		return nil, "", fmt.Errorf("%w: connection %s", apperror.ErrRoomNotFound, connID)
	}

	return that.sessions[roomID], roomID, nil
}

func (that *Registry) newRoomID() (string, error) {
	for {
		roomID, err := generateRoomID()
		if err != nil {
			return "", err
		}

		if _, exists := that.sessions[roomID]; !exists {
			return roomID, nil
		}
	}
}

func playerInfos(participants []entity.Participant) []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(participants))
	for i, participant := range participants {
		infos = append(infos, PlayerInfo{Number: i + 1, Name: participant.Name})
	}

	return infos
}

func playerNames(participants []entity.Participant) []string {
	names := make([]string, 0, len(participants))
	for _, participant := range participants {
		names = append(names, participant.Name)
	}

	return names
}

func connIDs(participants []entity.Participant) []string {
	ids := make([]string, 0, len(participants))
	for _, participant := range participants {
		ids = append(ids, participant.ConnID)
	}

	return ids
}
