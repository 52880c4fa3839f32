package entity

import (
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	StatusWaiting  = "waiting"
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

const maxParticipants = 2

// Participant binds a transport connection identity to a player slot.
// Slot order determines the player number: first joined is 1, second is 2.
type Participant struct {
	ConnID string
	Name   string
}

// Move is the snapshot of one accepted placement, carried back to the
// gateway for broadcast.
type Move struct {
	Row    int
	Col    int
	Player int
	// NextTurn is the player number allowed to move next, or 0 once a
	// winner is set.
	NextTurn int
	// Winner is the winning player number, or 0 while the game is open.
	Winner int
	// MoveCount is the number of accepted moves including this one.
	MoveCount int
	// StartedAt is when the current game on this board began.
	StartedAt time.Time
}

// Session is one game room: up to two participants, the board and the
// turn state. All operations lock the session, so transitions on the
// same room are serialized while rooms stay independent of each other.
type Session struct {
	mu sync.Mutex

	ID           string
	Participants []Participant
	Board        Board
	Turn         int
	Winner       int
	Status       string

	MoveCount int
	StartedAt time.Time
}

func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Turn:      PlayerOne,
		Status:    StatusWaiting,
		StartedAt: time.Now(),
	}
}

// AddParticipant - appends a participant and returns the assigned player
// number. The second join promotes the session from waiting to ongoing.
func (that *Session) AddParticipant(connID, name string) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.Participants) >= maxParticipants {
		return 0, fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.ID)
	}

	that.Participants = append(that.Participants, Participant{ConnID: connID, Name: name})

	if len(that.Participants) == maxParticipants {
		that.Status = StatusOngoing
	}

	return len(that.Participants), nil
}

// ApplyMove - validates and applies a placement by the given connection.
// The caller's player number is its position in the participant list.
func (that *Session) ApplyMove(connID string, row, col int) (*Move, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := that.playerNumber(connID)
	if player == 0 {
		return nil, fmt.Errorf("%w: connection %s", apperror.ErrRoomNotFound, connID)
	}

	if that.Winner != 0 {
		return nil, apperror.ErrGameOver
	}

	if player != that.Turn {
		return nil, apperror.ErrNotYourTurn
	}

	if err := that.Board.Place(row, col, player); err != nil {
		return nil, err
	}

	that.MoveCount++

	move := &Move{Row: row, Col: col, Player: player, MoveCount: that.MoveCount, StartedAt: that.StartedAt}

	if that.Board.HasWinningLine(row, col, player) {
		that.Winner = player
		that.Status = StatusFinished
		move.Winner = player

		return move, nil
	}

	that.Turn = otherPlayer(player)
	move.NextTurn = that.Turn

	return move, nil
}

// Restart - clears the board, turn and winner for a rematch. The room
// must still hold both participants; a room with a departed player is
// torn down, never restarted.
func (that *Session) Restart() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.Participants) != maxParticipants {
		return fmt.Errorf("%w: room %s", apperror.ErrNotEnoughPlayers, that.ID)
	}

	that.Board = Board{}
	that.Turn = PlayerOne
	that.Winner = 0
	that.Status = StatusOngoing
	that.MoveCount = 0
	that.StartedAt = time.Now()

	return nil
}

// RemoveParticipant - drops the given connection from the room and
// returns the remaining participant, if any, so the caller can notify
// them before destroying the session.
func (that *Session) RemoveParticipant(connID string) (*Participant, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	kept := that.Participants[:0]

	for i := range that.Participants {
		if that.Participants[i].ConnID == connID {
			continue
		}

		kept = append(kept, that.Participants[i])
	}

	that.Participants = kept

	if len(that.Participants) > 0 {
		remaining := that.Participants[0]
		return &remaining, true
	}

	return nil, false
}

// Snapshot - returns a consistent copy of the broadcast-relevant state.
func (that *Session) Snapshot() (Board, []Participant, int, int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	participants := make([]Participant, len(that.Participants))
	copy(participants, that.Participants)

	return that.Board, participants, that.Turn, that.Winner
}

// IsWaiting - reports whether the session still awaits a second player.
func (that *Session) IsWaiting() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.Status == StatusWaiting
}

func (that *Session) playerNumber(connID string) int {
	for i := range that.Participants {
		if that.Participants[i].ConnID == connID {
			return i + 1
		}
	}

	return 0
}

func otherPlayer(player int) int {
	if player == PlayerOne {
		return PlayerTwo
	}

	return PlayerOne
}
