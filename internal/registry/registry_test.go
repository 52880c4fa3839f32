package registry

import (
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

var roomIDPattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

func TestRegistry_CreateRoom(t *testing.T) {
	t.Run("CreateRoom", func(t *testing.T) {
		// Given: an empty registry
		reg := New()

		// When: Alice creates a room
		info, err := reg.CreateRoom("conn-alice", "Alice")

		// Then: she is player one of a fresh waiting room
		require.NoError(t, err)
		require.Equal(t, "Alice", info.PlayerName)
		require.Equal(t, 1, info.PlayerNumber)
		require.Regexp(t, roomIDPattern, info.RoomID)

		// Then: her connection resolves to the room
		roomID, ok := reg.ResolveRoom("conn-alice")
		require.True(t, ok)
		require.Equal(t, info.RoomID, roomID)
	})

	t.Run("Room ids are unique under concurrent creation", func(t *testing.T) {
		// Given: an empty registry
		reg := New()

		const rooms = 64

		// When: many connections create rooms at once
		ids := make(chan string, rooms)
		var wg sync.WaitGroup
		for i := 0; i < rooms; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				info, err := reg.CreateRoom(fmt.Sprintf("conn-%d", n), "player")
				assert.NoError(t, err)
				ids <- info.RoomID
			}(i)
		}
		wg.Wait()
		close(ids)

		// Then: every room id is well formed and distinct
		seen := make(map[string]struct{}, rooms)
		for id := range ids {
			require.Regexp(t, roomIDPattern, id)
			seen[id] = struct{}{}
		}
		require.Len(t, seen, rooms)
	})
}

func TestRegistry_JoinRoom(t *testing.T) {
	t.Run("Join starts the game for both players", func(t *testing.T) {
		// Given: Alice waiting in a room
		reg := New()
		created, err := reg.CreateRoom("conn-alice", "Alice")
		require.NoError(t, err)

		// When: Bob joins it
		info, err := reg.JoinRoom(created.RoomID, "conn-bob", "Bob")

		// Then: both slots, the empty board and player one's turn come back
		require.NoError(t, err)
		require.Equal(t, created.RoomID, info.RoomID)
		require.Equal(t, []PlayerInfo{{Number: 1, Name: "Alice"}, {Number: 2, Name: "Bob"}}, info.Players)
		require.Equal(t, []string{"conn-alice", "conn-bob"}, info.ConnIDs)
		require.Equal(t, entity.Board{}, info.Board)
		require.Equal(t, 1, info.CurrentPlayer)

		// Then: Bob's connection resolves to the room
		roomID, ok := reg.ResolveRoom("conn-bob")
		require.True(t, ok)
		require.Equal(t, created.RoomID, roomID)
	})

	t.Run("Nonexistent and full rooms fail identically", func(t *testing.T) {
		// Given: a room that is already full
		reg := New()
		created, err := reg.CreateRoom("conn-alice", "Alice")
		require.NoError(t, err)
		_, err = reg.JoinRoom(created.RoomID, "conn-bob", "Bob")
		require.NoError(t, err)

		// When: a third player targets the full room
		_, errFull := reg.JoinRoom(created.RoomID, "conn-eve", "Eve")

		// When: another player targets a room that never existed
		_, errMissing := reg.JoinRoom("NOSUCHRM", "conn-mallory", "Mallory")

		// Then: both get the same error classification
		require.ErrorIs(t, errFull, apperror.ErrRoomNotFound)
		require.ErrorIs(t, errMissing, apperror.ErrRoomNotFound)
	})
}

func TestRegistry_ApplyMove(t *testing.T) {
	startGame := func(t *testing.T) (*Registry, string) {
		t.Helper()

		reg := New()
		created, err := reg.CreateRoom("conn-alice", "Alice")
		require.NoError(t, err)
		_, err = reg.JoinRoom(created.RoomID, "conn-bob", "Bob")
		require.NoError(t, err)

		return reg, created.RoomID
	}

	t.Run("Accepted move toggles the turn", func(t *testing.T) {
		// Given: a started game
		reg, _ := startGame(t)

		// When: Alice opens at the center
		info, err := reg.ApplyMove("conn-alice", 7, 7)

		// Then: the move is broadcast-ready with the turn toggled
		require.NoError(t, err)
		require.Equal(t, 7, info.Move.Row)
		require.Equal(t, 7, info.Move.Col)
		require.Equal(t, 1, info.Move.Player)
		require.Equal(t, 2, info.Move.NextTurn)
		require.Equal(t, []string{"conn-alice", "conn-bob"}, info.ConnIDs)
	})

	t.Run("Occupied cell leaves the game untouched", func(t *testing.T) {
		// Given: Alice has taken (7,7)
		reg, _ := startGame(t)
		_, err := reg.ApplyMove("conn-alice", 7, 7)
		require.NoError(t, err)

		// When: Bob targets the same cell
		_, err = reg.ApplyMove("conn-bob", 7, 7)
		require.ErrorIs(t, err, apperror.ErrCellOccupied)

		// Then: it is still Bob's turn and his real move succeeds
		info, err := reg.ApplyMove("conn-bob", 8, 8)
		require.NoError(t, err)
		require.Equal(t, 2, info.Move.Player)
	})

	t.Run("Win reports the archive fields", func(t *testing.T) {
		// Given: a started game
		reg, roomID := startGame(t)

		// When: Alice lays five in a row with Bob answering elsewhere
		for col := 0; col < 4; col++ {
			_, err := reg.ApplyMove("conn-alice", 0, col)
			require.NoError(t, err)
			_, err = reg.ApplyMove("conn-bob", 1, col)
			require.NoError(t, err)
		}
		info, err := reg.ApplyMove("conn-alice", 0, 4)

		// Then: the winning move carries everything the archive needs
		require.NoError(t, err)
		require.Equal(t, 1, info.Move.Winner)
		require.Equal(t, roomID, info.RoomID)
		require.Equal(t, []string{"Alice", "Bob"}, info.PlayerNames)
		require.Equal(t, 9, info.MoveCount)
		require.False(t, info.Move.StartedAt.IsZero())

		// Then: further moves are rejected
		_, err = reg.ApplyMove("conn-bob", 10, 10)
		require.ErrorIs(t, err, apperror.ErrGameOver)
	})

	t.Run("Error when the connection is in no room", func(t *testing.T) {
		reg := New()

		_, err := reg.ApplyMove("conn-ghost", 0, 0)

		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRegistry_Restart(t *testing.T) {
	t.Run("Restart returns a cleared game", func(t *testing.T) {
		// Given: a started game with one move played
		reg := New()
		created, err := reg.CreateRoom("conn-alice", "Alice")
		require.NoError(t, err)
		_, err = reg.JoinRoom(created.RoomID, "conn-bob", "Bob")
		require.NoError(t, err)
		_, err = reg.ApplyMove("conn-alice", 7, 7)
		require.NoError(t, err)

		// When: Bob asks for a rematch
		info, err := reg.Restart("conn-bob")

		// Then: the board is empty and player one moves first again
		require.NoError(t, err)
		require.Equal(t, entity.Board{}, info.Board)
		require.Equal(t, 1, info.CurrentPlayer)
		require.Equal(t, []string{"conn-alice", "conn-bob"}, info.ConnIDs)
	})

	t.Run("Error on restarting a waiting room", func(t *testing.T) {
		// Given: a room still waiting for a second player
		reg := New()
		_, err := reg.CreateRoom("conn-alice", "Alice")
		require.NoError(t, err)

		// When: the creator asks for a restart
		_, err = reg.Restart("conn-alice")

		// Then: the two-participant guard rejects it
		assert.ErrorIs(t, err, apperror.ErrNotEnoughPlayers)
	})
}

func TestRegistry_Leave(t *testing.T) {
	t.Run("Leave tears the room down and reports the opponent", func(t *testing.T) {
		// Given: a started game
		reg := New()
		created, err := reg.CreateRoom("conn-alice", "Alice")
		require.NoError(t, err)
		_, err = reg.JoinRoom(created.RoomID, "conn-bob", "Bob")
		require.NoError(t, err)

		// When: Alice leaves
		remainingID, ok := reg.Leave("conn-alice")

		// Then: Bob is reported for notification
		require.True(t, ok)
		require.Equal(t, "conn-bob", remainingID)

		// Then: neither former participant resolves to a room anymore
		_, ok = reg.ResolveRoom("conn-alice")
		require.False(t, ok)
		_, ok = reg.ResolveRoom("conn-bob")
		require.False(t, ok)

		// Then: the room cannot be joined again
		_, err = reg.JoinRoom(created.RoomID, "conn-eve", "Eve")
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Leaving a waiting room reports nobody", func(t *testing.T) {
		// Given: a waiting room
		reg := New()
		created, err := reg.CreateRoom("conn-alice", "Alice")
		require.NoError(t, err)

		// When: the creator leaves
		remainingID, ok := reg.Leave("conn-alice")

		// Then: there is nobody to notify and the room is gone
		require.False(t, ok)
		require.Empty(t, remainingID)

		_, err = reg.JoinRoom(created.RoomID, "conn-bob", "Bob")
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Leave is a no-op for unknown connections", func(t *testing.T) {
		reg := New()

		remainingID, ok := reg.Leave("conn-ghost")

		assert.False(t, ok)
		assert.Empty(t, remainingID)
	})
}
