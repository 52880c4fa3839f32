package apperror

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found or full")
	ErrRoomFull         = errors.New("room already has two players")
	ErrNotEnoughPlayers = errors.New("room does not have two players")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrGameOver         = errors.New("game is already over")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrOutOfBounds      = errors.New("cell is out of bounds")
	ErrMatchNotFound    = errors.New("match not found")
)
