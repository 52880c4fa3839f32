package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	// BoardSize is the side length of the gomoku grid.
	BoardSize = 15

	// winLength is the run of same-player stones that wins the game.
	winLength = 5
)

const (
	EmptyCell = 0
	PlayerOne = 1
	PlayerTwo = 2
)

// lineDirections are the four line orientations through a cell:
// horizontal, vertical and both diagonals.
var lineDirections = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

// Board is a fixed 15x15 grid. A cell holds EmptyCell until a player
// occupies it and never reverts afterwards.
type Board [BoardSize][BoardSize]int

// Place - puts the player's stone at (row, col).
func (that *Board) Place(row, col, player int) error {
	if !inBounds(row, col) {
		return fmt.Errorf("%w: (%d,%d)", apperror.ErrOutOfBounds, row, col)
	}

	if that[row][col] != EmptyCell {
		return fmt.Errorf("%w: (%d,%d)", apperror.ErrCellOccupied, row, col)
	}

	that[row][col] = player

	return nil
}

// HasWinningLine - reports whether the stone just placed at (row, col)
// completes a run of five or more. It only scans the four lines through
// the placed cell, never the whole board, so it must be called right
// after a successful Place with the same coordinates and player.
func (that *Board) HasWinningLine(row, col, player int) bool {
	for _, dir := range lineDirections {
		count := 1

		count += that.countRun(row, col, dir[0], dir[1], player)
		count += that.countRun(row, col, -dir[0], -dir[1], player)

		if count >= winLength {
			return true
		}
	}

	return false
}

// countRun - counts contiguous same-player stones extending from
// (row, col) in the given direction, excluding the origin itself.
func (that *Board) countRun(row, col, dr, dc, player int) int {
	count := 0

	r, c := row+dr, col+dc
	for inBounds(r, c) && that[r][c] == player {
		count++
		r += dr
		c += dc
	}

	return count
}

func inBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}
