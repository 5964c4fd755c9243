package main

// Board engine for the Othello variant. Pure functions over an 8x8 grid;
// all state mutation happens through FlipTokens on a caller-owned board.

const boardSize = 8

// Cell values serialize to the single-character codes the game clients
// render (" ", "b", "p").
type Cell string

const (
	Empty    Cell = " "
	BlueCell Cell = "b"
	PinkCell Cell = "p"
)

// Color is a turn/seat color as it appears on the wire.
type Color string

const (
	Blue Color = "blue"
	Pink Color = "pink"
)

func (c Color) Cell() Cell {
	if c == Blue {
		return BlueCell
	}
	return PinkCell
}

func (c Color) Opponent() Color {
	if c == Blue {
		return Pink
	}
	return Blue
}

type Board [boardSize][boardSize]Cell

var directions = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// NewBoard returns the standard starting position with the four-token
// central cluster.
func NewBoard() Board {
	var b Board
	for row := range b {
		for col := range b[row] {
			b[row][col] = Empty
		}
	}
	b[3][3] = BlueCell
	b[3][4] = PinkCell
	b[4][3] = PinkCell
	b[4][4] = BlueCell
	return b
}

func inBounds(r, c int) bool {
	return r >= 0 && r < boardSize && c >= 0 && c < boardSize
}

// lineMatch walks from (r, c) in direction (dr, dc) and reports whether the
// contiguous run of opposing cells starting there is terminated by a cell of
// the given color before falling off the board or hitting an empty cell.
func lineMatch(who Cell, dr, dc, r, c int, b *Board) bool {
	for {
		if b[r][c] == who {
			return true
		}
		if b[r][c] == Empty {
			return false
		}
		if !inBounds(r+dr, c+dc) {
			return false
		}
		r += dr
		c += dc
	}
}

// adjacentSupport reports whether placing at (r, c) is backed in direction
// (dr, dc): the adjacent cell holds the opposing color, there is room beyond
// it, and the run beyond terminates in the mover's color.
func adjacentSupport(who Color, dr, dc, r, c int, b *Board) bool {
	other := who.Opponent().Cell()

	if !inBounds(r+dr, c+dc) {
		return false
	}
	if b[r+dr][c+dc] != other {
		return false
	}
	if !inBounds(r+2*dr, c+2*dc) {
		return false
	}

	return lineMatch(who.Cell(), dr, dc, r+2*dr, c+2*dc, b)
}

// CalculateLegalMoves returns a grid marking every empty cell where the given
// color has adjacent support in at least one of the eight directions.
func CalculateLegalMoves(who Color, b *Board) Board {
	var legal Board
	for row := range legal {
		for col := range legal[row] {
			legal[row][col] = Empty
		}
	}

	for row := 0; row < boardSize; row++ {
		for col := 0; col < boardSize; col++ {
			if b[row][col] != Empty {
				continue
			}
			for _, d := range directions {
				if adjacentSupport(who, d[0], d[1], row, col, b) {
					legal[row][col] = who.Cell()
					break
				}
			}
		}
	}
	return legal
}

// flipLine converts the bracketed run beyond (row, col) in direction
// (dr, dc) to the mover's color. A run is bracketed when it consists of
// opposing cells terminated by the mover's color before the board edge or an
// empty cell; anything else is left untouched.
func flipLine(who Cell, dr, dc, row, col int, b *Board) {
	// First pass: find the bracketing cell.
	r, c := row+dr, col+dc
	for {
		if !inBounds(r, c) {
			return
		}
		if b[r][c] == Empty {
			return
		}
		if b[r][c] == who {
			break
		}
		r += dr
		c += dc
	}

	// Second pass: flip everything between the move and the bracket.
	for fr, fc := row+dr, col+dc; fr != r || fc != c; fr, fc = fr+dr, fc+dc {
		b[fr][fc] = who
	}
}

// FlipTokens applies capture-flips in all eight directions for a token just
// placed at (row, col). The caller is responsible for only invoking this on
// legal moves; directions without a bracketing run are no-ops.
func FlipTokens(who Color, row, col int, b *Board) {
	for _, d := range directions {
		flipLine(who.Cell(), d[0], d[1], row, col, b)
	}
}

// OccupiedCount returns the number of non-empty cells.
func (b *Board) OccupiedCount() int {
	count := 0
	for row := range b {
		for col := range b[row] {
			if b[row][col] != Empty {
				count++
			}
		}
	}
	return count
}

// CountCells returns the number of cells holding the given value.
func (b *Board) CountCells(cell Cell) int {
	count := 0
	for row := range b {
		for col := range b[row] {
			if b[row][col] == cell {
				count++
			}
		}
	}
	return count
}

// Full reports the terminal state: every cell occupied.
func (b *Board) Full() bool {
	return b.OccupiedCount() == boardSize*boardSize
}
