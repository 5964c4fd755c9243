package main

import (
	"sync"
	"time"
)

// Seat is one of the two player slots in a game. An empty Socket means the
// seat is open.
type Seat struct {
	Socket   string `json:"socket"`
	Username string `json:"username"`
}

// Game is the authoritative record for one room's board game. LegalMoves is
// always the set of legal moves for WhoseTurn on the current Board.
type Game struct {
	PlayerBlue   Seat  `json:"player_blue"`
	PlayerPink   Seat  `json:"player_pink"`
	Board        Board `json:"board"`
	WhoseTurn    Color `json:"whose_turn"`
	LegalMoves   Board `json:"legal_moves"`
	LastMoveTime int64 `json:"last_move_time"`
}

func newGame() *Game {
	board := NewBoard()
	return &Game{
		Board:        board,
		WhoseTurn:    Pink,
		LegalMoves:   CalculateLegalMoves(Pink, &board),
		LastMoveTime: time.Now().UnixMilli(),
	}
}

// Seat returns the seat occupied for the given color.
func (g *Game) Seat(color Color) *Seat {
	if color == Blue {
		return &g.PlayerBlue
	}
	return &g.PlayerPink
}

// Seated reports whether socketID occupies either seat.
func (g *Game) Seated(socketID string) bool {
	return g.PlayerBlue.Socket == socketID || g.PlayerPink.Socket == socketID
}

// ApplyMove places the mover's token, flips captures, passes the turn, and
// recomputes legal moves for the new side. The caller must have validated
// turn and seat authority first.
func (g *Game) ApplyMove(color Color, row, col int) {
	g.Board[row][col] = color.Cell()
	FlipTokens(color, row, col, &g.Board)
	g.WhoseTurn = color.Opponent()
	g.LegalMoves = CalculateLegalMoves(g.WhoseTurn, &g.Board)
	g.LastMoveTime = time.Now().UnixMilli()
}

// GameRegistry owns all Game records, keyed by room name. Games are created
// lazily the first time an update is requested for a room, and removed a
// fixed retention window after reaching the terminal state.
type GameRegistry struct {
	mu        sync.Mutex
	games     map[string]*Game
	retention time.Duration
}

func newGameRegistry(retention time.Duration) *GameRegistry {
	return &GameRegistry{
		games:     make(map[string]*Game),
		retention: retention,
	}
}

// GetOrCreate returns the game for gameID, creating a fresh initial game if
// absent. The second return reports whether a new record was created.
func (gr *GameRegistry) GetOrCreate(gameID string) (*Game, bool) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	if g, ok := gr.games[gameID]; ok {
		return g, false
	}
	g := newGame()
	gr.games[gameID] = g
	return g, true
}

// Get returns the game for gameID, or nil if absent.
func (gr *GameRegistry) Get(gameID string) *Game {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	return gr.games[gameID]
}

// Expire removes the game for gameID. Idempotent.
func (gr *GameRegistry) Expire(gameID string) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	delete(gr.games, gameID)
}

// ScheduleExpiry removes the game after the retention window elapses.
// Best-effort; expiring an already-removed game is a no-op.
func (gr *GameRegistry) ScheduleExpiry(gameID string) {
	time.AfterFunc(gr.retention, func() {
		gr.Expire(gameID)
	})
}
