package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testHub() *Hub {
	cfg := &Config{
		gameRetention: 30 * time.Millisecond,
	}
	return newHub(cfg)
}

// connect registers a test client with the hub without a real websocket.
// Handlers only touch the send channel, so conn stays nil.
func connect(h *Hub, id string) *Client {
	c := &Client{
		send:     make(chan any, 256),
		socketID: id,
	}
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	return c
}

func drain(c *Client) []any {
	var msgs []any
	for {
		select {
		case m := <-c.send:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func received[T any](msgs []any) []T {
	var out []T
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func join(h *Hub, c *Client, room, username string) {
	h.handleJoinRoom(c, ClientMessage{
		Type:     "join_room",
		Room:     room,
		Username: username,
	})
}

func playToken(h *Hub, c *Client, row, col int, color Color) {
	h.handlePlayToken(c, ClientMessage{
		Type:   "play_token",
		Row:    &row,
		Column: &col,
		Color:  color,
	})
}

func TestJoinRoomValidation(t *testing.T) {
	h := testHub()
	c := connect(h, "c1")

	t.Run("missing room", func(t *testing.T) {
		h.handleJoinRoom(c, ClientMessage{Type: "join_room", Username: "alice"})

		responses := received[JoinRoomResponse](drain(c))
		require.Len(t, responses, 1)
		require.Equal(t, resultFail, responses[0].Result)
		require.NotEmpty(t, responses[0].Message)
	})

	t.Run("missing username", func(t *testing.T) {
		h.handleJoinRoom(c, ClientMessage{Type: "join_room", Room: "R1"})

		responses := received[JoinRoomResponse](drain(c))
		require.Len(t, responses, 1)
		require.Equal(t, resultFail, responses[0].Result)

		require.Nil(t, h.sessions.Lookup("c1"))
		require.Nil(t, h.memberOf("R1", "c1"))
	})
}

func TestJoinRoomAnnouncesMembers(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	join(h, c1, lobbyRoom, "alice")
	drain(c1)

	join(h, c2, lobbyRoom, "bob")

	// The second join announces both members to the whole room.
	responses := received[JoinRoomResponse](drain(c1))
	require.Len(t, responses, 2)

	usernames := []string{responses[0].Username, responses[1].Username}
	require.ElementsMatch(t, []string{"alice", "bob"}, usernames)
	for _, r := range responses {
		require.Equal(t, resultSuccess, r.Result)
		require.Equal(t, lobbyRoom, r.Room)
		require.Equal(t, 2, r.Count)
	}

	// The Lobby never hosts a game.
	require.Nil(t, h.games.Get(lobbyRoom))
}

func TestSeatAssignment(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")
	c3 := connect(h, "c3")

	join(h, c1, "R1", "alice")
	join(h, c2, "R1", "bob")

	game := h.games.Get("R1")
	require.NotNil(t, game)
	require.Equal(t, Seat{Socket: "c1", Username: "alice"}, game.PlayerBlue)
	require.Equal(t, Seat{Socket: "c2", Username: "bob"}, game.PlayerPink)

	// A third member finds both seats taken and is ejected from the room.
	join(h, c3, "R1", "carol")

	require.Nil(t, h.memberOf("R1", "c3"))
	require.NotNil(t, h.memberOf("R1", "c1"))
	require.NotNil(t, h.memberOf("R1", "c2"))
	require.False(t, game.Seated("c3"))
}

func TestReconcileIdempotent(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	join(h, c1, "R1", "alice")
	join(h, c2, "R1", "bob")

	game := h.games.Get("R1")
	blue, pink := game.PlayerBlue, game.PlayerPink
	drain(c1)
	drain(c2)

	h.sendGameUpdate("R1", "no changes")

	require.Equal(t, blue, game.PlayerBlue)
	require.Equal(t, pink, game.PlayerPink)
	require.NotNil(t, h.memberOf("R1", "c1"))
	require.NotNil(t, h.memberOf("R1", "c2"))

	updates := received[GameUpdateMessage](drain(c1))
	require.Len(t, updates, 1)
	require.Equal(t, "no changes", updates[0].Message)
	require.Equal(t, "R1", updates[0].GameID)
}

func TestPlayTokenTurnAlternation(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	join(h, c1, "R1", "alice")
	join(h, c2, "R1", "bob")
	drain(c1)
	drain(c2)

	game := h.games.Get("R1")
	require.Equal(t, Pink, game.WhoseTurn)

	// Pink is the second joiner (c2); (2,3) is a legal opening move.
	playToken(h, c2, 2, 3, Pink)

	require.Equal(t, Blue, game.WhoseTurn)
	require.Equal(t, CalculateLegalMoves(Blue, &game.Board), game.LegalMoves)
	require.Equal(t, PinkCell, game.Board[2][3])

	// The mover gets the echo, everyone gets the update.
	echoes := received[ClientMessage](drain(c2))
	require.Len(t, echoes, 1)
	require.Equal(t, "play_token_response", echoes[0].Type)

	updates := received[GameUpdateMessage](drain(c1))
	require.Len(t, updates, 1)
	require.Equal(t, "played a token", updates[0].Message)
}

func TestBroadcastSnapshotsGameState(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	join(h, c1, "R1", "alice")
	join(h, c2, "R1", "bob")
	drain(c1)
	drain(c2)

	// Serialize everything sent to c1 on its own goroutine, the way a
	// write pump does, while the hub keeps applying moves. Broadcast
	// snapshots are value copies, so the marshalled state never reflects
	// a later move.
	snapshots := make(chan []GameUpdateMessage, 1)
	go func() {
		var updates []GameUpdateMessage
		for msg := range c1.send {
			_, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if u, ok := msg.(GameUpdateMessage); ok {
				updates = append(updates, u)
			}
		}
		snapshots <- updates
	}()

	playToken(h, c2, 2, 3, Pink)
	playToken(h, c1, 2, 2, Blue)

	h.dropClient(c1)
	updates := <-snapshots
	require.Len(t, updates, 2)

	// Each snapshot is internally consistent: its legal moves are the
	// legal moves for its side to move on its board.
	for _, u := range updates {
		require.Equal(t, CalculateLegalMoves(u.Game.WhoseTurn, &u.Game.Board), u.Game.LegalMoves)
	}
	require.Equal(t, Blue, updates[0].Game.WhoseTurn)
	require.Equal(t, Pink, updates[1].Game.WhoseTurn)
}

func TestPlayTokenAuthority(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")
	c4 := connect(h, "c4")

	join(h, c1, "R1", "alice")
	join(h, c2, "R1", "bob")

	game := h.games.Get("R1")
	board := game.Board
	turn := game.WhoseTurn
	drain(c1)
	drain(c2)

	t.Run("unregistered session", func(t *testing.T) {
		playToken(h, c4, 2, 3, Pink)

		responses := received[PlayTokenResponse](drain(c4))
		require.Len(t, responses, 1)
		require.Equal(t, resultFail, responses[0].Result)
	})

	t.Run("wrong color", func(t *testing.T) {
		// Blue seat holder playing blue out of turn.
		playToken(h, c1, 2, 3, Blue)

		responses := received[PlayTokenResponse](drain(c1))
		require.Len(t, responses, 1)
		require.Equal(t, resultFail, responses[0].Result)
	})

	t.Run("wrong occupant", func(t *testing.T) {
		// Blue seat holder playing pink's turn.
		playToken(h, c1, 2, 3, Pink)

		responses := received[PlayTokenResponse](drain(c1))
		require.Len(t, responses, 1)
		require.Equal(t, resultFail, responses[0].Result)
	})

	// No failure mutated shared state or reached the other player.
	require.Equal(t, board, game.Board)
	require.Equal(t, turn, game.WhoseTurn)
	require.Empty(t, received[GameUpdateMessage](drain(c2)))
}

func TestPlayTokenMissingColor(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	join(h, c1, "R1", "alice")
	join(h, c2, "R1", "bob")
	drain(c1)
	drain(c2)

	row, col := 2, 3
	h.handlePlayToken(c2, ClientMessage{
		Type:   "play_token",
		Row:    &row,
		Column: &col,
	})

	// Failure goes to the sender only; nothing is broadcast to the room.
	responses := received[PlayTokenResponse](drain(c2))
	require.Len(t, responses, 1)
	require.Equal(t, resultFail, responses[0].Result)

	other := drain(c1)
	require.Empty(t, received[PlayTokenResponse](other))
	require.Empty(t, received[GameUpdateMessage](other))
}

func TestGameOverAndExpiry(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	join(h, c1, "R1", "alice")
	join(h, c2, "R1", "bob")
	drain(c1)
	drain(c2)

	// One empty cell left, with a legal pink move into it.
	game := h.games.Get("R1")
	for row := range game.Board {
		for col := range game.Board[row] {
			game.Board[row][col] = PinkCell
		}
	}
	game.Board[0][0] = Empty
	game.Board[0][1] = BlueCell
	game.WhoseTurn = Pink
	game.LegalMoves = CalculateLegalMoves(Pink, &game.Board)
	require.Equal(t, PinkCell, game.LegalMoves[0][0])

	playToken(h, c2, 0, 0, Pink)

	msgs := drain(c1)
	updates := received[GameUpdateMessage](msgs)
	require.Len(t, updates, 1)

	overs := received[GameOverMessage](msgs)
	require.Len(t, overs, 1)
	require.Equal(t, "everyone", overs[0].Winner)
	require.Equal(t, "R1", overs[0].GameID)
	require.True(t, overs[0].Game.Board.Full())

	// The record survives until the retention window elapses.
	require.NotNil(t, h.games.Get("R1"))
	require.Eventually(t, func() bool {
		return h.games.Get("R1") == nil
	}, time.Second, 5*time.Millisecond)
}

func TestInvite(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	join(h, c1, lobbyRoom, "alice")
	join(h, c2, lobbyRoom, "bob")
	drain(c1)
	drain(c2)

	t.Run("success", func(t *testing.T) {
		h.handleInvite(c1, ClientMessage{Type: "invite", RequestedUser: "c2"})

		acks := received[InviteResponse](drain(c1))
		require.Len(t, acks, 1)
		require.Equal(t, resultSuccess, acks[0].Result)
		require.Equal(t, "c2", acks[0].SocketID)

		invites := received[InvitedMessage](drain(c2))
		require.Len(t, invites, 1)
		require.Equal(t, "c1", invites[0].SocketID)
	})

	t.Run("target not in room", func(t *testing.T) {
		h.handleInvite(c1, ClientMessage{Type: "invite", RequestedUser: "c9"})

		acks := received[InviteResponse](drain(c1))
		require.Len(t, acks, 1)
		require.Equal(t, resultFail, acks[0].Result)
		require.Empty(t, received[InvitedMessage](drain(c2)))
	})

	t.Run("unregistered requester", func(t *testing.T) {
		c3 := connect(h, "c3")
		h.handleInvite(c3, ClientMessage{Type: "invite", RequestedUser: "c1"})

		acks := received[InviteResponse](drain(c3))
		require.Len(t, acks, 1)
		require.Equal(t, resultFail, acks[0].Result)
	})
}

func TestUninvite(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	join(h, c1, lobbyRoom, "alice")
	join(h, c2, lobbyRoom, "bob")
	drain(c1)
	drain(c2)

	h.handleUninvite(c1, ClientMessage{Type: "uninvite", RequestedUser: "c2"})

	acks := received[UninvitedMessage](drain(c1))
	require.Len(t, acks, 1)
	require.Equal(t, resultSuccess, acks[0].Result)
	require.Equal(t, "c2", acks[0].SocketID)

	notices := received[UninvitedMessage](drain(c2))
	require.Len(t, notices, 1)
	require.Equal(t, "c1", notices[0].SocketID)
}

func TestGameStart(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	join(h, c1, lobbyRoom, "alice")
	join(h, c2, lobbyRoom, "bob")
	drain(c1)
	drain(c2)

	h.handleGameStart(c1, ClientMessage{Type: "game_start", RequestedUser: "c2"})

	mine := received[GameStartResponse](drain(c1))
	theirs := received[GameStartResponse](drain(c2))
	require.Len(t, mine, 1)
	require.Len(t, theirs, 1)

	// Both parties receive the same opaque token.
	require.Equal(t, resultSuccess, mine[0].Result)
	require.NotEmpty(t, mine[0].GameID)
	require.Equal(t, mine[0], theirs[0])
}

func TestChatMessage(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	join(h, c1, lobbyRoom, "alice")
	join(h, c2, lobbyRoom, "bob")
	drain(c1)
	drain(c2)

	t.Run("relays to the room", func(t *testing.T) {
		h.handleChatMessage(c1, ClientMessage{
			Type:     "send_chat_message",
			Room:     lobbyRoom,
			Username: "alice",
			Message:  "hello",
		})

		for _, c := range []*Client{c1, c2} {
			chats := received[ChatMessageResponse](drain(c))
			require.Len(t, chats, 1)
			require.Equal(t, resultSuccess, chats[0].Result)
			require.Equal(t, "alice", chats[0].Username)
			require.Equal(t, "hello", chats[0].Message)
		}
	})

	t.Run("missing message fails to sender only", func(t *testing.T) {
		h.handleChatMessage(c1, ClientMessage{
			Type:     "send_chat_message",
			Room:     lobbyRoom,
			Username: "alice",
		})

		chats := received[ChatMessageResponse](drain(c1))
		require.Len(t, chats, 1)
		require.Equal(t, resultFail, chats[0].Result)
		require.Empty(t, received[ChatMessageResponse](drain(c2)))
	})
}

func TestDisconnect(t *testing.T) {
	h := testHub()
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	join(h, c1, lobbyRoom, "alice")
	join(h, c2, lobbyRoom, "bob")
	drain(c1)
	drain(c2)

	h.handleDisconnect(c2)

	require.Nil(t, h.sessions.Lookup("c2"))
	require.Nil(t, h.memberOf(lobbyRoom, "c2"))

	notices := received[PlayerDisconnectedMessage](drain(c1))
	require.Len(t, notices, 1)
	require.Equal(t, "bob", notices[0].Username)
	require.Equal(t, lobbyRoom, notices[0].Room)
	require.Equal(t, "c2", notices[0].SocketID)
	require.Equal(t, 1, notices[0].Count)

	t.Run("no session is a no-op", func(t *testing.T) {
		c3 := connect(h, "c3")
		h.handleDisconnect(c3)
		require.Empty(t, received[PlayerDisconnectedMessage](drain(c1)))
	})
}
