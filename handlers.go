package main

import (
	"fmt"

	"github.com/google/uuid"
)

func (h *Hub) dispatch(c *Client, msg ClientMessage) {
	h.serverLog(fmt.Sprintf("server received a command %q from %s", msg.Type, c.socketID))

	switch msg.Type {
	case "join_room":
		h.handleJoinRoom(c, msg)
	case "invite":
		h.handleInvite(c, msg)
	case "uninvite":
		h.handleUninvite(c, msg)
	case "game_start":
		h.handleGameStart(c, msg)
	case "send_chat_message":
		h.handleChatMessage(c, msg)
	case "play_token":
		h.handlePlayToken(c, msg)
	default:
		h.serverLog(fmt.Sprintf("ignoring unknown command %q from %s", msg.Type, c.socketID))
	}
}

func (h *Hub) handleJoinRoom(c *Client, msg ClientMessage) {
	fail := func(reason string) {
		h.sendTo(c, JoinRoomResponse{
			Type:    "join_room_response",
			Result:  resultFail,
			Message: reason,
		})
		h.serverLog("join_room command failed: " + reason)
	}

	if msg.Room == "" {
		fail("client did not send a valid room to join")
		return
	}
	if msg.Username == "" {
		fail("client did not send a valid username to join the chat room")
		return
	}

	h.joinRoom(c, msg.Room)

	// Make sure the client actually ended up in the room.
	if h.memberOf(msg.Room, c.socketID) == nil {
		fail("server internal error joining chat room")
		return
	}

	h.sessions.Register(c.socketID, msg.Username, msg.Room)

	// Announce every current member to the whole room, one response per
	// member, so late joiners learn who is already present.
	members := h.roomMembers(msg.Room)
	for _, member := range members {
		session := h.sessions.Lookup(member.socketID)
		if session == nil {
			continue
		}
		response := JoinRoomResponse{
			Type:     "join_room_response",
			Result:   resultSuccess,
			Room:     session.Room,
			Username: session.Username,
			Count:    len(members),
			SocketID: member.socketID,
		}
		h.broadcastRoom(msg.Room, response)
		h.serverLog(fmt.Sprintf("join_room succeeded: %s is in %s", session.Username, msg.Room))
	}

	if msg.Room != lobbyRoom {
		h.sendGameUpdate(msg.Room, "initial update")
	}
}

// engagedTarget validates the shared preconditions of invite, uninvite, and
// game_start: the requester has a registered session with a room and
// username, and the requested user is currently in that room. It returns the
// target client, or a failure reason.
func (h *Hub) engagedTarget(c *Client, msg ClientMessage, verb string) (*Client, string) {
	if msg.RequestedUser == "" {
		return nil, fmt.Sprintf("client did not request a valid user to %s", verb)
	}

	session := h.sessions.Lookup(c.socketID)
	if session == nil || session.Room == "" {
		return nil, fmt.Sprintf("the user that sent the %s is not in a room", verb)
	}
	if session.Username == "" {
		return nil, fmt.Sprintf("the user that sent the %s does not have a name registered", verb)
	}

	target := h.memberOf(session.Room, msg.RequestedUser)
	if target == nil {
		return nil, "the requested user is no longer in the room"
	}
	return target, ""
}

func (h *Hub) handleInvite(c *Client, msg ClientMessage) {
	target, reason := h.engagedTarget(c, msg, "invite")
	if target == nil {
		h.sendTo(c, InviteResponse{
			Type:    "invite_response",
			Result:  resultFail,
			Message: reason,
		})
		h.serverLog("invite command failed: " + reason)
		return
	}

	h.sendTo(c, InviteResponse{
		Type:     "invite_response",
		Result:   resultSuccess,
		SocketID: target.socketID,
	})
	h.sendTo(target, InvitedMessage{
		Type:     "invited",
		Result:   resultSuccess,
		SocketID: c.socketID,
	})
	h.serverLog(fmt.Sprintf("invite command succeeded: %s invited %s", c.socketID, target.socketID))
}

func (h *Hub) handleUninvite(c *Client, msg ClientMessage) {
	target, reason := h.engagedTarget(c, msg, "uninvite")
	if target == nil {
		h.sendTo(c, UninvitedMessage{
			Type:    "uninvited",
			Result:  resultFail,
			Message: reason,
		})
		h.serverLog("uninvite command failed: " + reason)
		return
	}

	h.sendTo(c, UninvitedMessage{
		Type:     "uninvited",
		Result:   resultSuccess,
		SocketID: target.socketID,
	})
	h.sendTo(target, UninvitedMessage{
		Type:     "uninvited",
		Result:   resultSuccess,
		SocketID: c.socketID,
	})
	h.serverLog(fmt.Sprintf("uninvite command succeeded: %s uninvited %s", c.socketID, target.socketID))
}

func (h *Hub) handleGameStart(c *Client, msg ClientMessage) {
	target, reason := h.engagedTarget(c, msg, "engage")
	if target == nil {
		h.sendTo(c, GameStartResponse{
			Type:    "game_start_response",
			Result:  resultFail,
			Message: reason,
		})
		h.serverLog("game_start command failed: " + reason)
		return
	}

	response := GameStartResponse{
		Type:     "game_start_response",
		Result:   resultSuccess,
		GameID:   uuid.NewString(),
		SocketID: target.socketID,
	}
	h.sendTo(c, response)
	h.sendTo(target, response)
	h.serverLog(fmt.Sprintf("game_start command succeeded: game %s between %s and %s", response.GameID, c.socketID, target.socketID))
}

func (h *Hub) handleChatMessage(c *Client, msg ClientMessage) {
	fail := func(reason string) {
		h.sendTo(c, ChatMessageResponse{
			Type:    "send_chat_message_response",
			Result:  resultFail,
			Message: reason,
		})
		h.serverLog("send_chat_message command failed: " + reason)
	}

	if msg.Room == "" {
		fail("client did not send a valid room to message")
		return
	}
	if msg.Username == "" {
		fail("client did not send a valid username as a message source")
		return
	}
	if msg.Message == "" {
		fail("client did not send a valid message")
		return
	}

	response := ChatMessageResponse{
		Type:     "send_chat_message_response",
		Result:   resultSuccess,
		Username: msg.Username,
		Room:     msg.Room,
		Message:  msg.Message,
	}
	h.broadcastRoom(msg.Room, response)
	h.serverLog(fmt.Sprintf("send_chat_message command succeeded: %s sent to %s", msg.Username, msg.Room))
}

func (h *Hub) handlePlayToken(c *Client, msg ClientMessage) {
	fail := func(reason string) {
		h.sendTo(c, PlayTokenResponse{
			Type:    "play_token_response",
			Result:  resultFail,
			Message: reason,
		})
		h.serverLog("play_token command failed: " + reason)
	}

	session := h.sessions.Lookup(c.socketID)
	if session == nil {
		fail("play_token came from an unregistered player")
		return
	}
	if session.Username == "" {
		fail("play_token command did not come from a registered username")
		return
	}

	gameID := session.Room
	if gameID == "" {
		fail("there was no valid game associated with the play_token command")
		return
	}

	if msg.Row == nil || *msg.Row < 0 || *msg.Row >= boardSize {
		fail("there was no valid row associated with the play_token command")
		return
	}
	if msg.Column == nil || *msg.Column < 0 || *msg.Column >= boardSize {
		fail("there was no valid column associated with the play_token command")
		return
	}
	if msg.Color == "" {
		fail("there was no valid color associated with the play_token command")
		return
	}

	game := h.games.Get(gameID)
	if game == nil {
		fail("there was no valid game associated with the play_token command")
		return
	}

	// Turn authority: correct color, then correct occupant of that seat.
	if msg.Color != game.WhoseTurn {
		fail("play_token played the wrong color, it is not their turn")
		return
	}
	if game.Seat(msg.Color).Socket != c.socketID {
		fail("play_token played the right color by the wrong player")
		return
	}

	// Echo the move back to the mover before broadcasting the new state.
	echo := msg
	echo.Type = "play_token_response"
	h.sendTo(c, echo)

	game.ApplyMove(msg.Color, *msg.Row, *msg.Column)
	h.serverLog(fmt.Sprintf("play_token command succeeded: %s played (%d,%d) in %s", session.Username, *msg.Row, *msg.Column, gameID))

	h.sendGameUpdate(gameID, "played a token")
}

// seatAssignment is one step of a reconcile diff.
type seatAssignment struct {
	color    Color
	socketID string
	username string
}

// sendGameUpdate reconciles the room's membership against its game's seats
// and broadcasts the consolidated snapshot. Creates the game lazily on first
// use; on a terminal board it also announces the result and schedules the
// game record for expiry.
func (h *Hub) sendGameUpdate(room, message string) {
	game, created := h.games.GetOrCreate(room)
	if created {
		h.serverLog(fmt.Sprintf("no game exists for room %s, creating a new one", room))
	}

	// Phase one: snapshot membership and compute the seat/eject diff.
	members := h.roomMembers(room)

	var assignments []seatAssignment
	var ejected []*Client

	blueOpen := game.PlayerBlue.Socket == ""
	pinkOpen := game.PlayerPink.Socket == ""

	for _, member := range members {
		if game.Seated(member.socketID) {
			continue
		}
		session := h.sessions.Lookup(member.socketID)
		if session == nil {
			continue
		}
		switch {
		case blueOpen:
			assignments = append(assignments, seatAssignment{Blue, member.socketID, session.Username})
			blueOpen = false
		case pinkOpen:
			assignments = append(assignments, seatAssignment{Pink, member.socketID, session.Username})
			pinkOpen = false
		default:
			ejected = append(ejected, member)
		}
	}

	// Phase two: apply the diff, re-checking each seat against current
	// state immediately before commit.
	for _, a := range assignments {
		seat := game.Seat(a.color)
		if seat.Socket != "" || game.Seated(a.socketID) {
			continue
		}
		if h.memberOf(room, a.socketID) == nil {
			continue
		}
		seat.Socket = a.socketID
		seat.Username = a.username
		h.serverLog(fmt.Sprintf("%s is assigned to %s in %s", a.color, a.socketID, room))
	}

	for _, member := range ejected {
		h.leaveRoom(member, room)
		h.serverLog(fmt.Sprintf("kicking %s out of game %s", member.socketID, room))
	}

	h.broadcastRoom(room, GameUpdateMessage{
		Type:    "game_update",
		Result:  resultSuccess,
		GameID:  room,
		Game:    *game,
		Message: message,
	})

	if !game.Board.Full() {
		return
	}

	h.broadcastRoom(room, GameOverMessage{
		Type:   "game_over",
		Result: resultSuccess,
		GameID: room,
		Game:   *game,
		Winner: "everyone",
	})
	h.games.ScheduleExpiry(room)
	h.serverLog(fmt.Sprintf("game %s is over, expiring in %s", room, h.cfg.gameRetention))
}
