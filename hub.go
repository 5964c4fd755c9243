package main

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// lobbyRoom is the distinguished room that never hosts a game.
const lobbyRoom = "Lobby"

type Client struct {
	conn     *websocket.Conn
	send     chan any
	socketID string
}

type command struct {
	client *Client
	msg    ClientMessage
}

// Hub owns every connection, room membership, and the session and game
// registries. All command processing happens on the single run loop, so
// handlers never see partial updates from other commands; the mutex guards
// the membership maps against off-loop readers (shutdown, tests).
type Hub struct {
	cfg *Config

	mu      sync.Mutex
	clients map[string]*Client   // socket id -> client
	rooms   map[string][]*Client // room -> members in join order

	sessions *SessionRegistry
	games    *GameRegistry

	register   chan *Client
	unregister chan *Client
	commands   chan command
}

func newHub(cfg *Config) *Hub {
	return &Hub{
		cfg:        cfg,
		clients:    make(map[string]*Client),
		rooms:      make(map[string][]*Client),
		sessions:   newSessionRegistry(),
		games:      newGameRegistry(cfg.gameRetention),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan command),
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.socketID] = c
			h.mu.Unlock()

			h.serverLog("a page connected to the server: " + c.socketID)

		case c := <-h.unregister:
			h.handleDisconnect(c)

		case cmd := <-h.commands:
			h.dispatch(cmd.client, cmd.msg)
		}
	}
}

// serverLog writes a diagnostic line to the server log and relays it to
// every connection on the log channel.
func (h *Hub) serverLog(messages ...string) {
	lines := make([]string, 0, len(messages)+1)
	lines = append(lines, "**** Message from the server:")
	for _, m := range messages {
		lines = append(lines, "****\t"+m)
		logf(h.cfg, "HUB: %s", m)
	}

	h.broadcastAll(LogMessage{
		Type:  "log",
		Lines: lines,
	})
}

// sendTo delivers a message to one client, dropping the client if its send
// buffer is full.
func (h *Hub) sendTo(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		h.dropClient(c)
	}
}

func (h *Hub) broadcastRoom(room string, msg any) {
	for _, c := range h.roomMembers(room) {
		h.sendTo(c, msg)
	}
}

func (h *Hub) broadcastAll(msg any) {
	h.mu.Lock()
	all := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.mu.Unlock()

	for _, c := range all {
		h.sendTo(c, msg)
	}
}

// joinRoom appends the client to the room's member list, preserving join
// order. Re-joining the same room is a no-op.
func (h *Hub) joinRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, member := range h.rooms[room] {
		if member == c {
			return
		}
	}
	h.rooms[room] = append(h.rooms[room], c)
}

// leaveRoom removes the client from the room's member list. Idempotent.
func (h *Hub) leaveRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveRoomLocked(c, room)
}

func (h *Hub) leaveRoomLocked(c *Client, room string) {
	members := h.rooms[room]
	for i, member := range members {
		if member == c {
			h.rooms[room] = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

// roomMembers returns a snapshot of the room's members in join order.
func (h *Hub) roomMembers(room string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[room]
	snapshot := make([]*Client, len(members))
	copy(snapshot, members)
	return snapshot
}

// memberOf returns the client with socketID if it is currently a member of
// the room, or nil.
func (h *Hub) memberOf(room, socketID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, member := range h.rooms[room] {
		if member.socketID == socketID {
			return member
		}
	}
	return nil
}

// dropClient removes a client from the hub and every room, and closes its
// send channel. Safe to call more than once.
func (h *Hub) dropClient(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c.socketID]
	delete(h.clients, c.socketID)
	for room := range h.rooms {
		h.leaveRoomLocked(c, room)
	}
	h.mu.Unlock()

	if present {
		close(c.send)
	}
}

// handleDisconnect tears down a connection: the client leaves the hub, its
// session is removed, and its room is told who left. A no-op for
// connections that never registered a session.
func (h *Hub) handleDisconnect(c *Client) {
	h.dropClient(c)

	h.serverLog("a page disconnected from the server: " + c.socketID)

	session := h.sessions.Remove(c.socketID)
	if session == nil {
		return
	}

	payload := PlayerDisconnectedMessage{
		Type:     "player_disconnected",
		Username: session.Username,
		Room:     session.Room,
		Count:    h.sessions.Count(),
		SocketID: c.socketID,
	}
	h.broadcastRoom(session.Room, payload)
	h.serverLog(fmt.Sprintf("player_disconnected succeeded: %s left %s", session.Username, session.Room))
}
