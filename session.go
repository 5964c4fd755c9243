package main

import "sync"

// Session is one live connection's registration: who they are and where
// they are. One per socket id, created on a successful join_room.
type Session struct {
	SocketID string
	Username string
	Room     string
}

// SessionRegistry owns all Session records. Absence of a session for a
// socket id is a normal condition checked at every command entry point.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
	}
}

// Register creates or updates the session for socketID.
func (sr *SessionRegistry) Register(socketID, username, room string) *Session {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	s := &Session{
		SocketID: socketID,
		Username: username,
		Room:     room,
	}
	sr.sessions[socketID] = s
	return s
}

// Lookup returns the session for socketID, or nil if none is registered.
func (sr *SessionRegistry) Lookup(socketID string) *Session {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	return sr.sessions[socketID]
}

// Remove deletes and returns the session for socketID, or nil if none was
// registered. Idempotent.
func (sr *SessionRegistry) Remove(socketID string) *Session {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	s := sr.sessions[socketID]
	delete(sr.sessions, socketID)
	return s
}

// Count returns the number of registered sessions.
func (sr *SessionRegistry) Count() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	return len(sr.sessions)
}
