package main

// Wire contract. Inbound commands arrive as a single envelope with a type
// discriminator; outbound events are typed per-event structs. Field names
// match the JSON the game clients speak.

const (
	resultSuccess = "success"
	resultFail    = "fail"
)

// ClientMessage is the inbound command envelope.
type ClientMessage struct {
	Type          string `json:"type"`
	Room          string `json:"room,omitempty"`           // join_room / send_chat_message
	Username      string `json:"username,omitempty"`       // join_room / send_chat_message
	Message       string `json:"message,omitempty"`        // send_chat_message
	RequestedUser string `json:"requested_user,omitempty"` // invite / uninvite / game_start
	Row           *int   `json:"row,omitempty"`            // play_token
	Column        *int   `json:"column,omitempty"`         // play_token
	Color         Color  `json:"color,omitempty"`          // play_token
}

// JoinRoomResponse announces a room member to the whole room, or reports a
// failed join to the requester only.
type JoinRoomResponse struct {
	Type     string `json:"type"` // "join_room_response"
	Result   string `json:"result"`
	Room     string `json:"room,omitempty"`
	Username string `json:"username,omitempty"`
	Count    int    `json:"count,omitempty"`
	SocketID string `json:"socket_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// InviteResponse acknowledges an invite to the requester.
type InviteResponse struct {
	Type     string `json:"type"` // "invite_response"
	Result   string `json:"result"`
	SocketID string `json:"socket_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// InvitedMessage notifies the target that they were invited.
type InvitedMessage struct {
	Type     string `json:"type"` // "invited"
	Result   string `json:"result"`
	SocketID string `json:"socket_id,omitempty"`
}

// UninvitedMessage is sent to both parties of an uninvite, and carries
// failures back to the requester.
type UninvitedMessage struct {
	Type     string `json:"type"` // "uninvited"
	Result   string `json:"result"`
	SocketID string `json:"socket_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// GameStartResponse carries the opaque game token to both parties.
type GameStartResponse struct {
	Type     string `json:"type"` // "game_start_response"
	Result   string `json:"result"`
	GameID   string `json:"game_id,omitempty"`
	SocketID string `json:"socket_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ChatMessageResponse relays a chat message to a room.
type ChatMessageResponse struct {
	Type     string `json:"type"` // "send_chat_message_response"
	Result   string `json:"result"`
	Username string `json:"username,omitempty"`
	Room     string `json:"room,omitempty"`
	Message  string `json:"message,omitempty"`
}

// PlayTokenResponse reports a rejected move to the mover. Successful moves
// echo the original command back instead.
type PlayTokenResponse struct {
	Type    string `json:"type"` // "play_token_response"
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
}

// GameUpdateMessage is the consolidated game snapshot broadcast to a room.
// Game is a value copy taken on the hub loop, so client writer goroutines
// never read the live record while later commands mutate it.
type GameUpdateMessage struct {
	Type    string `json:"type"` // "game_update"
	Result  string `json:"result"`
	GameID  string `json:"game_id"`
	Game    Game   `json:"game"`
	Message string `json:"message,omitempty"`
}

// GameOverMessage announces a terminal board to a room. Game is a value
// copy, as in GameUpdateMessage.
type GameOverMessage struct {
	Type   string `json:"type"` // "game_over"
	Result string `json:"result"`
	GameID string `json:"game_id"`
	Game   Game   `json:"game"`
	Winner string `json:"winner"`
}

// PlayerDisconnectedMessage tells a room who left.
type PlayerDisconnectedMessage struct {
	Type     string `json:"type"` // "player_disconnected"
	Username string `json:"username"`
	Room     string `json:"room"`
	Count    int    `json:"count"`
	SocketID string `json:"socket_id"`
}

// LogMessage relays diagnostic lines to every connection.
type LogMessage struct {
	Type  string   `json:"type"` // "log"
	Lines []string `json:"lines"`
}
