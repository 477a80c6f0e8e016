// Package realtime implements the websocket presence channel.
package realtime

import "encoding/json"

// Envelope is the wire format for every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client-to-server events.
const (
	EventAuthenticate       = "authenticate"
	EventUpdateOnlineStatus = "update_online_status"
	EventGetOnlineUsers     = "get_online_users"
	EventTypingStart        = "typing_start"
	EventTypingStop         = "typing_stop"
)

// Server-to-client events.
const (
	EventAuthenticated    = "authenticated"
	EventAuthError        = "auth_error"
	EventAuthTimeout      = "auth_timeout"
	EventUserOnline       = "user_online"
	EventUserOffline      = "user_offline"
	EventUserStatusChange = "user_status_changed"
	EventOnlineUsersList  = "online_users_list"
	EventStatusUpdated    = "status_updated"
	EventUserTypingStart  = "user_typing_start"
	EventUserTypingStop   = "user_typing_stop"
	EventError            = "error"
)

// AuthenticateData is the payload of the authenticate event.
type AuthenticateData struct {
	Token string `json:"token"`
}

// OnlineStatusData is the payload of the update_online_status event.
type OnlineStatusData struct {
	IsOnline bool `json:"isOnline"`
}

// TypingData is the payload of typing_start and typing_stop. An empty
// TargetUserID broadcasts to everyone else.
type TypingData struct {
	TargetUserID string `json:"targetUserId,omitempty"`
}

// StatusUpdate announces a presence change to other connections.
type StatusUpdate struct {
	UserID    string `json:"userId"`
	IsOnline  bool   `json:"isOnline"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AuthenticatedData confirms a successful authenticate to the caller.
type AuthenticatedData struct {
	Success bool              `json:"success"`
	User    AuthenticatedUser `json:"user"`
}

// AuthenticatedUser is the identity echoed back on authentication.
type AuthenticatedUser struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	IsOnline  bool   `json:"isOnline"`
}

// OnlineUser is one element of the online_users_list payload.
type OnlineUser struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	JoinedAt  string `json:"joinedAt"`
}

// OnlineUsersList is the payload of online_users_list.
type OnlineUsersList struct {
	Users []OnlineUser `json:"users"`
}

// StatusUpdatedData confirms an explicit status toggle to the caller.
type StatusUpdatedData struct {
	Success  bool   `json:"success"`
	IsOnline bool   `json:"isOnline"`
	Message  string `json:"message"`
}

// TypingNotice identifies who is typing.
type TypingNotice struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ErrorData is the payload of auth_error and error events.
type ErrorData struct {
	Message string `json:"message"`
}

// newEnvelope marshals data into an envelope. Marshal failures cannot happen
// for the fixed payload types above.
func newEnvelope(event string, data any) Envelope {
	if data == nil {
		return Envelope{Event: event}
	}

	raw, _ := json.Marshal(data)

	return Envelope{Event: event, Data: raw}
}
