package session

import "time"

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventRefreshed EventType = "refreshed"
	EventSignedOut EventType = "signed_out"
)

// Sign-out reasons carried on EventSignedOut
const (
	ReasonLogout             = "logout"
	ReasonNoRefreshToken     = "no_refresh_token"
	ReasonRefreshRejected    = "refresh_rejected"
	ReasonRefreshUnavailable = "refresh_unavailable"
	ReasonRestoreEmpty       = "restore_empty"
)

// Event describes a state transition of the manager. Events never carry token values.
type Event struct {
	Type       EventType `json:"type"`
	Reason     string    `json:"reason,omitempty"`
	Generation uint64    `json:"generation"`
	At         time.Time `json:"at"`
}

// Listener observes session transitions. Listeners are called after the
// manager's lock is released, in registration order.
type Listener interface {
	OnSessionEvent(Event)
}

// ListenerFunc adapts a function to a Listener
type ListenerFunc func(Event)

func (f ListenerFunc) OnSessionEvent(e Event) { f(e) }
