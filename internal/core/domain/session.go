package domain

import "time"

// PersistencePolicy decides which storage scope holds the session token.
type PersistencePolicy string

const (
	PersistenceNone      PersistencePolicy = ""
	PersistenceDurable   PersistencePolicy = "durable"
	PersistenceEphemeral PersistencePolicy = "ephemeral"
)

// PolicyFor maps the remember-me choice to a persistence policy.
func PolicyFor(rememberMe bool) PersistencePolicy {
	if rememberMe {
		return PersistenceDurable
	}
	return PersistenceEphemeral
}

// Session is the client-side authentication state.
//
// Authenticated implies Token != "" and User != nil. The reverse does not
// hold: a restored token is unverified until the profile fetch succeeds.
type Session struct {
	Token         string            `json:"-"`
	Policy        PersistencePolicy `json:"persistence_policy,omitempty"`
	User          *User             `json:"user,omitempty"`
	Authenticated bool              `json:"is_authenticated"`
}

// HasToken reports whether a credential is attached, validated or not.
func (s Session) HasToken() bool { return s.Token != "" }

// Role returns the current user's role, or "" when no profile is loaded.
func (s Session) Role() string {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s Session) Clone() Session {
	s.User = s.User.Clone()
	return s
}

// SessionEventKind identifies a session lifecycle notification.
type SessionEventKind string

const (
	EventAuthenticated SessionEventKind = "authenticated"
	EventLoggedOut     SessionEventKind = "logged_out"
)

// TeardownReason says why a session was torn down.
type TeardownReason string

const (
	ReasonLogout         TeardownReason = "logout"
	ReasonUnauthorized   TeardownReason = "unauthorized"
	ReasonAccountDeleted TeardownReason = "account_deleted"
	ReasonTokenExpired   TeardownReason = "token_expired"
	ReasonProfileFailed  TeardownReason = "profile_failed"
	ReasonStorageFailed  TeardownReason = "storage_failed"
)

// SessionEvent is published to subscribers whenever the session is
// established or torn down. Presentation layers react to it (for example by
// navigating to the login view) instead of the transport doing so itself.
type SessionEvent struct {
	Kind   SessionEventKind `json:"kind"`
	Reason TeardownReason   `json:"reason,omitempty"`
	User   *User            `json:"user,omitempty"`
	At     time.Time        `json:"at"`
}
