package domain

import "strings"

const (
	RoleCreator  = "creator"
	RoleFollower = "follower"
)

// User models the authenticated account as returned by GET /user/profile.
type User struct {
	ID        string `json:"_id,omitempty"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Validate rejects profile payloads that cannot back an authenticated session.
func (u *User) Validate() error {
	if u == nil || strings.TrimSpace(u.Username) == "" {
		return ErrMalformedResponse
	}
	if u.Role != RoleCreator && u.Role != RoleFollower {
		return ErrMalformedResponse
	}
	return nil
}

func (u *User) IsCreator() bool  { return u != nil && u.Role == RoleCreator }
func (u *User) IsFollower() bool { return u != nil && u.Role == RoleFollower }

// Clone returns a copy the caller may mutate freely.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
