package auth

// Package auth contains domain-level types for identities and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Kind discriminates the two identity shapes a User can take.
type Kind string

const (
	KindRegistered Kind = "registered"
	KindGuest      Kind = "guest"
)

// Fixed values of the locally synthesized guest identity.
const (
	GuestUsername = "Anonymous User"
	GuestName     = "Guest"
)

// Account is a registered identity held in the identity provider's cache.
// Adapters map provider-specific claims into this shape.
type Account struct {
	ID       string `json:"id"`       // stable account id (oid or sub)
	Name     string `json:"name"`     // display name
	Username string `json:"username"` // preferred_username or email
}

// GuestRecord is the persisted guest session.
// The JSON field names are part of the persisted layout.
type GuestRecord struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// NewGuestRecord returns the one valid guest record.
func NewGuestRecord() GuestRecord {
	return GuestRecord{Username: GuestUsername, Name: GuestName, IsAnonymous: true}
}

// Valid reports whether the record has the guest shape.
func (g GuestRecord) Valid() bool {
	return g.IsAnonymous && g.Username != "" && g.Name != ""
}

// User is the current identity: either registered or guest.
// Build it with RegisteredUser or GuestUser and switch on Kind.
type User struct {
	Kind        Kind   `json:"kind"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// RegisteredUser builds a User from a provider account.
func RegisteredUser(a Account) User {
	return User{Kind: KindRegistered, ID: a.ID, Name: a.Name, Username: a.Username}
}

// GuestUser builds a User from a guest record. Guests have no account id.
func GuestUser(g GuestRecord) User {
	return User{Kind: KindGuest, Name: g.Name, Username: g.Username, IsAnonymous: true}
}

// IsGuest reports whether u is the guest identity.
func (u User) IsGuest() bool { return u.Kind == KindGuest }

// Initials returns up to two upper-case initials of the display name,
// falling back to the username, then "U".
func (u User) Initials() string {
	name := u.Name
	if strings.TrimSpace(name) == "" {
		name = u.Username
	}
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "U"
	}
	return b.String()
}

// State is an immutable snapshot of who is using the app.
type State struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	User            *User `json:"user"`
}

// Resolve merges registered accounts and the guest record into a State.
// The first registered account wins over a guest record; the guest record
// is not discarded by this, only hidden.
func Resolve(accounts []Account, guest *GuestRecord) State {
	switch {
	case len(accounts) > 0:
		u := RegisteredUser(accounts[0])
		return State{IsAuthenticated: true, User: &u}
	case guest != nil:
		u := GuestUser(*guest)
		return State{IsAuthenticated: true, User: &u}
	default:
		return State{}
	}
}

// AccessToken is a short-lived bearer credential for the backend API.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
	Scopes    []string
}

// Expired reports whether the token is expired or expires within skew of now.
// A zero ExpiresAt never expires.
func (t AccessToken) Expired(now time.Time, skew time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(t.ExpiresAt)
}
