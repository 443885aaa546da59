package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Placeholder identity used when a token exists but no user record was cached.
const (
	PlaceholderEmail = "user@example.com"
	PlaceholderName  = "User"
)

// Session is the client-side record of the authenticated user.
//
// Name is always the email truncated at its first '@'. DisplayName carries the backend
// profile's name when login returned one.
type Session struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// NewSessionFromEmail builds a Session whose name is the email truncated at its first '@'.
func NewSessionFromEmail(email string) *Session {
	name := email
	if i := strings.Index(email, "@"); i >= 0 {
		name = email[:i]
	}
	return &Session{Email: email, Name: name}
}

// PlaceholderSession returns the fixed, non-identifying session.
func PlaceholderSession() *Session {
	return &Session{Email: PlaceholderEmail, Name: PlaceholderName}
}

// IsPlaceholder reports whether s is the synthesized placeholder identity.
func (s *Session) IsPlaceholder() bool {
	return s != nil && s.Email == PlaceholderEmail && s.Name == PlaceholderName
}

// Display is the name to greet the user by: the profile name when known, else Name.
func (s *Session) Display() string {
	if s == nil {
		return ""
	}
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Name
}

// Encode serializes the session for durable storage.
func (s *Session) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	return string(data), nil
}

// DecodeSession parses a stored session record.
func DecodeSession(raw string) (*Session, error) {
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// Profile is the account record the API returns alongside a login token.
type Profile struct {
	ID        ID     `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName prefers the first name, then the username. Empty when neither is set.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if name := strings.TrimSpace(p.FirstName); name != "" {
		return name
	}
	return strings.TrimSpace(p.Username)
}
