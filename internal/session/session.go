package session

import (
	"sync"
	"time"

	"travelbooking/internal/booking"
	"travelbooking/pkg/travelapi"
)

// Store holds one signed-in user's tokens and cached profile.
// It satisfies travelapi.TokenSource.
type Store struct {
	mu      sync.RWMutex
	access  string
	refresh string
	user    *travelapi.User
}

func New(access, refresh string, user *travelapi.User) *Store {
	return &Store{access: access, refresh: refresh, user: user}
}

// FromLogin builds a store from a successful login response.
func FromLogin(resp *travelapi.LoginResponse) *Store {
	if resp == nil {
		return &Store{}
	}
	u := resp.User
	return New(resp.Access, resp.Refresh, &u)
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *Store) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = token
}

// Rotate stores tokens presented by the client. Empty values keep the current ones.
func (s *Store) Rotate(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if access != "" {
		s.access = access
	}
	if refresh != "" {
		s.refresh = refresh
	}
}

func (s *Store) SetUser(u *travelapi.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

func (s *Store) User() *travelapi.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Clear forgets everything, as a logout or a failed refresh does.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh, s.user = "", "", nil
}

func (s *Store) Authenticated() bool {
	return s.AccessToken() != ""
}

// Expired reports whether the access token is missing or past its exp claim.
// Tokens without a readable exp are treated as live.
func (s *Store) Expired(now time.Time) bool {
	tok := s.AccessToken()
	if tok == "" {
		return true
	}
	exp, ok := travelapi.TokenExpiry(tok)
	if !ok {
		return false
	}
	return !now.Before(exp)
}

// Profile adapts the cached user for seeding a booking draft.
func (s *Store) Profile() booking.Profile {
	u := s.User()
	if u == nil {
		return booking.Profile{}
	}
	return booking.Profile{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Name:      u.Name,
		Email:     u.Email,
	}
}

var _ travelapi.TokenSource = (*Store)(nil)
