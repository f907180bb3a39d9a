// Package client is a Go client for the health coaching API.
package client

import (
	"sync"

	"github.com/meinhoongagan/healthcoach-api/utils"
)

// Session holds the client's auth state. It is safe for concurrent use and is
// the only place tokens live.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expired      bool
}

func NewSession() *Session {
	return &Session{}
}

// Login stores a freshly issued token pair.
func (s *Session) Login(pair utils.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.expired = false
}

// Token returns the current access token.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.accessToken != ""
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *Session) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// Invalidate drops the tokens after the server rejected them. Expired then
// reports true until the next Login.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = "", ""
	s.expired = true
}

func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expired
}

// Logout clears the session without marking it expired.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = "", ""
	s.expired = false
}
