package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// refreshSkew is how long before expiry the access token is refreshed.
const refreshSkew = 30 * time.Second

// Session is an authenticated session. Methods refresh the token pair when
// the access token is about to expire.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	newDevice    bool
}

func newSession(client *Client, tokens *TokenResponse) *Session {
	s := &Session{client: client}
	s.store(tokens)
	s.newDevice = tokens.NewDevice
	return s
}

func (s *Session) store(tokens *TokenResponse) {
	s.accessToken = tokens.AccessToken
	s.refreshToken = tokens.RefreshToken
	s.expiresAt = time.Now().Add(time.Duration(tokens.ExpiresIn)*time.Second - refreshSkew)
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// NewDevice reports whether the login that created the session came from a
// device the service had not seen for this user.
func (s *Session) NewDevice() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newDevice
}

// Refresh exchanges the refresh token for a new pair now.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Session) refreshLocked(ctx context.Context) error {
	if s.refreshToken == "" {
		return errors.New("no refresh token available")
	}

	tokens, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	s.store(tokens)
	return nil
}

func (s *Session) validToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

func (s *Session) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	token, err := s.validToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.doJSON(ctx, method, path, token, body)
}

// Me returns the profile of the session's user.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/me", nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListSessions lists the sessions of userID, or of the session's own user
// when userID is empty. Listing another user's sessions requires admin.
func (s *Session) ListSessions(ctx context.Context, userID string) (*SessionListResponse, error) {
	path := "/sessions"
	if userID != "" {
		path += "?" + url.Values{"user_id": {userID}}.Encode()
	}

	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var list SessionListResponse
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *Session) RevokeSession(ctx context.Context, sessionID string) error {
	resp, err := s.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Invite sends an invitation to email. Requires the staff or admin role.
func (s *Session) Invite(ctx context.Context, email, deviceName string) (*InvitationResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/invitations", InvitationRequest{
		Email:      email,
		DeviceName: deviceName,
	})
	if err != nil {
		return nil, err
	}

	var inv InvitationResponse
	if err := decodeJSON(resp, &inv, http.StatusCreated); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Logout revokes the access credential of the session. The refresh
// credential stays valid until revoked through RevokeSession.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodPost, "/logout", nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
