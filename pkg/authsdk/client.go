package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to the public endpoints of the auth service and creates
// Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// UserAgent is sent with every request. The service fingerprints
	// devices by IP and user agent, so a stable value keeps a program from
	// looking like a new device on each login.
	UserAgent string
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns a session for it. An empty
// invitationToken registers a client; a valid one registers staff.
func (c *Client) Register(ctx context.Context, email, password, invitationToken string) (*Session, error) {
	tokens, err := c.postTokens(ctx, "/register", RegisterRequest{
		Email:           email,
		Password:        password,
		InvitationToken: invitationToken,
	}, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokens), nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	tokens, err := c.LoginTokens(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokens), nil
}

// LoginTokens logs in and returns the raw response, including NewDevice.
func (c *Client) LoginTokens(ctx context.Context, email, password string) (*TokenResponse, error) {
	return c.postTokens(ctx, "/login", LoginRequest{Email: email, Password: password}, http.StatusOK)
}

// Refresh exchanges a refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.postTokens(ctx, "/refresh_token", RefreshRequest{Token: refreshToken}, http.StatusOK)
}

// NewSessionFromTokens resumes a session from stored tokens. expiresIn is
// the remaining access token lifetime in seconds.
func (c *Client) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	return newSession(c, &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	})
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/forgot-password", "", ForgotPasswordRequest{Email: email})
	if err != nil {
		return nil, err
	}

	var out ForgotPasswordResponse
	if err := decodeJSON(resp, &out, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/reset-password", "", ResetPasswordRequest{
		Token:    token,
		Password: password,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness returns an *APIError with status 503 when the service is
// up but its store is not reachable.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *Client) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *Client) postTokens(ctx context.Context, path string, body any, status int) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, path, "", body)
	if err != nil {
		return nil, err
	}

	var tokens TokenResponse
	if err := decodeJSON(resp, &tokens, status); err != nil {
		return nil, err
	}
	return &tokens, nil
}
