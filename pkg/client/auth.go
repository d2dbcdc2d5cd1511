package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/w3chat/w3chat-client/pkg/protocol"
)

// Session is the authenticated identity. Exactly one is live at a time and
// only the auth flow mutates it. The JSON tags match the persisted
// "w3chat_user" entry of the browser client.
type Session struct {
	Token   string `json:"jwt"`
	Address string `json:"address"`
}

// AuthError carries the server's human-readable failure detail.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Detail)
}

// AuthClient exchanges a wallet-signed message for a session token. The
// wallet itself is an external collaborator; callers hand in the
// (address, message, signature) triple it produced.
type AuthClient struct {
	baseURL string // e.g. "http://host:6880"
	client  *http.Client
}

// NewAuthClient creates an auth client against the server's HTTP base URL.
func NewAuthClient(baseURL string) *AuthClient {
	return &AuthClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type loginRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

type loginResponse struct {
	Token  string `json:"token"`
	Detail string `json:"detail"`
}

// Login posts the signed message and returns a Session on success. A non-2xx
// response surfaces as *AuthError with the server's detail string.
func (a *AuthClient) Login(ctx context.Context, address, message, signature string) (Session, error) {
	target, err := url.JoinPath(a.baseURL, protocol.LoginPath)
	if err != nil {
		return Session{}, fmt.Errorf("invalid auth URL: %w", err)
	}

	body, err := json.Marshal(loginRequest{Address: address, Message: message, Signature: signature})
	if err != nil {
		return Session{}, fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Session{}, fmt.Errorf("failed to decode login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := decoded.Detail
		if detail == "" {
			detail = resp.Status
		}
		return Session{}, &AuthError{Detail: detail}
	}
	if decoded.Token == "" {
		return Session{}, &AuthError{Detail: "empty token in response"}
	}

	return Session{
		Token:   decoded.Token,
		Address: protocol.NormalizeAddress(address),
	}, nil
}

// TokenExpired inspects the token's exp claim without verifying the
// signature; verification is the server's job. An unparseable token or a
// missing claim reports false so the server stays the authority.
func TokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
