package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/w3chat/w3chat-client/pkg/protocol"
)

func TestLoginSuccess(t *testing.T) {
	var received loginRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != protocol.LoginPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer server.Close()

	auth := NewAuthClient(server.URL)
	session, err := auth.Login(context.Background(), "0xABCdef1234567890abcdef1234567890ABCDEF12", "sign in", "0xsig")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Token != "tok-123" {
		t.Errorf("token = %q", session.Token)
	}
	if session.Address != "0xabcdef1234567890abcdef1234567890abcdef12" {
		t.Errorf("address not normalized: %q", session.Address)
	}
	if received.Address == "" || received.Message != "sign in" || received.Signature != "0xsig" {
		t.Errorf("request body = %+v", received)
	}
}

func TestLoginFailureDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid signature"})
	}))
	defer server.Close()

	_, err := NewAuthClient(server.URL).Login(context.Background(), "0xaa", "m", "s")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v", err)
	}
	if authErr.Detail != "Invalid signature" {
		t.Errorf("detail = %q", authErr.Detail)
	}
}

func TestLoginEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": ""})
	}))
	defer server.Close()

	_, err := NewAuthClient(server.URL).Login(context.Background(), "0xaa", "m", "s")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v", err)
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "0xaa",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestTokenExpired(t *testing.T) {
	if TokenExpired(signedToken(t, time.Now().Add(time.Hour))) {
		t.Error("fresh token reported expired")
	}
	if !TokenExpired(signedToken(t, time.Now().Add(-time.Hour))) {
		t.Error("stale token reported valid")
	}
	// Unparseable tokens defer to the server
	if TokenExpired("not-a-jwt") {
		t.Error("garbage token reported expired")
	}
	if TokenExpired("") {
		t.Error("empty token reported expired")
	}
}

func TestTokenWithoutExpClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "0xaa"})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if TokenExpired(signed) {
		t.Error("token without exp reported expired")
	}
}
