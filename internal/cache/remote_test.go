package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"forge/internal/auth"
)

func validTestToken(t *testing.T) string {
	t.Helper()
	token, _, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func TestRemoteClient_FetchSendsUserAgentAndAuth(t *testing.T) {
	var gotUserAgent, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	token := validTestToken(t)
	client, err := NewRemoteClient(srv.URL, token)
	if err != nil {
		t.Fatalf("NewRemoteClient: %v", err)
	}
	defer client.Close()

	_, err = client.Fetch(context.Background(), "some-key")
	if err != ErrMiss {
		t.Fatalf("Fetch: err = %v, want ErrMiss", err)
	}

	if !strings.HasPrefix(gotUserAgent, "forge/") {
		t.Errorf("User-Agent = %q, want forge/... prefix", gotUserAgent)
	}
	if gotAuth != "Bearer "+token {
		t.Errorf("Authorization = %q, want Bearer %s", gotAuth, token)
	}
}

func TestRemoteClient_PushSendsUserAgent(t *testing.T) {
	var gotUserAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	token := validTestToken(t)
	client, err := NewRemoteClient(srv.URL, token)
	if err != nil {
		t.Fatalf("NewRemoteClient: %v", err)
	}
	defer client.Close()

	entry := Entry{FileName: "main.js", Code: []byte("console.log(1)")}
	if err := client.Push(context.Background(), "some-key", entry); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if !strings.HasPrefix(gotUserAgent, "forge/") {
		t.Errorf("User-Agent = %q, want forge/... prefix", gotUserAgent)
	}
}

func TestNewRemoteClient_RejectsMalformedToken(t *testing.T) {
	if _, err := NewRemoteClient("http://example.invalid", "not-a-token"); err == nil {
		t.Error("NewRemoteClient should reject a malformed token")
	}
}
