package betfair

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
)

type identityServer struct {
	logins      atomic.Int32
	keepAlives  atomic.Int32
	keepAliveOK bool
}

func (s *identityServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/certlogin", func(w http.ResponseWriter, r *http.Request) {
		n := s.logins.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "punter", r.PostForm.Get("username"))
		assert.Equal(t, "app-key", r.Header.Get("X-Application"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sessionToken": "session-" + string(rune('0'+n)),
			"loginStatus":  "SUCCESS",
		})
	})
	mux.HandleFunc("/api/keepAlive", func(w http.ResponseWriter, r *http.Request) {
		s.keepAlives.Add(1)
		status := "FAIL"
		if s.keepAliveOK {
			status = "SUCCESS"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": r.Header.Get("X-Authentication"), "status": status})
	})
	return mux
}

func newTestAuthenticator(t *testing.T, baseURL string, now *time.Time) *Authenticator {
	t.Helper()
	auth, err := NewAuthenticator(config.BetfairConfig{
		AppKey:          "app-key",
		Username:        "punter",
		Password:        "secret",
		IdentityCertURL: baseURL + "/api/certlogin",
		IdentityURL:     baseURL,
		SessionCache:    filepath.Join(t.TempDir(), "session.json"),
		Timeout:         5 * time.Second,
	})
	require.NoError(t, err)
	auth.now = func() time.Time { return *now }
	return auth
}

func TestAuthenticatorLoginAndCache(t *testing.T) {
	ids := &identityServer{keepAliveOK: true}
	srv := httptest.NewServer(ids.handler(t))
	defer srv.Close()

	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(t, srv.URL, &now)

	tok, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-1", tok)

	now = now.Add(10 * time.Minute)
	tok, err = auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-1", tok)
	assert.Equal(t, int32(1), ids.logins.Load())
	assert.Equal(t, int32(0), ids.keepAlives.Load())

	data, err := os.ReadFile(auth.cachePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session-1")

	// a fresh process picks the session up from the cache file
	other := newTestAuthenticator(t, srv.URL, &now)
	other.cachePath = auth.cachePath
	tok, err = other.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-1", tok)
	assert.Equal(t, int32(1), ids.logins.Load())
}

func TestAuthenticatorKeepAlive(t *testing.T) {
	ids := &identityServer{keepAliveOK: true}
	srv := httptest.NewServer(ids.handler(t))
	defer srv.Close()

	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(t, srv.URL, &now)
	_, err := auth.Token(context.Background())
	require.NoError(t, err)

	now = now.Add(61 * time.Minute)
	tok, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-1", tok)
	assert.Equal(t, int32(1), ids.keepAlives.Load())
	assert.Equal(t, now.UTC(), auth.session.LastKeepAlive)
}

func TestAuthenticatorKeepAliveFailureRelogs(t *testing.T) {
	ids := &identityServer{keepAliveOK: false}
	srv := httptest.NewServer(ids.handler(t))
	defer srv.Close()

	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(t, srv.URL, &now)
	_, err := auth.Token(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	tok, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-2", tok)
	assert.Equal(t, int32(2), ids.logins.Load())
}

func TestAuthenticatorHardExpiry(t *testing.T) {
	ids := &identityServer{keepAliveOK: true}
	srv := httptest.NewServer(ids.handler(t))
	defer srv.Close()

	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(t, srv.URL, &now)
	_, err := auth.Token(context.Background())
	require.NoError(t, err)

	now = now.Add(10 * time.Hour)
	tok, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-2", tok)
	assert.Equal(t, int32(0), ids.keepAlives.Load())
}

func TestAuthenticatorInvalidate(t *testing.T) {
	ids := &identityServer{keepAliveOK: true}
	srv := httptest.NewServer(ids.handler(t))
	defer srv.Close()

	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(t, srv.URL, &now)
	_, err := auth.Token(context.Background())
	require.NoError(t, err)

	auth.Invalidate()
	_, statErr := os.Stat(auth.cachePath)
	assert.True(t, os.IsNotExist(statErr))

	tok, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-2", tok)
}

func TestAuthenticatorRequiresCredentials(t *testing.T) {
	now := time.Now()
	auth := newTestAuthenticator(t, "http://127.0.0.1:0", &now)
	auth.username = ""
	_, err := auth.Token(context.Background())
	assert.Error(t, err)
}

func TestNewSessionProviderStatic(t *testing.T) {
	p, err := NewSessionProvider(config.BetfairConfig{SessionToken: "static-token"})
	require.NoError(t, err)
	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "static-token", tok)
}
