package betfair

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
)

const (
	keepAliveAfter = time.Hour
	sessionExpiry  = 10 * time.Hour
)

type cachedSession struct {
	SessionToken  string    `json:"session_token"`
	ObtainedAt    time.Time `json:"obtained_at"`
	LastKeepAlive time.Time `json:"last_keep_alive"`
}

// Authenticator performs non-interactive certificate login and keeps the
// session alive, persisting it to a cache file between runs.
type Authenticator struct {
	http         *resty.Client
	appKey       string
	username     string
	password     string
	certLoginURL string
	keepAliveURL string
	cachePath    string
	now          func() time.Time

	mu      sync.Mutex
	session *cachedSession
}

func NewAuthenticator(cfg config.BetfairConfig) (*Authenticator, error) {
	client := resty.New().SetTimeout(cfg.Timeout)
	if cfg.CertFile != "" || cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		client.SetCertificates(cert)
	}
	return &Authenticator{
		http:         client,
		appKey:       cfg.AppKey,
		username:     cfg.Username,
		password:     cfg.Password,
		certLoginURL: cfg.IdentityCertURL,
		keepAliveURL: cfg.IdentityURL + "/api/keepAlive",
		cachePath:    cfg.SessionCache,
		now:          time.Now,
	}, nil
}

// NewSessionProvider returns a static session when a token is configured,
// otherwise a certificate authenticator.
func NewSessionProvider(cfg config.BetfairConfig) (SessionProvider, error) {
	if cfg.SessionToken != "" {
		return StaticSession(cfg.SessionToken), nil
	}
	return NewAuthenticator(cfg)
}

func (a *Authenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		a.session = a.readCache()
	}
	if a.session == nil || a.now().Sub(a.session.ObtainedAt) >= sessionExpiry {
		if err := a.login(ctx); err != nil {
			return "", err
		}
		return a.session.SessionToken, nil
	}

	if a.now().Sub(a.session.LastKeepAlive) > keepAliveAfter {
		if err := a.keepAlive(ctx); err != nil {
			slog.Warn("Betfair keepAlive failed, logging in again", "error", err)
			if err := a.login(ctx); err != nil {
				return "", err
			}
		}
	}
	return a.session.SessionToken, nil
}

// Invalidate drops the in-memory and cached session.
func (a *Authenticator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = nil
	if a.cachePath != "" {
		if err := os.Remove(a.cachePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to remove session cache", "path", a.cachePath, "error", err)
		}
	}
}

type loginResponse struct {
	SessionToken string `json:"sessionToken"`
	LoginStatus  string `json:"loginStatus"`
}

func (a *Authenticator) login(ctx context.Context) error {
	if a.username == "" || a.password == "" {
		return errors.New("betfair: username and password are required for certificate login")
	}
	resp, err := a.http.R().
		SetContext(ctx).
		SetHeader("X-Application", a.appKey).
		SetHeader("Accept", "application/json").
		SetFormData(map[string]string{"username": a.username, "password": a.password}).
		Post(a.certLoginURL)
	if err != nil {
		return fmt.Errorf("failed to call certlogin: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("certlogin failed: HTTP %d: %s", resp.StatusCode(), truncate(resp.String(), 300))
	}

	var lr loginResponse
	if err := json.Unmarshal(resp.Body(), &lr); err != nil {
		return fmt.Errorf("failed to decode certlogin response: %w", err)
	}
	if lr.LoginStatus != "SUCCESS" || lr.SessionToken == "" {
		return fmt.Errorf("certlogin rejected: %s", lr.LoginStatus)
	}

	now := a.now().UTC()
	a.session = &cachedSession{SessionToken: lr.SessionToken, ObtainedAt: now, LastKeepAlive: now}
	a.writeCache()
	slog.Info("Betfair certificate login succeeded")
	return nil
}

type keepAliveResponse struct {
	Token  string `json:"token"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (a *Authenticator) keepAlive(ctx context.Context) error {
	resp, err := a.http.R().
		SetContext(ctx).
		SetHeader("X-Application", a.appKey).
		SetHeader("X-Authentication", a.session.SessionToken).
		SetHeader("Accept", "application/json").
		Post(a.keepAliveURL)
	if err != nil {
		return fmt.Errorf("failed to call keepAlive: %w", err)
	}
	var kr keepAliveResponse
	_ = json.Unmarshal(resp.Body(), &kr)
	if resp.IsError() || kr.Status != "SUCCESS" {
		return fmt.Errorf("keepAlive rejected: HTTP %d status=%q error=%q", resp.StatusCode(), kr.Status, kr.Error)
	}
	a.session.LastKeepAlive = a.now().UTC()
	a.writeCache()
	return nil
}

func (a *Authenticator) readCache() *cachedSession {
	if a.cachePath == "" {
		return nil
	}
	data, err := os.ReadFile(a.cachePath)
	if err != nil {
		return nil
	}
	var s cachedSession
	if err := json.Unmarshal(data, &s); err != nil || s.SessionToken == "" {
		return nil
	}
	return &s
}

func (a *Authenticator) writeCache() {
	if a.cachePath == "" || a.session == nil {
		return
	}
	data, err := json.MarshalIndent(a.session, "", "  ")
	if err == nil {
		if err = os.MkdirAll(filepath.Dir(a.cachePath), 0o700); err == nil {
			err = os.WriteFile(a.cachePath, data, 0o600)
		}
	}
	if err != nil {
		slog.Warn("Failed to write session cache", "path", a.cachePath, "error", err)
	}
}
