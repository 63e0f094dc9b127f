package betfair

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
)

const rpcPrefix = "SportsAPING/v1.0/"

// SessionProvider hands out the X-Authentication token.
type SessionProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// StaticSession is a fixed, externally managed session token.
type StaticSession string

func (s StaticSession) Token(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("betfair: empty session token")
	}
	return string(s), nil
}

func (StaticSession) Invalidate() {}

// Client talks to the exchange betting JSON-RPC endpoint.
type Client struct {
	http       *resty.Client
	url        string
	appKey     string
	session    SessionProvider
	limiter    *rate.Limiter
	depth      int
	virtualise bool
	maxResults int
}

func NewClient(cfg config.BetfairConfig, session SessionProvider) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	virtualise := true
	if cfg.Virtualise != nil {
		virtualise = *cfg.Virtualise
	}
	return &Client{
		http:       resty.New().SetTimeout(timeout),
		url:        cfg.BettingURL,
		appKey:     cfg.AppKey,
		session:    session,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		depth:      max(cfg.BestPricesDepth, 1),
		virtualise: virtualise,
		maxResults: 200,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one RPC, re-authenticating once on an invalid session.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	err := c.callOnce(ctx, method, params, out)
	if errors.Is(err, ErrInvalidSession) {
		slog.Warn("Betfair session rejected, re-authenticating", "method", method)
		c.session.Invalidate()
		err = c.callOnce(ctx, method, params, out)
	}
	return err
}

func (c *Client) callOnce(ctx context.Context, method string, params, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	token, err := c.session.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session token: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Application", c.appKey).
		SetHeader("X-Authentication", token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody([]rpcRequest{{JSONRPC: "2.0", Method: rpcPrefix + method, Params: params, ID: 1}}).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("betfair %s: HTTP %d: %s", method, resp.StatusCode(), truncate(resp.String(), 300))
	}

	var envelopes []rpcResponse
	if err := json.Unmarshal(resp.Body(), &envelopes); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if len(envelopes) == 0 {
		return fmt.Errorf("betfair %s: empty response", method)
	}
	if envelopes[0].Error != nil {
		return newAPIError(method, envelopes[0].Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelopes[0].Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
