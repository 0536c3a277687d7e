// Package api talks to the reservation backend. Gateway gates admin-scoped
// calls on the session; AuthClient and ReservationsClient are thin
// endpoint wrappers on top of it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"okhouse/internal/config"
	"okhouse/internal/domain"
	"okhouse/internal/logging"
	"okhouse/internal/metrics"
	"okhouse/internal/token"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	PathAdminVerifyPhone = "/admin/auth/verify-phone"
	PathAdminRefresh     = "/admin/auth/refresh"
	PathAdminMe          = "/admin/auth/me"
	PathAdminLogout      = "/admin/auth/logout"

	headerRequestID = "X-Request-ID"
	maxBodyBytes    = 4 << 20
)

// Request is one backend call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Token, when set, is sent as the bearer credential and the call skips
	// session gating.
	Token string
	// Ungated skips session gating without a token.
	Ungated bool
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NoContent reports whether the backend sent an empty success.
func (r *Response) NoContent() bool {
	return r.Status == http.StatusNoContent || len(r.Body) == 0
}

// Decode unmarshals the body into out. Empty bodies decode to nothing.
func (r *Response) Decode(out any) error {
	if out == nil || r.NoContent() {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return domain.NewError(domain.ErrServer, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Gateway sends backend requests, attaching and renewing the admin token.
type Gateway struct {
	baseURL          string
	privilegedPrefix string
	exempt           map[string]bool
	httpClient       *http.Client
	limiter          *rate.Limiter
	analyzer         *token.Analyzer
	now              func() time.Time
	logger           *zerolog.Logger

	mu      sync.RWMutex
	session domain.Session
}

// NewGateway builds a gateway from the api config. threshold is the token
// lifetime below which a privileged call refreshes first.
func NewGateway(cfg config.APIConfig, threshold time.Duration, logger *zerolog.Logger) (*Gateway, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	prefix := cfg.PrivilegedPrefix
	if prefix == "" {
		prefix = "/admin/"
	}

	g := &Gateway{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		privilegedPrefix: prefix,
		exempt:           map[string]bool{PathAdminVerifyPhone: true, PathAdminRefresh: true},
		httpClient:       &http.Client{Timeout: cfg.RequestTimeout(), Jar: jar},
		analyzer:         token.NewAnalyzer(threshold),
		now:              time.Now,
		logger:           logging.Component(logger, "gateway"),
	}
	if cfg.RateLimit.RPS > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}
	return g, nil
}

// RegisterSession installs the session that gates privileged calls.
func (g *Gateway) RegisterSession(s domain.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = s
}

func (g *Gateway) currentSession() domain.Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// Privileged reports whether path needs an admin session.
func (g *Gateway) Privileged(path string) bool {
	return strings.HasPrefix(path, g.privilegedPrefix) && !g.exempt[strings.TrimRight(path, "/")]
}

// Do sends req and decodes a successful body into out.
func (g *Gateway) Do(ctx context.Context, req Request, out any) error {
	resp, err := g.Send(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Send performs req. Privileged calls without an explicit token get the
// session's token, refreshed first when it is close to expiry; a 401 on such
// a call ends the session.
func (g *Gateway) Send(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	gated := !req.Ungated && req.Token == "" && g.Privileged(req.Path)
	bearer := req.Token
	sess := g.currentSession()
	if gated && sess != nil {
		tok, err := g.ensureFresh(ctx, sess)
		if err != nil {
			return nil, err
		}
		bearer = tok
	}

	httpReq, requestID, err := g.newHTTPRequest(ctx, req, bearer)
	if err != nil {
		return nil, err
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, domain.NewError(domain.ErrNetwork, "", fmt.Errorf("rate limit wait: %w", err))
		}
	}

	route := routeLabel(req.Path)
	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		metrics.ObserveAPI(req.Method, route, "network", time.Since(start))
		g.logger.Warn().Err(err).Str("request_id", requestID).Str("method", req.Method).Str("path", req.Path).Msg("backend unreachable")
		return nil, domain.NewError(domain.ErrNetwork, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.ObserveAPI(req.Method, route, "network", time.Since(start))
		return nil, domain.NewError(domain.ErrNetwork, "", fmt.Errorf("read response: %w", err))
	}
	elapsed := time.Since(start)

	g.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("backend call")

	switch {
	case resp.StatusCode == http.StatusNoContent:
		metrics.ObserveAPI(req.Method, route, "ok", elapsed)
		return &Response{Status: resp.StatusCode, Header: resp.Header}, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		metrics.ObserveAPI(req.Method, route, "ok", elapsed)
		return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
	case resp.StatusCode == http.StatusUnauthorized && gated:
		metrics.ObserveAPI(req.Method, route, "unauthorized", elapsed)
		g.logger.Warn().Str("request_id", requestID).Str("path", req.Path).Msg("privileged call rejected, ending session")
		if sess != nil {
			sess.Expire(ctx)
		}
		return nil, domain.NewError(domain.ErrAuthenticationExpired, "", &StatusError{Status: resp.StatusCode, Detail: extractMessage(body)})
	default:
		metrics.ObserveAPI(req.Method, route, fmt.Sprintf("%dxx", resp.StatusCode/100), elapsed)
		return nil, statusError(resp.StatusCode, body)
	}
}

// ensureFresh returns the session token, refreshing it first when needed.
func (g *Gateway) ensureFresh(ctx context.Context, sess domain.Session) (string, error) {
	tok := sess.AccessToken()
	if !g.analyzer.Analyze(tok, g.now()).NeedsRefresh {
		return tok, nil
	}

	if _, err := sess.Refresh(ctx); err != nil {
		if errors.Is(err, domain.ErrAuthenticationExpired) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrAuthenticationExpired, err)
	}
	tok = sess.AccessToken()
	if tok == "" {
		return "", domain.ErrAuthenticationExpired
	}
	return tok, nil
}

func (g *Gateway) newHTTPRequest(ctx context.Context, req Request, bearer string) (*http.Request, string, error) {
	endpoint := g.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRequestID, requestID)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}
	return httpReq, requestID, nil
}

// routeLabel collapses numeric path segments so metric labels stay bounded.
func routeLabel(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = ":n"
		}
	}
	return strings.Join(parts, "/")
}
