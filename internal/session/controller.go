// Package session owns the admin access token: login, persisted restore,
// refresh before expiry and logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"okhouse/internal/domain"
	"okhouse/internal/events"
	"okhouse/internal/logging"
	"okhouse/internal/metrics"
	"okhouse/internal/models"
	"okhouse/internal/token"

	"github.com/rs/zerolog"
)

type State int

const (
	LoggedOut State = iota
	Authenticating
	LoggedIn
	Refreshing
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case Authenticating:
		return "authenticating"
	case LoggedIn:
		return "logged_in"
	case Refreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options tunes a Controller. Zero values use the defaults.
type Options struct {
	// MonitorInterval is the period of the background token check.
	MonitorInterval time.Duration
	// RefreshThreshold is the remaining lifetime that triggers a refresh.
	RefreshThreshold time.Duration
	// PersistKey names the persisted token slot.
	PersistKey string
	// LogoutTimeout bounds the best-effort remote logout call.
	LogoutTimeout time.Duration
	// Now is the clock used for token analysis.
	Now func() time.Time
	// OnLogout runs after an active session is torn down, e.g. to leave an
	// admin route.
	OnLogout func(reason string)
}

func (o *Options) applyDefaults() {
	if o.MonitorInterval <= 0 {
		o.MonitorInterval = models.DefaultMonitorInterval * time.Second
	}
	if o.RefreshThreshold <= 0 {
		o.RefreshThreshold = models.DefaultRefreshThreshold * time.Second
	}
	if o.PersistKey == "" {
		o.PersistKey = models.DefaultPersistKey
	}
	if o.LogoutTimeout <= 0 {
		o.LogoutTimeout = 5 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Logout reasons passed to Options.OnLogout.
const (
	ReasonManual        = "manual"
	ReasonRefreshFailed = "refresh_failed"
	ReasonUnauthorized  = "unauthorized"
)

// Controller is the single owner of the admin session.
type Controller struct {
	auth     domain.AuthAPI
	store    domain.TokenStore
	events   domain.EventPublisher
	analyzer *token.Analyzer
	logger   *zerolog.Logger
	opts     Options

	mu       sync.Mutex
	state    State
	token    string
	identity models.AdminIdentity
	// epoch changes on every logout; in-flight calls compare it before
	// committing their result.
	epoch uint64

	monitor monitor
}

func NewController(auth domain.AuthAPI, store domain.TokenStore, publisher domain.EventPublisher, logger *zerolog.Logger, opts Options) *Controller {
	opts.applyDefaults()
	return &Controller{
		auth:     auth,
		store:    store,
		events:   publisher,
		analyzer: token.NewAnalyzer(opts.RefreshThreshold),
		logger:   logging.Component(logger, "session"),
		opts:     opts,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the cached admin identity without a backend call.
func (c *Controller) Identity() models.AdminIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// AccessToken returns the in-memory token, or "" without a session.
func (c *Controller) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// TokenStatus analyzes the current token.
func (c *Controller) TokenStatus() token.Status {
	return c.analyzer.Analyze(c.AccessToken(), c.opts.Now())
}

// VerifyAndLogin exchanges a phone number for a session. On failure the
// session stays as it was and the error is returned unchanged.
func (c *Controller) VerifyAndLogin(ctx context.Context, phone string) (models.AdminIdentity, error) {
	c.mu.Lock()
	prev := c.state
	c.state = Authenticating
	epoch := c.epoch
	c.mu.Unlock()

	grant, err := c.auth.VerifyPhone(ctx, phone)
	if err == nil && (grant == nil || grant.AccessToken == "") {
		err = domain.NewError(domain.ErrServer, "", errors.New("verification returned no access token"))
	}
	if err != nil {
		c.mu.Lock()
		if c.epoch == epoch && c.state == Authenticating {
			c.state = prev
		}
		c.mu.Unlock()
		c.logger.Warn().Err(err).Str("phone", logging.MaskPhone(phone)).Msg("phone verification failed")
		return models.AdminIdentity{}, err
	}

	identity := models.AdminIdentity{ID: grant.AdminID, Name: grant.AdminName, Phone: phone}
	if err := c.commit(ctx, epoch, grant.AccessToken, identity); err != nil {
		return models.AdminIdentity{}, err
	}

	c.logger.Info().Int64("admin_id", identity.ID).Str("phone", logging.MaskPhone(phone)).Msg("admin logged in")
	c.publish(events.EventSessionLoggedIn, identity, "")
	return identity, nil
}

// Refresh renews the access token with the credential the transport holds.
// Any failure ends the session. A success that lands after a logout is
// dropped so the session is not resurrected.
func (c *Controller) Refresh(ctx context.Context) (models.AdminIdentity, error) {
	c.mu.Lock()
	epoch := c.epoch
	if c.state == LoggedIn {
		c.state = Refreshing
	}
	c.mu.Unlock()

	grant, err := c.auth.Refresh(ctx)
	if err == nil && (grant == nil || grant.AccessToken == "") {
		err = errors.New("refresh returned no access token")
	}
	if err != nil {
		metrics.IncRefresh(false)
		c.logger.Warn().Err(err).Msg("token refresh failed")
		if c.currentEpoch() == epoch {
			c.logout(ctx, ReasonRefreshFailed)
		}
		return models.AdminIdentity{}, fmt.Errorf("%w: %w", domain.ErrAuthenticationExpired, err)
	}

	identity := models.AdminIdentity{ID: grant.AdminID, Name: grant.AdminName}
	if prev := c.Identity(); prev.ID == identity.ID {
		identity.Phone = prev.Phone
	}
	if err := c.commit(ctx, epoch, grant.AccessToken, identity); err != nil {
		return models.AdminIdentity{}, err
	}

	metrics.IncRefresh(true)
	c.logger.Debug().Int64("admin_id", identity.ID).Msg("access token refreshed")
	c.publish(events.EventSessionRefreshed, identity, "")
	return identity, nil
}

// CurrentIdentity asks the backend who holds the current token, refreshing
// once if that fails.
func (c *Controller) CurrentIdentity(ctx context.Context) (models.AdminIdentity, error) {
	c.mu.Lock()
	tok, epoch := c.token, c.epoch
	c.mu.Unlock()
	if tok == "" {
		return models.AdminIdentity{}, domain.ErrNoSession
	}

	identity, err := c.auth.WhoAmI(ctx, tok)
	if err == nil && identity != nil {
		c.mu.Lock()
		if c.epoch == epoch && c.token == tok {
			c.identity = *identity
		}
		c.mu.Unlock()
		return *identity, nil
	}

	c.logger.Debug().Err(err).Msg("who-am-i failed, refreshing")
	return c.Refresh(ctx)
}

// Restore resumes a session at startup: the persisted token is used if the
// backend still accepts it, otherwise the refresh credential is tried.
func (c *Controller) Restore(ctx context.Context) (models.AdminIdentity, error) {
	stored, err := c.store.Get(ctx, c.opts.PersistKey)
	if err != nil {
		c.logger.Warn().Err(err).Msg("read persisted token")
	}

	if stored != "" && !c.analyzer.Analyze(stored, c.opts.Now()).IsExpired {
		c.mu.Lock()
		epoch := c.epoch
		c.token = stored
		c.state = Authenticating
		c.mu.Unlock()

		identity, err := c.auth.WhoAmI(ctx, stored)
		if err == nil && identity != nil {
			if err := c.commit(ctx, epoch, stored, *identity); err != nil {
				return models.AdminIdentity{}, err
			}
			c.logger.Info().Int64("admin_id", identity.ID).Msg("session restored")
			return *identity, nil
		}
		c.logger.Debug().Err(err).Msg("persisted token rejected")
	}

	return c.Refresh(ctx)
}

// Logout tears the session down. The remote call is best effort.
func (c *Controller) Logout(ctx context.Context) {
	c.logout(ctx, ReasonManual)
}

// Expire is Logout for a session the backend rejected.
func (c *Controller) Expire(ctx context.Context) {
	c.logout(ctx, ReasonUnauthorized)
}

// StartMonitor begins background token checks for a logged-in session.
// It reports whether a new monitor was started.
func (c *Controller) StartMonitor() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return false
	}
	return c.startMonitorLocked()
}

// StopMonitor reports whether a running monitor was stopped.
func (c *Controller) StopMonitor() bool {
	return c.monitor.stop()
}

func (c *Controller) MonitorRunning() bool {
	return c.monitor.running()
}

// commit installs a new token unless a logout happened since epoch.
func (c *Controller) commit(ctx context.Context, epoch uint64, tok string, identity models.AdminIdentity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		c.logger.Debug().Msg("discarding token issued before logout")
		return domain.ErrNoSession
	}

	c.token = tok
	c.identity = identity
	c.state = LoggedIn
	if err := c.store.Set(ctx, c.opts.PersistKey, tok); err != nil {
		c.logger.Warn().Err(err).Msg("persist access token")
	}
	c.startMonitorLocked()
	return nil
}

func (c *Controller) logout(ctx context.Context, reason string) {
	c.mu.Lock()
	c.epoch++
	tok := c.token
	identity := c.identity
	active := tok != "" || c.state != LoggedOut
	c.token = ""
	c.identity = models.AdminIdentity{}
	c.state = LoggedOut
	c.monitor.stop()
	if err := c.store.Clear(context.WithoutCancel(ctx), c.opts.PersistKey); err != nil {
		c.logger.Warn().Err(err).Msg("clear persisted token")
	}
	c.mu.Unlock()

	if tok != "" {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.LogoutTimeout)
		if err := c.auth.Logout(callCtx, tok); err != nil {
			c.logger.Warn().Err(err).Msg("remote logout failed")
		}
		cancel()
	}

	if !active {
		return
	}
	metrics.IncLogout(reason)
	c.logger.Info().Str("reason", reason).Int64("admin_id", identity.ID).Msg("admin logged out")
	c.publish(events.EventSessionLoggedOut, identity, reason)
	if c.opts.OnLogout != nil {
		c.opts.OnLogout(reason)
	}
}

func (c *Controller) startMonitorLocked() bool {
	return c.monitor.start(c.opts.MonitorInterval, c.check)
}

// check is one monitor tick. The refresh it starts is not cut short by a
// monitor stop.
func (c *Controller) check(ctx context.Context) {
	metrics.IncMonitorTick()
	status := c.TokenStatus()
	if !status.NeedsRefresh {
		return
	}
	c.logger.Debug().Int64("seconds_remaining", status.SecondsRemaining).Msg("token needs refresh")
	if _, err := c.Refresh(context.WithoutCancel(ctx)); err != nil {
		c.logger.Warn().Err(err).Msg("monitor refresh failed, session ended")
	}
}

func (c *Controller) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func (c *Controller) publish(eventType string, identity models.AdminIdentity, reason string) {
	if c.events == nil {
		return
	}
	payload := events.SessionEventPayload{
		AdminID:   identity.ID,
		AdminName: identity.Name,
		Reason:    reason,
		At:        c.opts.Now(),
	}
	if err := c.events.PublishJSON(eventType, payload); err != nil {
		c.logger.Warn().Err(err).Str("event", eventType).Msg("publish session event")
	}
}
