package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/utils"
)

const (
	DefaultActivityCooldown = 4 * time.Second
	countdownTick           = time.Second
)

// ErrSessionEnded is returned once the server has rejected the session; the
// holder must verify the table code again.
var ErrSessionEnded = errors.New("table session ended")

type SessionState int

const (
	SessionActive SessionState = iota
	SessionExpired
	// SessionInvalid means the server rejected the token for a reason other
	// than age, e.g. it was superseded by a newer verification.
	SessionInvalid
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionExpired:
		return "expired"
	case SessionInvalid:
		return "invalid"
	}
	return "unknown"
}

type sessionPayload struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	Refreshed bool   `json:"refreshed"`
}

// TableSession is the customer-side holder of a table session token.
type TableSession struct {
	api      *Client
	clock    clockwork.Clock
	table    uint
	cooldown time.Duration

	mu          sync.Mutex
	token       string
	expiresAt   time.Time
	state       SessionState
	lastRefresh time.Time

	refreshing atomic.Bool
}

type SessionOption func(*TableSession)

func WithClock(clock clockwork.Clock) SessionOption {
	return func(s *TableSession) { s.clock = clock }
}

func WithActivityCooldown(d time.Duration) SessionOption {
	return func(s *TableSession) { s.cooldown = d }
}

// VerifyTable exchanges the printed security code for a session.
func (c *Client) VerifyTable(ctx context.Context, table uint, securityCode string, opts ...SessionOption) (*TableSession, error) {
	var payload sessionPayload
	body := map[string]string{"security_code": securityCode}
	if err := c.do(ctx, http.MethodPost, tablePath(table, "/verify"), "", body, &payload); err != nil {
		return nil, err
	}

	s := &TableSession{
		api:      c,
		clock:    clockwork.NewRealClock(),
		table:    table,
		cooldown: DefaultActivityCooldown,
		token:    payload.Token,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.expiresAt = time.UnixMilli(payload.ExpiresAt)
	s.lastRefresh = s.clock.Now()
	return s, nil
}

func tablePath(table uint, suffix string) string {
	return "/tables/" + strconv.FormatUint(uint64(table), 10) + suffix
}

func (s *TableSession) Table() uint { return s.table }

func (s *TableSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *TableSession) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// State is the last known state; an active session past its expiry reads as
// expired without asking the server.
func (s *TableSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *TableSession) stateLocked() SessionState {
	if s.state == SessionActive && !s.clock.Now().Before(s.expiresAt) {
		return SessionExpired
	}
	return s.state
}

// Remaining is the time left before the known expiry, never negative.
func (s *TableSession) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionActive {
		return 0
	}
	left := s.expiresAt.Sub(s.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// RunCountdown calls fn with the remaining time once per second until the
// session runs out or ctx is done. It never touches the network.
func (s *TableSession) RunCountdown(ctx context.Context, fn func(remaining time.Duration)) {
	left := s.Remaining()
	fn(left)
	if left == 0 {
		return
	}

	ticker := s.clock.NewTicker(countdownTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			left := s.Remaining()
			fn(left)
			if left == 0 {
				return
			}
		}
	}
}

// Activity refreshes the token in response to user activity. At most one
// attempt is made per cooldown, whether or not it succeeds; calls inside the
// cooldown, or while another refresh is in flight, are dropped and report
// false.
func (s *TableSession) Activity(ctx context.Context) (bool, error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		return false, nil
	}
	defer s.refreshing.Store(false)

	s.mu.Lock()
	if s.stateLocked() != SessionActive {
		s.mu.Unlock()
		return false, ErrSessionEnded
	}
	if s.clock.Since(s.lastRefresh) < s.cooldown {
		s.mu.Unlock()
		return false, nil
	}
	s.lastRefresh = s.clock.Now()
	token := s.token
	s.mu.Unlock()

	var payload sessionPayload
	err := s.api.do(ctx, http.MethodPost, tablePath(s.table, "/session/refresh"), "", map[string]string{"token": token}, &payload)
	if err != nil {
		if apiErr, ok := isServerAnswer(err); ok && apiErr.SessionRejected() {
			s.end(apiErr.IsExpired)
			return false, ErrSessionEnded
		}
		return false, fmt.Errorf("refresh session: %w", err)
	}

	s.mu.Lock()
	s.token = payload.Token
	s.expiresAt = time.UnixMilli(payload.ExpiresAt)
	s.mu.Unlock()
	return payload.Refreshed, nil
}

// Revalidate asks the server whether the session still holds. Transport and
// server-side failures keep the last known expiry; only a definite rejection
// from the server ends the session.
func (s *TableSession) Revalidate(ctx context.Context) SessionState {
	s.mu.Lock()
	if s.state != SessionActive {
		state := s.state
		s.mu.Unlock()
		return state
	}
	body := map[string]interface{}{
		"token":          s.token,
		"claimed_expiry": s.expiresAt.UnixMilli(),
	}
	s.mu.Unlock()

	var payload sessionPayload
	err := s.api.do(ctx, http.MethodPost, tablePath(s.table, "/session/validate"), "", body, &payload)
	if err == nil {
		s.mu.Lock()
		if payload.ExpiresAt > 0 {
			s.expiresAt = time.UnixMilli(payload.ExpiresAt)
		}
		state := s.stateLocked()
		s.mu.Unlock()
		return state
	}

	if apiErr, ok := isServerAnswer(err); ok && apiErr.SessionRejected() {
		s.end(apiErr.IsExpired)
		return s.State()
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table": s.table,
	}).WithError(err).Warn("session revalidation failed, keeping last known expiry")
	return s.State()
}

func (s *TableSession) end(expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expired {
		s.state = SessionExpired
	} else {
		s.state = SessionInvalid
	}
}
