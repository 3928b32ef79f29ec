package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/apperror"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultSessionTTL is the lifetime of a table session token.
const DefaultSessionTTL = 120 * time.Second

// Token layout: issuedAt(base36 ms) - nonce(hex) - table(decimal) - session(hex) - checksum(hex).
const (
	tokenSeparator  = "-"
	tokenSegments   = 5
	issuedAtLen     = 9
	nonceLen        = 16
	tableLen        = 6
	sessionIDLen    = 32
	checksumLen     = 8
	maxTableNumber  = 999999
	base36Alphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	hexAlphabet     = "0123456789abcdef"
	decimalAlphabet = "0123456789"
)

var segmentSpecs = [tokenSegments]struct {
	length   int
	alphabet string
}{
	{issuedAtLen, base36Alphabet},
	{nonceLen, hexAlphabet},
	{tableLen, decimalAlphabet},
	{sessionIDLen, hexAlphabet},
	{checksumLen, hexAlphabet},
}

// TokenClaims is what a well-formed token says about itself.
type TokenClaims struct {
	IssuedAt    time.Time
	TableNumber uint
	SessionID   string
}

// ValidationResult is the outcome of SessionTokenService.Validate.
type ValidationResult struct {
	Valid     bool
	IsExpired bool
	Claims    *TokenClaims
	// ExpiresAt is the effective expiry used for the decision, zero when the
	// token did not parse.
	ExpiresAt time.Time
}

// SessionTokenService issues and checks self-describing table tokens.
// The TableSession mirror is optional: with a nil db the token alone decides.
type SessionTokenService struct {
	db       *gorm.DB
	clock    clockwork.Clock
	secret   []byte
	ttl      time.Duration
	throttle RefreshThrottle
}

type SessionTokenOption func(*SessionTokenService)

func WithSessionTTL(ttl time.Duration) SessionTokenOption {
	return func(s *SessionTokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithRefreshThrottle(t RefreshThrottle) SessionTokenOption {
	return func(s *SessionTokenService) {
		if t != nil {
			s.throttle = t
		}
	}
}

func NewSessionTokenService(db *gorm.DB, clock clockwork.Clock, secret string, opts ...SessionTokenOption) *SessionTokenService {
	s := &SessionTokenService{
		db:     db,
		clock:  clock,
		secret: []byte(secret),
		ttl:    DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.throttle == nil {
		s.throttle = NewMemoryThrottle(clock, DefaultRefreshCooldown)
	}
	return s
}

func (s *SessionTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a token for tableNumber and makes it the table's active session.
func (s *SessionTokenService) Issue(ctx context.Context, tableNumber uint) (string, time.Time, error) {
	return s.issue(ctx, tableNumber, "verify")
}

func (s *SessionTokenService) issue(ctx context.Context, tableNumber uint, reason string) (string, time.Time, error) {
	if tableNumber == 0 || tableNumber > maxTableNumber {
		return "", time.Time{}, apperror.Validation("table number %d out of range", tableNumber)
	}

	now := s.clock.Now()
	nonce := make([]byte, nonceLen/2)
	if _, err := rand.Read(nonce); err != nil {
		return "", time.Time{}, apperror.Internal(fmt.Errorf("reading nonce: %w", err))
	}
	sessionID := strings.ReplaceAll(uuid.NewString(), "-", "")

	body := strings.Join([]string{
		padLeft(strconv.FormatInt(now.UnixMilli(), 36), issuedAtLen),
		hex.EncodeToString(nonce),
		padLeft(strconv.FormatUint(uint64(tableNumber), 10), tableLen),
		sessionID,
	}, tokenSeparator)
	token := body + tokenSeparator + s.checksum(body)
	expiresAt := now.Add(s.ttl)

	if err := s.upsertMirror(ctx, tableNumber, sessionID, now, expiresAt); err != nil {
		return "", time.Time{}, err
	}

	SessionTokensIssued.WithLabelValues(reason).Inc()
	utils.InfoLogger.WithFields(logrus.Fields{
		"table":      tableNumber,
		"reason":     reason,
		"expires_at": expiresAt.UnixMilli(),
	}).Info("table session token issued")

	return token, expiresAt, nil
}

// Validate checks token for tableNumber. claimedExpiry (epoch ms) is the
// expiry the holder was given; it is honoured up to issuedAt+TTL.
// Only store failures are returned as errors.
func (s *SessionTokenService) Validate(ctx context.Context, tableNumber uint, token string, claimedExpiry *int64) (ValidationResult, error) {
	claims, err := s.Parse(token)
	if err != nil {
		SessionValidations.WithLabelValues("malformed").Inc()
		return ValidationResult{}, nil
	}
	if claims.TableNumber != tableNumber {
		SessionValidations.WithLabelValues("malformed").Inc()
		return ValidationResult{}, nil
	}

	now := s.clock.Now()
	expiresAt := claims.IssuedAt.Add(s.ttl)
	if claimedExpiry != nil {
		claimed := time.UnixMilli(*claimedExpiry)
		if claimed.Before(expiresAt) {
			expiresAt = claimed
		}
	}
	result := ValidationResult{Claims: claims, ExpiresAt: expiresAt}

	if !now.Before(expiresAt) {
		SessionValidations.WithLabelValues("expired").Inc()
		result.IsExpired = true
		return result, nil
	}

	if s.db != nil {
		var mirror models.TableSession
		err := s.db.WithContext(ctx).Where("table_number = ?", tableNumber).First(&mirror).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// token alone decides
		case err != nil:
			return ValidationResult{}, apperror.Internal(fmt.Errorf("loading table session: %w", err))
		case mirror.SessionID != claims.SessionID:
			SessionValidations.WithLabelValues("superseded").Inc()
			return ValidationResult{Claims: claims}, nil
		default:
			if err := s.db.WithContext(ctx).Model(&models.TableSession{}).
				Where("id = ?", mirror.ID).
				Update("last_validated_at", now).Error; err != nil {
				return ValidationResult{}, apperror.Internal(fmt.Errorf("touching table session: %w", err))
			}
		}
	}

	SessionValidations.WithLabelValues("valid").Inc()
	result.Valid = true
	return result, nil
}

// Authorize is Validate folded into an error, for callers that act on
// behalf of the table.
func (s *SessionTokenService) Authorize(ctx context.Context, tableNumber uint, token string) (*TokenClaims, error) {
	result, err := s.Validate(ctx, tableNumber, token, nil)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, apperror.SessionInvalid(result.IsExpired)
	}
	return result.Claims, nil
}

// Refresh re-issues a still-valid token with a fresh expiry. Calls inside
// the cooldown get the current token back unchanged.
func (s *SessionTokenService) Refresh(ctx context.Context, tableNumber uint, token string) (string, time.Time, error) {
	result, err := s.Validate(ctx, tableNumber, token, nil)
	if err != nil {
		return "", time.Time{}, err
	}
	if !result.Valid {
		return "", time.Time{}, apperror.SessionInvalid(result.IsExpired)
	}

	allowed, err := s.throttle.Allow(ctx, strconv.FormatUint(uint64(tableNumber), 10))
	if err != nil {
		// a broken throttle must not lock tables out
		utils.ErrorLogger.WithError(err).Warn("refresh throttle unavailable")
		allowed = true
	}
	if !allowed {
		utils.InfoLogger.WithField("table", tableNumber).Debug("refresh throttled")
		return token, result.ExpiresAt, nil
	}

	return s.issue(ctx, tableNumber, "refresh")
}

// Parse checks the fixed format and checksum and decodes the claims.
func (s *SessionTokenService) Parse(token string) (*TokenClaims, error) {
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != tokenSegments {
		return nil, fmt.Errorf("token has %d segments", len(parts))
	}
	for i, part := range parts {
		spec := segmentSpecs[i]
		if len(part) != spec.length {
			return nil, fmt.Errorf("segment %d has length %d", i, len(part))
		}
		if strings.Trim(part, spec.alphabet) != "" {
			return nil, fmt.Errorf("segment %d has invalid characters", i)
		}
	}

	body := strings.Join(parts[:4], tokenSeparator)
	if !hmac.Equal([]byte(parts[4]), []byte(s.checksum(body))) {
		return nil, errors.New("checksum mismatch")
	}

	issuedMs, err := strconv.ParseInt(parts[0], 36, 64)
	if err != nil {
		return nil, fmt.Errorf("issued at: %w", err)
	}
	table, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}

	return &TokenClaims{
		IssuedAt:    time.UnixMilli(issuedMs),
		TableNumber: uint(table),
		SessionID:   parts[3],
	}, nil
}

func (s *SessionTokenService) checksum(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))[:checksumLen]
}

func (s *SessionTokenService) upsertMirror(ctx context.Context, tableNumber uint, sessionID string, now, expiresAt time.Time) error {
	if s.db == nil {
		return nil
	}
	mirror := models.TableSession{
		TableNumber: tableNumber,
		SessionID:   sessionID,
		ExpiresAt:   expiresAt,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "table_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_id", "expires_at", "is_active", "updated_at"}),
	}).Create(&mirror).Error
	if err != nil {
		return apperror.Internal(fmt.Errorf("saving table session: %w", err))
	}
	return nil
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
