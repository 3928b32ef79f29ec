package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/skip2/go-qrcode"
	"github.com/yeremiapane/cafe-ordering/apperror"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

const (
	securityCodeBytes = 4
	qrCodeSize        = 256
)

// SessionIssuer hands out table session tokens.
type SessionIssuer interface {
	Issue(ctx context.Context, tableNumber uint) (string, time.Time, error)
}

// TableStatus is a table with the state of its session mirror.
type TableStatus struct {
	TableNumber     uint       `json:"table_number"`
	Name            string     `json:"name"`
	IsActive        bool       `json:"is_active"`
	ExpiresAt       *time.Time `json:"expires_at"`
	LastValidatedAt *time.Time `json:"last_validated_at"`
}

type TableService struct {
	db      *gorm.DB
	clock   clockwork.Clock
	issuer  SessionIssuer
	baseURL string
}

func NewTableService(db *gorm.DB, clock clockwork.Clock, issuer SessionIssuer, baseURL string) *TableService {
	return &TableService{
		db:      db,
		clock:   clock,
		issuer:  issuer,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Create registers a table with a freshly generated security code.
func (s *TableService) Create(ctx context.Context, number uint, name string) (*models.Table, error) {
	if number == 0 || number > maxTableNumber {
		return nil, apperror.Validation("table number %d out of range", number)
	}

	raw := make([]byte, securityCodeBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, apperror.Internal(fmt.Errorf("generating security code: %w", err))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Table %d", number)
	}

	table := models.Table{
		Number:       number,
		Name:         name,
		SecurityCode: strings.ToUpper(hex.EncodeToString(raw)),
	}
	if err := s.db.WithContext(ctx).Create(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return nil, apperror.Conflict("table %d already exists", number)
		}
		return nil, apperror.Internal(fmt.Errorf("creating table: %w", err))
	}

	utils.InfoLogger.Printf("New table created: %d (%s)", table.Number, table.Name)
	return &table, nil
}

func (s *TableService) Get(ctx context.Context, number uint) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).Where("number = ?", number).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("table %d not found", number)
		}
		return nil, apperror.Internal(fmt.Errorf("loading table: %w", err))
	}
	return &table, nil
}

// Verify checks the printed security code and opens a session for the table.
func (s *TableService) Verify(ctx context.Context, number uint, code string) (string, time.Time, error) {
	table, err := s.Get(ctx, number)
	if err != nil {
		return "", time.Time{}, err
	}

	given := strings.ToUpper(strings.TrimSpace(code))
	if subtle.ConstantTimeCompare([]byte(given), []byte(table.SecurityCode)) != 1 {
		utils.InfoLogger.WithField("table", number).Warn("table verification failed")
		return "", time.Time{}, apperror.SessionInvalid(false)
	}

	return s.issuer.Issue(ctx, number)
}

// ListWithSessions returns every table with its session state. A mirror
// whose expiry has passed reports inactive.
func (s *TableService) ListWithSessions(ctx context.Context) ([]TableStatus, error) {
	var tables []models.Table
	if err := s.db.WithContext(ctx).Order("number ASC").Find(&tables).Error; err != nil {
		return nil, apperror.Internal(fmt.Errorf("listing tables: %w", err))
	}

	var sessions []models.TableSession
	if err := s.db.WithContext(ctx).Find(&sessions).Error; err != nil {
		return nil, apperror.Internal(fmt.Errorf("listing table sessions: %w", err))
	}
	byTable := make(map[uint]models.TableSession, len(sessions))
	for _, ts := range sessions {
		byTable[ts.TableNumber] = ts
	}

	now := s.clock.Now()
	out := make([]TableStatus, 0, len(tables))
	for _, t := range tables {
		status := TableStatus{TableNumber: t.Number, Name: t.Name}
		if ts, ok := byTable[t.Number]; ok {
			expiresAt := ts.ExpiresAt
			status.ExpiresAt = &expiresAt
			status.LastValidatedAt = ts.LastValidatedAt
			status.IsActive = ts.IsActive && now.Before(ts.ExpiresAt)
		}
		out = append(out, status)
	}
	return out, nil
}

// ScanURL is what the table's QR code points at.
func (s *TableService) ScanURL(table *models.Table) string {
	return fmt.Sprintf("%s/tables/%d?code=%s", s.baseURL, table.Number, table.SecurityCode)
}

// QRCode renders the table's scan URL as a PNG.
func (s *TableService) QRCode(ctx context.Context, number uint) ([]byte, error) {
	table, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.ScanURL(table), qrcode.Medium, qrCodeSize)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("encoding qr code: %w", err))
	}
	return png, nil
}
