package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/apperror"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

type TransitionCallInput struct {
	Status     models.CallStatus
	AttendedBy string
	Notes      *string
}

type CallFilter struct {
	Status      *models.CallStatus
	TableNumber *uint
	// UrgencyFirst pages in worklist order instead of newest first.
	UrgencyFirst bool
}

// WaiterCallService records service calls from tables and lets staff
// attend or cancel them.
type WaiterCallService struct {
	db       *gorm.DB
	clock    clockwork.Clock
	sessions SessionAuthorizer
}

func NewWaiterCallService(db *gorm.DB, clock clockwork.Clock, sessions SessionAuthorizer) *WaiterCallService {
	return &WaiterCallService{db: db, clock: clock, sessions: sessions}
}

func (s *WaiterCallService) Create(ctx context.Context, tableNumber uint, token, notes string) (*models.WaiterCall, error) {
	claims, err := s.sessions.Authorize(ctx, tableNumber, token)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	call := models.WaiterCall{
		TableNumber: tableNumber,
		SessionID:   claims.SessionID,
		Status:      models.CallPending,
		Timestamp:   now,
		Notes:       strings.TrimSpace(notes),
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&call).Error; err != nil {
		return nil, apperror.Internal(fmt.Errorf("creating waiter call: %w", err))
	}

	WaiterCallsCreated.Inc()
	utils.InfoLogger.WithFields(logrus.Fields{
		"call_id": call.ID,
		"table":   tableNumber,
	}).Info("waiter called")
	return &call, nil
}

// Transition follows the same rules as order transitions: same status is a
// no-op on open calls, terminal calls never move.
func (s *WaiterCallService) Transition(ctx context.Context, callID uint, in TransitionCallInput) (*models.WaiterCall, error) {
	if !in.Status.Valid() {
		return nil, apperror.Validation("unknown waiter call status %q", in.Status)
	}
	attendedBy := strings.TrimSpace(in.AttendedBy)
	if in.Status == models.CallAttended && attendedBy == "" {
		return nil, apperror.Validation("attended_by is required to attend a call")
	}

	for attempt := 0; attempt < transitionAttempts; attempt++ {
		call, err := s.Get(ctx, callID)
		if err != nil {
			return nil, err
		}

		current := call.Status
		if current.IsTerminal() || (in.Status != current && !current.CanTransitionTo(in.Status)) {
			return nil, apperror.InvalidTransition(string(current), string(in.Status))
		}

		now := s.clock.Now()
		updates := map[string]interface{}{"updated_at": now}
		if in.Status != current {
			updates["status"] = in.Status
		}
		if in.Status == models.CallAttended {
			updates["attended_by"] = attendedBy
			updates["attended_at"] = now
		}
		if in.Notes != nil {
			updates["notes"] = strings.TrimSpace(*in.Notes)
		}

		res := s.db.WithContext(ctx).Model(&models.WaiterCall{}).
			Where("id = ? AND status = ?", callID, current).
			Updates(updates)
		if res.Error != nil {
			return nil, apperror.Internal(fmt.Errorf("updating waiter call: %w", res.Error))
		}
		if res.RowsAffected == 0 {
			continue
		}

		if in.Status != current {
			StatusTransitions.WithLabelValues("waiter_call", string(current), string(in.Status)).Inc()
			utils.InfoLogger.WithFields(logrus.Fields{
				"call_id":     callID,
				"from":        current,
				"to":          in.Status,
				"attended_by": attendedBy,
			}).Info("waiter call status changed")
		}
		return s.Get(ctx, callID)
	}

	return nil, apperror.Conflict("waiter call %d is being updated concurrently, please retry", callID)
}

func (s *WaiterCallService) Get(ctx context.Context, callID uint) (*models.WaiterCall, error) {
	var call models.WaiterCall
	if err := s.db.WithContext(ctx).First(&call, callID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("waiter call %d not found", callID)
		}
		return nil, apperror.Internal(fmt.Errorf("loading waiter call: %w", err))
	}
	return &call, nil
}

// List returns one page of calls, newest first unless the filter asks for
// worklist order, and the filtered total.
func (s *WaiterCallService) List(ctx context.Context, filter CallFilter, page, limit int) ([]models.WaiterCall, int64, error) {
	page, limit = NormalizePage(page, limit)

	query := s.db.WithContext(ctx).Model(&models.WaiterCall{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.TableNumber != nil {
		query = query.Where("table_number = ?", *filter.TableNumber)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("counting waiter calls: %w", err))
	}

	listing := query
	if filter.UrgencyFirst {
		listing = listing.Clauses(worklistOrder(string(models.CallPending), "timestamp"))
	} else {
		listing = listing.Order("timestamp DESC").Order("id DESC")
	}

	var calls []models.WaiterCall
	err := listing.
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&calls).Error
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("listing waiter calls: %w", err))
	}
	return calls, total, nil
}
