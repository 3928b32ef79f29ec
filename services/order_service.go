package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/apperror"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

const (
	DefaultPriceEpsilon  = 0.01
	DefaultEstimatedTime = 15

	// createAttempts is the first insert plus one regeneration after an
	// order number collision.
	createAttempts     = 2
	transitionAttempts = 3
)

var validPriorities = map[string]bool{"normal": true, "high": true, "urgent": true}

// SessionAuthorizer resolves a table token into its claims or a
// SessionInvalid error.
type SessionAuthorizer interface {
	Authorize(ctx context.Context, tableNumber uint, token string) (*TokenClaims, error)
}

// OrderNumberFunc produces a candidate order number for the given instant.
type OrderNumberFunc func(now time.Time) string

type OrderItemInput struct {
	ProductID uint     `json:"product_id"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Quantity  int      `json:"quantity"`
}

type CreateOrderInput struct {
	TableNumber  uint
	Token        string
	Items        []OrderItemInput
	ClaimedTotal float64
	Notes        string
	CustomerName string
	Priority     string
}

type TransitionOrderInput struct {
	Status        models.OrderStatus
	EstimatedTime *int
	Notes         *string
}

type OrderFilter struct {
	Status      *models.OrderStatus
	TableNumber *uint
	// UrgencyFirst pages in worklist order instead of newest first.
	UrgencyFirst bool
}

// OrderService creates orders for verified table sessions and moves them
// through the order state machine on behalf of staff.
type OrderService struct {
	db       *gorm.DB
	clock    clockwork.Clock
	sessions SessionAuthorizer
	epsilon  decimal.Decimal
	numbers  OrderNumberFunc
}

type OrderServiceOption func(*OrderService)

func WithPriceEpsilon(eps float64) OrderServiceOption {
	return func(s *OrderService) {
		if eps >= 0 {
			s.epsilon = decimal.NewFromFloat(eps)
		}
	}
}

func WithOrderNumbers(fn OrderNumberFunc) OrderServiceOption {
	return func(s *OrderService) {
		if fn != nil {
			s.numbers = fn
		}
	}
}

func NewOrderService(db *gorm.DB, clock clockwork.Clock, sessions SessionAuthorizer, opts ...OrderServiceOption) *OrderService {
	s := &OrderService{
		db:       db,
		clock:    clock,
		sessions: sessions,
		epsilon:  decimal.NewFromFloat(DefaultPriceEpsilon),
		numbers:  GenerateOrderNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateOrderNumber returns ORD-YYMMDD-HHMMSS-XXXX with a random hex suffix.
func GenerateOrderNumber(now time.Time) string {
	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err != nil {
		// fall back to sub-second digits, the unique index still guards us
		return fmt.Sprintf("ORD-%s-%04d", now.Format("060102-150405"), now.Nanosecond()/100000)
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("060102-150405"), strings.ToUpper(hex.EncodeToString(suffix)))
}

// Create checks the cart before authorizing the token, so a rejected cart
// leaves the session mirror untouched.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	items, total, err := s.priceItems(in.Items)
	if err != nil {
		return nil, err
	}
	diff := total.Sub(decimal.NewFromFloat(in.ClaimedTotal)).Abs()
	if diff.GreaterThan(s.epsilon) {
		return nil, apperror.Validation("total mismatch: computed %s, claimed %.2f", total.StringFixed(2), in.ClaimedTotal)
	}

	priority := strings.ToLower(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = "normal"
	}
	if !validPriorities[priority] {
		return nil, apperror.Validation("unknown priority %q", in.Priority)
	}

	claims, err := s.sessions.Authorize(ctx, in.TableNumber, in.Token)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= createAttempts; attempt++ {
		now := s.clock.Now()
		order := models.Order{
			OrderNumber:   s.numbers(now),
			TableNumber:   in.TableNumber,
			SessionID:     claims.SessionID,
			Status:        models.OrderPending,
			TotalPrice:    total.InexactFloat64(),
			EstimatedTime: DefaultEstimatedTime,
			Notes:         strings.TrimSpace(in.Notes),
			CustomerName:  strings.TrimSpace(in.CustomerName),
			Priority:      priority,
			CreatedAt:     now,
			UpdatedAt:     now,
			Items:         make([]models.OrderItem, len(items)),
		}
		for i, item := range items {
			item.CreatedAt = now
			order.Items[i] = item
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Create(&order).Error
		})
		if err == nil {
			OrdersCreated.Inc()
			utils.InfoLogger.WithFields(logrus.Fields{
				"order_number": order.OrderNumber,
				"table":        order.TableNumber,
				"total":        total.StringFixed(2),
				"items":        len(order.Items),
			}).Info("order created")
			return &order, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) && !isUniqueViolation(err) {
			return nil, apperror.Internal(fmt.Errorf("creating order: %w", err))
		}

		OrderNumberCollisions.Inc()
		utils.InfoLogger.WithFields(logrus.Fields{
			"order_number": order.OrderNumber,
			"attempt":      attempt,
		}).Warn("order number collision")
	}

	return nil, apperror.Conflict("could not allocate a unique order number, please retry")
}

// priceItems validates the lines and recomputes every line total and the sum.
func (s *OrderService) priceItems(in []OrderItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	if len(in) == 0 {
		return nil, decimal.Zero, apperror.Validation("order has no items")
	}

	items := make([]models.OrderItem, 0, len(in))
	total := decimal.Zero
	for i, item := range in {
		switch {
		case item.ProductID == 0:
			return nil, decimal.Zero, apperror.Validation("item %d: missing product_id", i)
		case item.Price == nil:
			return nil, decimal.Zero, apperror.Validation("item %d: missing price", i)
		case *item.Price < 0:
			return nil, decimal.Zero, apperror.Validation("item %d: negative price", i)
		case item.Quantity < 1:
			return nil, decimal.Zero, apperror.Validation("item %d: quantity must be at least 1", i)
		}

		unit := decimal.NewFromFloat(*item.Price)
		line := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)

		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      strings.TrimSpace(item.Name),
			UnitPrice: unit.InexactFloat64(),
			Quantity:  item.Quantity,
			LineTotal: line.InexactFloat64(),
		})
	}
	return items, total, nil
}

// Transition moves an order to in.Status. The write only lands if the
// status is still the one the decision was made on; otherwise the request
// is re-evaluated against the fresh row.
func (s *OrderService) Transition(ctx context.Context, orderID uint, in TransitionOrderInput) (*models.Order, error) {
	if !in.Status.Valid() {
		return nil, apperror.Validation("unknown order status %q", in.Status)
	}
	if in.EstimatedTime != nil && *in.EstimatedTime < 0 {
		return nil, apperror.Validation("estimated_time must not be negative")
	}

	for attempt := 0; attempt < transitionAttempts; attempt++ {
		var order models.Order
		if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("order %d not found", orderID)
			}
			return nil, apperror.Internal(fmt.Errorf("loading order: %w", err))
		}

		current := order.Status
		if current.IsTerminal() || (in.Status != current && !current.CanTransitionTo(in.Status)) {
			return nil, apperror.InvalidTransition(string(current), string(in.Status))
		}

		updates := map[string]interface{}{"updated_at": s.clock.Now()}
		if in.Status != current {
			updates["status"] = in.Status
		}
		if in.EstimatedTime != nil {
			updates["estimated_time"] = *in.EstimatedTime
		}
		if in.Notes != nil {
			updates["notes"] = strings.TrimSpace(*in.Notes)
		}

		res := s.db.WithContext(ctx).Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, current).
			Updates(updates)
		if res.Error != nil {
			return nil, apperror.Internal(fmt.Errorf("updating order: %w", res.Error))
		}
		if res.RowsAffected == 0 {
			continue
		}

		if in.Status != current {
			StatusTransitions.WithLabelValues("order", string(current), string(in.Status)).Inc()
			utils.InfoLogger.WithFields(logrus.Fields{
				"order_id": orderID,
				"from":     current,
				"to":       in.Status,
			}).Info("order status changed")
		}
		return s.Get(ctx, orderID)
	}

	return nil, apperror.Conflict("order %d is being updated concurrently, please retry", orderID)
}

func (s *OrderService) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order %d not found", orderID)
		}
		return nil, apperror.Internal(fmt.Errorf("loading order: %w", err))
	}
	return &order, nil
}

// List returns one page of orders, newest first unless the filter asks for
// worklist order, and the filtered total.
func (s *OrderService) List(ctx context.Context, filter OrderFilter, page, limit int) ([]models.Order, int64, error) {
	page, limit = NormalizePage(page, limit)

	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.TableNumber != nil {
		query = query.Where("table_number = ?", *filter.TableNumber)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("counting orders: %w", err))
	}

	listing := query.Preload("Items")
	if filter.UrgencyFirst {
		listing = listing.Clauses(worklistOrder(string(models.OrderPending), "created_at"))
	} else {
		listing = listing.Order("created_at DESC").Order("id DESC")
	}

	var orders []models.Order
	err := listing.
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("listing orders: %w", err))
	}
	return orders, total, nil
}
