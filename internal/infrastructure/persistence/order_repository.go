package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loanbook/backend/internal/domain/lending"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/loanbook/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// orderSequenceRowID is the fixed primary key of the order-number counter row.
const orderSequenceRowID = 1

// terminalStates are excluded from every active-order query.
var terminalStates = []string{string(lending.StateEnd), string(lending.StateBreachEnd)}

// GormOrderRepository implements lending.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts a new order. Order ids are never reused: a conflict with any
// historical row, terminal or not, fails with ErrDuplicateOrder.
func (r *GormOrderRepository) Create(ctx context.Context, order *lending.Order) error {
	var existing int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("order_id = ?", order.OrderID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return shared.ErrDuplicateOrder
	}

	model := models.OrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrDuplicateOrder
		}
		return err
	}
	return nil
}

// FindActiveByChat finds the chat's current non-terminal order
func (r *GormOrderRepository) FindActiveByChat(ctx context.Context, chatID int64) (*lending.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("chat_id = ? AND state NOT IN ?", chatID, terminalStates).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderID finds an order by its encoded id, active or not
func (r *GormOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*lending.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateAmount sets the remaining principal of the chat's active order.
// Returns false when no active row matched.
func (r *GormOrderRepository) UpdateAmount(ctx context.Context, chatID int64, amount decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("chat_id = ? AND state NOT IN ?", chatID, terminalStates).
		Updates(map[string]interface{}{
			"amount":     amount,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateState sets the state of the chat's active order. Returns false when
// no active row matched, which also makes terminal states sticky.
func (r *GormOrderRepository) UpdateState(ctx context.Context, chatID int64, state lending.OrderState) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("chat_id = ? AND state NOT IN ?", chatID, terminalStates).
		Updates(map[string]interface{}{
			"state":      string(state),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// NextOrderNumber increments and reads the shared sequence counter
func (r *GormOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	if err := r.db.WithContext(ctx).Model(&models.OrderSequenceModel{}).
		Where("id = ?", orderSequenceRowID).
		UpdateColumn("counter", gorm.Expr("counter + 1")).Error; err != nil {
		return "", err
	}
	var seq models.OrderSequenceModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", orderSequenceRowID).
		First(&seq).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", seq.Counter), nil
}

// FindByGroupID finds orders attributed to one group, optionally filtered by state
func (r *GormOrderRepository) FindByGroupID(ctx context.Context, groupID string, state *lending.OrderState) ([]*lending.Order, error) {
	query := r.db.WithContext(ctx).Where("group_id = ?", groupID)
	if state != nil {
		query = query.Where("state = ?", string(*state))
	}
	return r.findOrders(query)
}

// FindByState finds all orders in one lifecycle state
func (r *GormOrderRepository) FindByState(ctx context.Context, state lending.OrderState) ([]*lending.Order, error) {
	return r.findOrders(r.db.WithContext(ctx).Where("state = ?", string(state)))
}

// FindByDateRange finds orders whose encoded date falls in the inclusive range
func (r *GormOrderRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]*lending.Order, error) {
	return r.findOrders(r.db.WithContext(ctx).Where("order_date >= ? AND order_date <= ?", start, end))
}

// FindAll returns every order in history
func (r *GormOrderRepository) FindAll(ctx context.Context) ([]*lending.Order, error) {
	return r.findOrders(r.db.WithContext(ctx))
}

func (r *GormOrderRepository) findOrders(query *gorm.DB) ([]*lending.Order, error) {
	var orderModels []models.OrderModel
	if err := query.Order("order_date DESC").Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]*lending.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = orderModels[i].ToDomain()
	}
	return orders, nil
}
