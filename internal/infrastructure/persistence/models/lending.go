package models

import (
	"time"

	"github.com/loanbook/backend/internal/domain/lending"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence representation of a loan order
type OrderModel struct {
	BaseModel
	OrderID      string          `gorm:"type:varchar(20);uniqueIndex;not null"`
	ChatID       int64           `gorm:"index;not null"`
	GroupID      string          `gorm:"type:varchar(10);index;not null"`
	WeekdayGroup string          `gorm:"type:varchar(5);not null"`
	Customer     string          `gorm:"type:varchar(15);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	State        string          `gorm:"type:varchar(15);not null;index"`
	OrderDate    time.Time       `gorm:"not null;index"`
	Origin       string          `gorm:"type:varchar(15);not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts OrderModel to a domain Order
func (m *OrderModel) ToDomain() *lending.Order {
	return &lending.Order{
		ID:           m.ID,
		OrderID:      m.OrderID,
		ChatID:       m.ChatID,
		GroupID:      m.GroupID,
		WeekdayGroup: lending.WeekdayGroup(m.WeekdayGroup),
		Customer:     lending.CustomerClass(m.Customer),
		Amount:       m.Amount,
		State:        lending.OrderState(m.State),
		OrderDate:    m.OrderDate,
		Origin:       lending.CreationOrigin(m.Origin),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// OrderModelFromDomain converts a domain Order to OrderModel
func OrderModelFromDomain(o *lending.Order) *OrderModel {
	return &OrderModel{
		BaseModel: BaseModel{
			ID:        o.ID,
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.UpdatedAt,
		},
		OrderID:      o.OrderID,
		ChatID:       o.ChatID,
		GroupID:      o.GroupID,
		WeekdayGroup: string(o.WeekdayGroup),
		Customer:     string(o.Customer),
		Amount:       o.Amount,
		State:        string(o.State),
		OrderDate:    o.OrderDate,
		Origin:       string(o.Origin),
	}
}

// LedgerCounters carries the columns shared by the global and group rows.
// Column names are the physical names the lending.EventName mapping targets.
type LedgerCounters struct {
	ValidOrders      int64           `gorm:"column:valid_orders;not null;default:0"`
	ValidAmount      decimal.Decimal `gorm:"column:valid_amount;type:decimal(18,2);not null;default:0"`
	LiquidFunds      decimal.Decimal `gorm:"column:liquid_funds;type:decimal(18,2);not null;default:0"`
	NewClients       int64           `gorm:"column:new_clients;not null;default:0"`
	NewClientsAmount decimal.Decimal `gorm:"column:new_clients_amount;type:decimal(18,2);not null;default:0"`
	OldClients       int64           `gorm:"column:old_clients;not null;default:0"`
	OldClientsAmount decimal.Decimal `gorm:"column:old_clients_amount;type:decimal(18,2);not null;default:0"`
	Interest         decimal.Decimal `gorm:"column:interest;type:decimal(18,2);not null;default:0"`
	CompletedOrders  int64           `gorm:"column:completed_orders;not null;default:0"`
	CompletedAmount  decimal.Decimal `gorm:"column:completed_amount;type:decimal(18,2);not null;default:0"`
	BreachOrders     int64           `gorm:"column:breach_orders;not null;default:0"`
	BreachAmount     decimal.Decimal `gorm:"column:breach_amount;type:decimal(18,2);not null;default:0"`
	BreachEndOrders  int64           `gorm:"column:breach_end_orders;not null;default:0"`
	BreachEndAmount  decimal.Decimal `gorm:"column:breach_end_amount;type:decimal(18,2);not null;default:0"`
}

func (c *LedgerCounters) toSnapshot(groupID string) *lending.LedgerSnapshot {
	return &lending.LedgerSnapshot{
		GroupID:          groupID,
		ValidOrders:      c.ValidOrders,
		ValidAmount:      c.ValidAmount,
		LiquidFunds:      c.LiquidFunds,
		NewClients:       c.NewClients,
		NewClientsAmount: c.NewClientsAmount,
		OldClients:       c.OldClients,
		OldClientsAmount: c.OldClientsAmount,
		Interest:         c.Interest,
		CompletedOrders:  c.CompletedOrders,
		CompletedAmount:  c.CompletedAmount,
		BreachOrders:     c.BreachOrders,
		BreachAmount:     c.BreachAmount,
		BreachEndOrders:  c.BreachEndOrders,
		BreachEndAmount:  c.BreachEndAmount,
	}
}

// LedgerGlobalModel is the single process-wide aggregation row
type LedgerGlobalModel struct {
	ID uint `gorm:"primaryKey"`
	LedgerCounters
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (LedgerGlobalModel) TableName() string {
	return "ledger_global"
}

// ToDomain converts LedgerGlobalModel to a domain snapshot
func (m *LedgerGlobalModel) ToDomain() *lending.LedgerSnapshot {
	return m.LedgerCounters.toSnapshot("")
}

// LedgerGroupModel is one aggregation row per attribution group, created
// lazily on first reference
type LedgerGroupModel struct {
	ID      uint   `gorm:"primaryKey"`
	GroupID string `gorm:"type:varchar(10);uniqueIndex;not null"`
	LedgerCounters
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (LedgerGroupModel) TableName() string {
	return "ledger_group"
}

// ToDomain converts LedgerGroupModel to a domain snapshot
func (m *LedgerGroupModel) ToDomain() *lending.LedgerSnapshot {
	return m.LedgerCounters.toSnapshot(m.GroupID)
}

// LedgerDailyModel is one flow row per (period date, group). The global
// rollup row uses an empty group id rather than NULL so the composite unique
// index holds for it too.
type LedgerDailyModel struct {
	ID               uint            `gorm:"primaryKey"`
	PeriodDate       string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_period_group,priority:1"`
	GroupID          string          `gorm:"type:varchar(10);not null;default:'';uniqueIndex:idx_daily_period_group,priority:2"`
	LiquidFlow       decimal.Decimal `gorm:"column:liquid_flow;type:decimal(18,2);not null;default:0"`
	NewClients       int64           `gorm:"column:new_clients;not null;default:0"`
	NewClientsAmount decimal.Decimal `gorm:"column:new_clients_amount;type:decimal(18,2);not null;default:0"`
	OldClients       int64           `gorm:"column:old_clients;not null;default:0"`
	OldClientsAmount decimal.Decimal `gorm:"column:old_clients_amount;type:decimal(18,2);not null;default:0"`
	Interest         decimal.Decimal `gorm:"column:interest;type:decimal(18,2);not null;default:0"`
	CompletedOrders  int64           `gorm:"column:completed_orders;not null;default:0"`
	CompletedAmount  decimal.Decimal `gorm:"column:completed_amount;type:decimal(18,2);not null;default:0"`
	BreachOrders     int64           `gorm:"column:breach_orders;not null;default:0"`
	BreachAmount     decimal.Decimal `gorm:"column:breach_amount;type:decimal(18,2);not null;default:0"`
	BreachEndOrders  int64           `gorm:"column:breach_end_orders;not null;default:0"`
	BreachEndAmount  decimal.Decimal `gorm:"column:breach_end_amount;type:decimal(18,2);not null;default:0"`
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (LedgerDailyModel) TableName() string {
	return "ledger_daily"
}

// ExpenseRecordModel is an append-only dated expense entry
type ExpenseRecordModel struct {
	BaseModel
	RecordDate string          `gorm:"type:varchar(10);not null;index"`
	Category   string          `gorm:"type:varchar(10);not null;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Note       string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ExpenseRecordModel) TableName() string {
	return "expense_records"
}

// ToDomain converts ExpenseRecordModel to a domain ExpenseRecord
func (m *ExpenseRecordModel) ToDomain() *lending.ExpenseRecord {
	return &lending.ExpenseRecord{
		ID:         m.ID,
		RecordDate: m.RecordDate,
		Category:   lending.ExpenseCategory(m.Category),
		Amount:     m.Amount,
		Note:       m.Note,
		CreatedAt:  m.CreatedAt,
	}
}

// ExpenseRecordModelFromDomain converts a domain ExpenseRecord to its model
func ExpenseRecordModelFromDomain(r *lending.ExpenseRecord) *ExpenseRecordModel {
	return &ExpenseRecordModel{
		BaseModel: BaseModel{
			ID:        r.ID,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.CreatedAt,
		},
		RecordDate: r.RecordDate,
		Category:   string(r.Category),
		Amount:     r.Amount,
		Note:       r.Note,
	}
}

// OrderSequenceModel backs the order-number counter for manually numbered
// orders
type OrderSequenceModel struct {
	ID      uint  `gorm:"primaryKey"`
	Counter int64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderSequenceModel) TableName() string {
	return "order_sequences"
}
