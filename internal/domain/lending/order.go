package lending

import (
	"time"

	"github.com/google/uuid"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderState represents the lifecycle state of a loan order
type OrderState string

const (
	StateNormal    OrderState = "NORMAL"
	StateOverdue   OrderState = "OVERDUE"
	StateBreach    OrderState = "BREACH"
	StateEnd       OrderState = "END"
	StateBreachEnd OrderState = "BREACH_END"
)

// IsValid checks if the state is a valid OrderState
func (s OrderState) IsValid() bool {
	switch s {
	case StateNormal, StateOverdue, StateBreach, StateEnd, StateBreachEnd:
		return true
	}
	return false
}

// String returns the string representation of OrderState
func (s OrderState) String() string {
	return string(s)
}

// IsTerminal returns true if the state has no outgoing transitions
func (s OrderState) IsTerminal() bool {
	return s == StateEnd || s == StateBreachEnd
}

// InValidPool returns true while the order's principal counts toward the
// valid-orders stock. Normal and overdue orders pool together there.
func (s OrderState) InValidPool() bool {
	return s == StateNormal || s == StateOverdue
}

// CanTransitionTo reports whether the state machine allows moving to target.
func (s OrderState) CanTransitionTo(target OrderState) bool {
	switch s {
	case StateNormal:
		return target == StateOverdue || target == StateBreach || target == StateEnd
	case StateOverdue:
		return target == StateNormal || target == StateBreach || target == StateEnd
	case StateBreach:
		return target == StateNormal || target == StateOverdue || target == StateBreachEnd
	}
	return false
}

// CustomerClass distinguishes first-time customers from returning ones
type CustomerClass string

const (
	CustomerNew       CustomerClass = "NEW"
	CustomerReturning CustomerClass = "RETURNING"
)

// IsValid checks if the class is a valid CustomerClass
func (c CustomerClass) IsValid() bool {
	return c == CustomerNew || c == CustomerReturning
}

// WeekdayGroup is the day-of-week reporting bucket assigned at creation time.
type WeekdayGroup string

const (
	WeekdayGroupMon WeekdayGroup = "MON"
	WeekdayGroupTue WeekdayGroup = "TUE"
	WeekdayGroupWed WeekdayGroup = "WED"
	WeekdayGroupThu WeekdayGroup = "THU"
	WeekdayGroupFri WeekdayGroup = "FRI"
	WeekdayGroupSat WeekdayGroup = "SAT"
	WeekdayGroupSun WeekdayGroup = "SUN"
)

var weekdayGroups = map[time.Weekday]WeekdayGroup{
	time.Monday:    WeekdayGroupMon,
	time.Tuesday:   WeekdayGroupTue,
	time.Wednesday: WeekdayGroupWed,
	time.Thursday:  WeekdayGroupThu,
	time.Friday:    WeekdayGroupFri,
	time.Saturday:  WeekdayGroupSat,
	time.Sunday:    WeekdayGroupSun,
}

// WeekdayGroupFor returns the weekday bucket for a creation date.
func WeekdayGroupFor(t time.Time) WeekdayGroup {
	return weekdayGroups[t.Weekday()]
}

// CreationOrigin tags how an order entered the system
type CreationOrigin string

const (
	// OriginManual is an operator-issued create command
	OriginManual CreationOrigin = "MANUAL"
	// OriginAutoDetected is a creation triggered by a recognized chat title
	OriginAutoDetected CreationOrigin = "AUTO_DETECTED"
	// OriginHistorical is a record-keeping import predating the live-funding
	// cutover; it bypasses the balance check and all cash movement
	OriginHistorical CreationOrigin = "HISTORICAL"
)

// IsValid checks if the origin is a valid CreationOrigin
func (o CreationOrigin) IsValid() bool {
	switch o {
	case OriginManual, OriginAutoDetected, OriginHistorical:
		return true
	}
	return false
}

// DefaultGroupID is the attribution bucket used when none is supplied.
const DefaultGroupID = "S01"

// Order is a loan order tracked for one chat. Terminal orders are never
// deleted; they stay in history and are excluded from active-order queries.
type Order struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      string          `json:"order_id"`
	ChatID       int64           `json:"chat_id"`
	GroupID      string          `json:"group_id"`
	WeekdayGroup WeekdayGroup    `json:"weekday_group"`
	Customer     CustomerClass   `json:"customer"`
	Amount       decimal.Decimal `json:"amount"`
	State        OrderState      `json:"state"`
	OrderDate    time.Time       `json:"order_date"`
	Origin       CreationOrigin  `json:"origin"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewOrder creates an order from a decoded code. The weekday group is fixed
// from the creation instant and never changes afterwards.
func NewOrder(code OrderCode, chatID int64, groupID string, initialState OrderState, origin CreationOrigin, now time.Time) (*Order, error) {
	if code.OrderID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order id cannot be empty")
	}
	if chatID == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Chat id cannot be empty")
	}
	if code.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	if !code.Customer.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer class is not valid")
	}
	if initialState != StateNormal && initialState != StateOverdue && initialState != StateBreach {
		return nil, shared.ErrWrongState
	}
	if !origin.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Creation origin is not valid")
	}
	if groupID == "" {
		groupID = DefaultGroupID
	}

	return &Order{
		ID:           uuid.New(),
		OrderID:      code.OrderID,
		ChatID:       chatID,
		GroupID:      groupID,
		WeekdayGroup: WeekdayGroupFor(now),
		Customer:     code.Customer,
		Amount:       code.Amount,
		State:        initialState,
		OrderDate:    code.Date,
		Origin:       origin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsActive reports whether the order still counts for "does this chat have an
// order" queries.
func (o *Order) IsActive() bool {
	return !o.State.IsTerminal()
}

// IsHistorical reports whether the order was imported as historical data.
func (o *Order) IsHistorical() bool {
	return o.Origin == OriginHistorical
}

// ValidateTransition checks the state machine without mutating the order.
func (o *Order) ValidateTransition(target OrderState) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Target state is not valid")
	}
	if !o.State.CanTransitionTo(target) {
		return shared.ErrWrongState
	}
	return nil
}

// ValidateReduction checks a principal reduction against the current state and
// remaining principal.
func (o *Order) ValidateReduction(amount decimal.Decimal) error {
	if !o.State.InValidPool() {
		return shared.ErrWrongState
	}
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(o.Amount) {
		return shared.ErrInvalidAmount
	}
	return nil
}

// ValidateSettlement checks a breach settlement. The settlement may be partial
// but never exceeds the residual principal, so Amount stays non-negative.
func (o *Order) ValidateSettlement(amount decimal.Decimal) error {
	if o.State != StateBreach {
		return shared.ErrWrongState
	}
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(o.Amount) {
		return shared.ErrInvalidAmount
	}
	return nil
}
