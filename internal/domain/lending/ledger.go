package lending

import (
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EventName is the logical name of a ledger event. Each name maps statically
// to a pair of physical columns (amount, count); unknown names are rejected
// here instead of being turned into storage keys at runtime.
type EventName string

const (
	EventValid       EventName = "valid"
	EventBreach      EventName = "breach"
	EventBreachEnd   EventName = "breach_end"
	EventCompleted   EventName = "completed"
	EventNewClients  EventName = "new_clients"
	EventOldClients  EventName = "old_clients"
	EventInterest    EventName = "interest"
	EventLiquidFunds EventName = "liquid_funds"
	EventLiquidFlow  EventName = "liquid_flow"
)

// fieldSpec is the physical mapping for one logical event. The column names
// reproduce the suffix rule: amount column is the event name when it already
// ends in _amount or is one of the bare exceptions (liquid_funds, interest),
// otherwise name+"_amount"; count column is the name when it ends in _orders
// or is new_clients/old_clients, otherwise name+"_orders". Events that never
// carry a count have no count column.
type fieldSpec struct {
	amountColumn string
	countColumn  string
	daily        bool // recorded in the daily flow ledger
	stock        bool // present on the global/group snapshot rows
}

var fieldSpecs = map[EventName]fieldSpec{
	EventValid:       {amountColumn: "valid_amount", countColumn: "valid_orders", daily: false, stock: true},
	EventBreach:      {amountColumn: "breach_amount", countColumn: "breach_orders", daily: true, stock: true},
	EventBreachEnd:   {amountColumn: "breach_end_amount", countColumn: "breach_end_orders", daily: true, stock: true},
	EventCompleted:   {amountColumn: "completed_amount", countColumn: "completed_orders", daily: true, stock: true},
	EventNewClients:  {amountColumn: "new_clients_amount", countColumn: "new_clients", daily: true, stock: true},
	EventOldClients:  {amountColumn: "old_clients_amount", countColumn: "old_clients", daily: true, stock: true},
	EventInterest:    {amountColumn: "interest", countColumn: "", daily: true, stock: true},
	EventLiquidFunds: {amountColumn: "liquid_funds", countColumn: "", daily: false, stock: true},
	EventLiquidFlow:  {amountColumn: "liquid_flow", countColumn: "", daily: true, stock: false},
}

// IsValid checks if the name is a known ledger event
func (e EventName) IsValid() bool {
	_, ok := fieldSpecs[e]
	return ok
}

// String returns the string representation of EventName
func (e EventName) String() string {
	return string(e)
}

// AmountColumn returns the physical amount column for the event.
func (e EventName) AmountColumn() string {
	return fieldSpecs[e].amountColumn
}

// CountColumn returns the physical count column, or "" when the event never
// carries a count delta.
func (e EventName) CountColumn() string {
	return fieldSpecs[e].countColumn
}

// DailyTracked reports whether the event belongs in the daily flow ledger.
// Stock quantities (valid, liquid_funds) are deliberately excluded; their
// cash movement is recorded under liquid_flow instead.
func (e EventName) DailyTracked() bool {
	return fieldSpecs[e].daily
}

// StockTracked reports whether the event has columns on the global and group
// snapshot rows.
func (e EventName) StockTracked() bool {
	return fieldSpecs[e].stock
}

// LedgerScope selects which rows an event fans out to. Global is always
// written; the group row only when GroupID is set.
type LedgerScope struct {
	GroupID string
}

// GlobalScope returns a scope that touches no group row.
func GlobalScope() LedgerScope {
	return LedgerScope{}
}

// GroupScope returns a scope attributed to one group.
func GroupScope(groupID string) LedgerScope {
	return LedgerScope{GroupID: groupID}
}

// ValidateEvent rejects deltas that no known column can hold.
func ValidateEvent(event EventName, amountDelta decimal.Decimal, countDelta int64) error {
	spec, ok := fieldSpecs[event]
	if !ok {
		return shared.NewDomainError("INVALID_INPUT", "Unknown ledger event "+string(event))
	}
	if countDelta != 0 && spec.countColumn == "" {
		return shared.NewDomainError("INVALID_INPUT", "Ledger event "+string(event)+" carries no count")
	}
	_ = amountDelta
	return nil
}

// LedgerSnapshot is one aggregation row. Global has exactly one; group rows
// are created lazily on first attribution. All fields are running counters.
type LedgerSnapshot struct {
	GroupID          string          `json:"group_id,omitempty"`
	ValidOrders      int64           `json:"valid_orders"`
	ValidAmount      decimal.Decimal `json:"valid_amount"`
	LiquidFunds      decimal.Decimal `json:"liquid_funds"`
	NewClients       int64           `json:"new_clients"`
	NewClientsAmount decimal.Decimal `json:"new_clients_amount"`
	OldClients       int64           `json:"old_clients"`
	OldClientsAmount decimal.Decimal `json:"old_clients_amount"`
	Interest         decimal.Decimal `json:"interest"`
	CompletedOrders  int64           `json:"completed_orders"`
	CompletedAmount  decimal.Decimal `json:"completed_amount"`
	BreachOrders     int64           `json:"breach_orders"`
	BreachAmount     decimal.Decimal `json:"breach_amount"`
	BreachEndOrders  int64           `json:"breach_end_orders"`
	BreachEndAmount  decimal.Decimal `json:"breach_end_amount"`
}

// DailyFlow is the net movement within one reporting period. Stock fields
// (valid, liquid_funds) have no daily counterpart by design.
type DailyFlow struct {
	LiquidFlow       decimal.Decimal `json:"liquid_flow"`
	NewClients       int64           `json:"new_clients"`
	NewClientsAmount decimal.Decimal `json:"new_clients_amount"`
	OldClients       int64           `json:"old_clients"`
	OldClientsAmount decimal.Decimal `json:"old_clients_amount"`
	Interest         decimal.Decimal `json:"interest"`
	CompletedOrders  int64           `json:"completed_orders"`
	CompletedAmount  decimal.Decimal `json:"completed_amount"`
	BreachOrders     int64           `json:"breach_orders"`
	BreachAmount     decimal.Decimal `json:"breach_amount"`
	BreachEndOrders  int64           `json:"breach_end_orders"`
	BreachEndAmount  decimal.Decimal `json:"breach_end_amount"`
}

// ExpenseCategory buckets discrete dated expense entries
type ExpenseCategory string

const (
	ExpenseCompany ExpenseCategory = "COMPANY"
	ExpenseOther   ExpenseCategory = "OTHER"
)

// IsValid checks if the category is a valid ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	return c == ExpenseCompany || c == ExpenseOther
}

// String returns the string representation of ExpenseCategory
func (c ExpenseCategory) String() string {
	return string(c)
}
