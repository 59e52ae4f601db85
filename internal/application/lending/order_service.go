package lending

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/loanbook/backend/internal/domain/lending"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerRules bundles the policy settings the lifecycle needs: how wall-clock
// time maps to reporting periods, which order dates count as historical
// imports, and the fallback attribution group.
type LedgerRules struct {
	Period            domain.PeriodClock
	HistoricalCutover time.Time
	DefaultGroup      string
}

// OrderService drives the order lifecycle. Every command validates first,
// then runs its order and ledger writes as one transaction; a per-chat lock
// serializes commands on the same chat, and a funds lock serializes debit
// commands so the in-transaction balance check cannot be raced into overdraft.
type OrderService struct {
	uow    domain.UnitOfWork
	rules  LedgerRules
	logger *zap.Logger
	now    func() time.Time

	chats   *chatLocks
	fundsMu sync.Mutex
}

// NewOrderService creates a new OrderService
func NewOrderService(uow domain.UnitOfWork, rules LedgerRules, logger *zap.Logger) *OrderService {
	return &OrderService{
		uow:    uow,
		rules:  rules,
		logger: logger,
		now:    time.Now,
		chats:  newChatLocks(),
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	OrderID      string          `json:"order_id"`
	ChatID       int64           `json:"chat_id"`
	GroupID      string          `json:"group_id"`
	WeekdayGroup string          `json:"weekday_group"`
	Customer     string          `json:"customer"`
	Amount       decimal.Decimal `json:"amount"`
	State        string          `json:"state"`
	OrderDate    string          `json:"order_date"`
	Origin       string          `json:"origin"`
	CreatedAt    time.Time       `json:"created_at"`
}

func orderResponse(o *domain.Order) *OrderResponse {
	return &OrderResponse{
		OrderID:      o.OrderID,
		ChatID:       o.ChatID,
		GroupID:      o.GroupID,
		WeekdayGroup: string(o.WeekdayGroup),
		Customer:     string(o.Customer),
		Amount:       o.Amount,
		State:        string(o.State),
		OrderDate:    o.OrderDate.Format(domain.PeriodDateLayout),
		Origin:       string(o.Origin),
		CreatedAt:    o.CreatedAt,
	}
}

// CreateOrderRequest represents a request to create an order from a coded
// chat title
type CreateOrderRequest struct {
	ChatID  int64  `json:"chat_id" binding:"required"`
	Title   string `json:"title" binding:"required"`
	GroupID string `json:"group_id"`
	// Auto marks creations triggered by title recognition rather than an
	// operator command
	Auto bool `json:"auto"`
}

// CreateOrder decodes the title, derives the initial state from its markers,
// and books the creation. Orders dated before the historical cutover import
// with no balance check and no cash movement; only their valid/breach stock
// is counted.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	code, ok := domain.ParseOrderCode(req.Title)
	if !ok {
		return nil, shared.ErrDecodeFailure
	}

	initialState := domain.StateFromTitle(req.Title)
	historical := code.Date.Before(s.rules.HistoricalCutover)

	origin := domain.OriginManual
	switch {
	case historical:
		origin = domain.OriginHistorical
	case req.Auto:
		origin = domain.OriginAutoDetected
	}

	groupID := req.GroupID
	if groupID == "" {
		groupID = s.rules.DefaultGroup
	}

	now := s.now()
	order, err := domain.NewOrder(code, req.ChatID, groupID, initialState, origin, now)
	if err != nil {
		return nil, err
	}
	periodDate := s.rules.Period.PeriodDate(now)

	release := s.chats.acquire(req.ChatID)
	defer release()
	if !historical {
		s.fundsMu.Lock()
		defer s.fundsMu.Unlock()
	}

	err = s.uow.Execute(ctx, "create order", func(repos domain.RepositoryContext) error {
		if _, err := repos.Orders().FindActiveByChat(ctx, req.ChatID); err == nil {
			return shared.ErrDuplicateOrder
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		if !historical {
			snapshot, err := repos.Ledger().GlobalSnapshot(ctx)
			if err != nil {
				return shared.NewLedgerWriteError(err)
			}
			if snapshot.LiquidFunds.LessThan(order.Amount) {
				return shared.ErrInsufficientFunds
			}
		}

		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}

		scope := domain.GroupScope(order.GroupID)
		stockEvent := domain.EventValid
		if initialState == domain.StateBreach {
			stockEvent = domain.EventBreach
		}
		if err := repos.Ledger().Apply(ctx, scope, stockEvent, order.Amount, 1, periodDate); err != nil {
			return err
		}

		if historical {
			return nil
		}

		clientEvent := domain.EventOldClients
		if order.Customer == domain.CustomerNew {
			clientEvent = domain.EventNewClients
		}
		if err := repos.Ledger().Apply(ctx, scope, clientEvent, order.Amount, 1, periodDate); err != nil {
			return err
		}
		return repos.Ledger().ApplyCashMovement(ctx, order.Amount.Neg(), periodDate)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.OrderID),
		zap.Int64("chat_id", order.ChatID),
		zap.String("group_id", order.GroupID),
		zap.String("state", string(order.State)),
		zap.String("amount", order.Amount.String()),
		zap.Bool("historical", historical),
	)
	return orderResponse(order), nil
}

// TransitionRequest represents a request to move an order to a new state
type TransitionRequest struct {
	ChatID     int64            `json:"chat_id" binding:"required"`
	Target     string           `json:"target" binding:"required"`
	Settlement *decimal.Decimal `json:"settlement,omitempty"`
}

// Transition validates and executes one state-machine step for the chat's
// active order, fanning the implied ledger effects out with it.
func (s *OrderService) Transition(ctx context.Context, req TransitionRequest) (*OrderResponse, error) {
	target := domain.OrderState(req.Target)
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown target state "+req.Target)
	}

	periodDate := s.rules.Period.PeriodDate(s.now())

	release := s.chats.acquire(req.ChatID)
	defer release()

	var updated *domain.Order
	err := s.uow.Execute(ctx, "transition order", func(repos domain.RepositoryContext) error {
		order, err := repos.Orders().FindActiveByChat(ctx, req.ChatID)
		if err != nil {
			return err
		}
		if err := order.ValidateTransition(target); err != nil {
			return err
		}

		var settlement decimal.Decimal
		if target == domain.StateBreachEnd {
			if req.Settlement == nil {
				return shared.ErrInvalidAmount
			}
			settlement = *req.Settlement
			if err := order.ValidateSettlement(settlement); err != nil {
				return err
			}
		}

		scope := domain.GroupScope(order.GroupID)
		ledger := repos.Ledger()

		switch {
		case order.State.InValidPool() && target.InValidPool():
			// normal<->overdue pool together under valid; state change only

		case order.State.InValidPool() && target == domain.StateBreach:
			if err := ledger.Apply(ctx, scope, domain.EventValid, order.Amount.Neg(), -1, periodDate); err != nil {
				return err
			}
			if err := ledger.Apply(ctx, scope, domain.EventBreach, order.Amount, 1, periodDate); err != nil {
				return err
			}

		case order.State == domain.StateBreach && target.InValidPool():
			if err := ledger.Apply(ctx, scope, domain.EventBreach, order.Amount.Neg(), -1, periodDate); err != nil {
				return err
			}
			if err := ledger.Apply(ctx, scope, domain.EventValid, order.Amount, 1, periodDate); err != nil {
				return err
			}

		case target == domain.StateEnd:
			if err := ledger.Apply(ctx, scope, domain.EventValid, order.Amount.Neg(), -1, periodDate); err != nil {
				return err
			}
			if err := ledger.Apply(ctx, scope, domain.EventCompleted, order.Amount, 1, periodDate); err != nil {
				return err
			}
			if err := ledger.ApplyCashMovement(ctx, order.Amount, periodDate); err != nil {
				return err
			}

		case target == domain.StateBreachEnd:
			if err := ledger.Apply(ctx, scope, domain.EventBreachEnd, settlement, 1, periodDate); err != nil {
				return err
			}
			if err := ledger.ApplyCashMovement(ctx, settlement, periodDate); err != nil {
				return err
			}
			remaining := order.Amount.Sub(settlement)
			matched, err := repos.Orders().UpdateAmount(ctx, req.ChatID, remaining)
			if err != nil {
				return err
			}
			if !matched {
				return shared.ErrNotFound
			}
			order.Amount = remaining
		}

		matched, err := repos.Orders().UpdateState(ctx, req.ChatID, target)
		if err != nil {
			return err
		}
		if !matched {
			return shared.ErrNotFound
		}

		order.State = target
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order state changed",
		zap.String("order_id", updated.OrderID),
		zap.Int64("chat_id", updated.ChatID),
		zap.String("state", string(updated.State)),
	)
	return orderResponse(updated), nil
}

// ReducePrincipalRequest represents a partial repayment of the principal
type ReducePrincipalRequest struct {
	ChatID int64           `json:"chat_id" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// ReducePrincipal books a partial repayment: the principal shrinks, the repaid
// slice moves from the valid stock to the completed stock (amounts only, no
// order counts), and cash flows back in.
func (s *OrderService) ReducePrincipal(ctx context.Context, req ReducePrincipalRequest) (*OrderResponse, error) {
	periodDate := s.rules.Period.PeriodDate(s.now())

	release := s.chats.acquire(req.ChatID)
	defer release()

	var updated *domain.Order
	err := s.uow.Execute(ctx, "reduce principal", func(repos domain.RepositoryContext) error {
		order, err := repos.Orders().FindActiveByChat(ctx, req.ChatID)
		if err != nil {
			return err
		}
		if err := order.ValidateReduction(req.Amount); err != nil {
			return err
		}

		remaining := order.Amount.Sub(req.Amount)
		matched, err := repos.Orders().UpdateAmount(ctx, req.ChatID, remaining)
		if err != nil {
			return err
		}
		if !matched {
			return shared.ErrNotFound
		}

		scope := domain.GroupScope(order.GroupID)
		ledger := repos.Ledger()
		if err := ledger.Apply(ctx, scope, domain.EventValid, req.Amount.Neg(), 0, periodDate); err != nil {
			return err
		}
		if err := ledger.Apply(ctx, scope, domain.EventCompleted, req.Amount, 0, periodDate); err != nil {
			return err
		}
		if err := ledger.ApplyCashMovement(ctx, req.Amount, periodDate); err != nil {
			return err
		}

		order.Amount = remaining
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("principal reduced",
		zap.String("order_id", updated.OrderID),
		zap.Int64("chat_id", updated.ChatID),
		zap.String("reduced_by", req.Amount.String()),
		zap.String("remaining", updated.Amount.String()),
	)
	return orderResponse(updated), nil
}

// RecordInterestRequest represents an interest income event. When the chat
// holds an active order the income is attributed to that order's group;
// otherwise an explicit group (or the global scope) takes it.
type RecordInterestRequest struct {
	ChatID  *int64          `json:"chat_id,omitempty"`
	GroupID string          `json:"group_id,omitempty"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

// RecordInterest books interest income and the matching cash inflow.
func (s *OrderService) RecordInterest(ctx context.Context, req RecordInterestRequest) error {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidAmount
	}
	periodDate := s.rules.Period.PeriodDate(s.now())

	return s.uow.Execute(ctx, "record interest", func(repos domain.RepositoryContext) error {
		groupID := req.GroupID
		if req.ChatID != nil {
			order, err := repos.Orders().FindActiveByChat(ctx, *req.ChatID)
			if err == nil {
				groupID = order.GroupID
			} else if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
		}

		if err := repos.Ledger().Apply(ctx, domain.LedgerScope{GroupID: groupID}, domain.EventInterest, req.Amount, 0, periodDate); err != nil {
			return err
		}
		return repos.Ledger().ApplyCashMovement(ctx, req.Amount, periodDate)
	})
}

// AdjustFundsRequest represents a manual balance correction
type AdjustFundsRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Note   string          `json:"note"`
}

// AdjustFunds applies a signed manual cash movement and returns the balance
// after the adjustment.
func (s *OrderService) AdjustFunds(ctx context.Context, req AdjustFundsRequest) (decimal.Decimal, error) {
	if req.Amount.IsZero() {
		return decimal.Zero, shared.ErrInvalidAmount
	}
	periodDate := s.rules.Period.PeriodDate(s.now())

	var balance decimal.Decimal
	err := s.uow.Execute(ctx, "adjust funds", func(repos domain.RepositoryContext) error {
		if err := repos.Ledger().ApplyCashMovement(ctx, req.Amount, periodDate); err != nil {
			return err
		}
		snapshot, err := repos.Ledger().GlobalSnapshot(ctx)
		if err != nil {
			return shared.NewLedgerWriteError(err)
		}
		balance = snapshot.LiquidFunds
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("funds adjusted",
		zap.String("amount", req.Amount.String()),
		zap.String("balance", balance.String()),
		zap.String("note", req.Note),
	)
	return balance, nil
}

// CanDebit is the advisory balance pre-check. It reads the committed global
// balance; the authoritative check runs again inside the debit transaction.
func (s *OrderService) CanDebit(ctx context.Context, amount decimal.Decimal) (bool, error) {
	snapshot, err := s.uow.Ledger().GlobalSnapshot(ctx)
	if err != nil {
		return false, err
	}
	return !snapshot.LiquidFunds.LessThan(amount), nil
}

// GetActiveOrder returns the chat's current non-terminal order.
func (s *OrderService) GetActiveOrder(ctx context.Context, chatID int64) (*OrderResponse, error) {
	order, err := s.uow.Orders().FindActiveByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return orderResponse(order), nil
}

// DecodedTitleResponse represents a decoded order title
type DecodedTitleResponse struct {
	OrderID  string          `json:"order_id"`
	Date     string          `json:"date"`
	Sequence int             `json:"sequence"`
	Amount   decimal.Decimal `json:"amount"`
	Customer string          `json:"customer"`
	State    string          `json:"state"`
}

// DecodeTitle probes a chat title. The false return means "not an order
// title", which is an expected outcome, not an error.
func (s *OrderService) DecodeTitle(title string) (*DecodedTitleResponse, bool) {
	code, ok := domain.ParseOrderCode(title)
	if !ok {
		return nil, false
	}
	return &DecodedTitleResponse{
		OrderID:  code.OrderID,
		Date:     code.Date.Format(domain.PeriodDateLayout),
		Sequence: code.Sequence,
		Amount:   code.Amount,
		Customer: string(code.Customer),
		State:    string(domain.StateFromTitle(title)),
	}, true
}
