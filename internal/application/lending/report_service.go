package lending

import (
	"context"
	"regexp"
	"time"

	domain "github.com/loanbook/backend/internal/domain/lending"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// groupIDPattern matches valid attribution group ids, an uppercase letter
// followed by two digits (S01, A07).
var groupIDPattern = regexp.MustCompile(`^[A-Z]\d{2}$`)

// ReportService answers the read-side questions: period reports, expense
// bookkeeping, the group catalogue, and order search.
type ReportService struct {
	uow    domain.UnitOfWork
	rules  LedgerRules
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(uow domain.UnitOfWork, rules LedgerRules, logger *zap.Logger) *ReportService {
	return &ReportService{
		uow:    uow,
		rules:  rules,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// RecordExpenseRequest represents a request to book a dated expense entry
type RecordExpenseRequest struct {
	Category string          `json:"category" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Note     string          `json:"note"`
	// Date defaults to the current reporting period when omitted
	Date string `json:"date"`
}

// ExpenseResponse represents an expense entry in API responses
type ExpenseResponse struct {
	ID        string          `json:"id"`
	Date      string          `json:"date"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}

func expenseResponse(r *domain.ExpenseRecord) *ExpenseResponse {
	return &ExpenseResponse{
		ID:        r.ID.String(),
		Date:      r.RecordDate,
		Category:  string(r.Category),
		Amount:    r.Amount,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
}

// RecordExpense appends an expense entry. Expenses only reduce profit in
// reports; they never touch the liquid funds balance.
func (s *ReportService) RecordExpense(ctx context.Context, req RecordExpenseRequest) (*ExpenseResponse, error) {
	now := s.now()
	date := req.Date
	if date == "" {
		date = s.rules.Period.PeriodDate(now)
	}

	record, err := domain.NewExpenseRecord(date, domain.ExpenseCategory(req.Category), req.Amount, req.Note, now)
	if err != nil {
		return nil, err
	}

	err = s.uow.Execute(ctx, "record expense", func(repos domain.RepositoryContext) error {
		return repos.Expenses().Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("expense recorded",
		zap.String("category", string(record.Category)),
		zap.String("amount", record.Amount.String()),
		zap.String("date", record.RecordDate),
	)
	return expenseResponse(record), nil
}

// ListExpensesRequest filters expense entries by category over a date range
type ListExpensesRequest struct {
	Category string `form:"category" binding:"required"`
	Start    string `form:"start" binding:"required"`
	End      string `form:"end" binding:"required"`
}

// ListExpenses returns one category's entries over an inclusive date range.
func (s *ReportService) ListExpenses(ctx context.Context, req ListExpensesRequest) ([]*ExpenseResponse, error) {
	category := domain.ExpenseCategory(req.Category)
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown expense category "+req.Category)
	}
	if err := validateDateRange(req.Start, req.End); err != nil {
		return nil, err
	}

	records, err := s.uow.Expenses().ListByRange(ctx, category, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	responses := make([]*ExpenseResponse, len(records))
	for i, r := range records {
		responses[i] = expenseResponse(r)
	}
	return responses, nil
}

// ReportRequest selects the reporting window and optional group focus
type ReportRequest struct {
	Start   string `form:"start" binding:"required"`
	End     string `form:"end" binding:"required"`
	GroupID string `form:"group_id"`
}

// ReportResponse combines the running stock counters with the flow totals of
// the requested window.
type ReportResponse struct {
	Start string `form:"start" json:"start"`
	End   string `form:"end" json:"end"`

	Stock *domain.LedgerSnapshot `json:"stock"`
	Flow  *domain.DailyFlow      `json:"flow"`

	CompanyExpenses decimal.Decimal `json:"company_expenses"`
	OtherExpenses   decimal.Decimal `json:"other_expenses"`
	// Profit is interest earned in the window minus both expense buckets
	Profit decimal.Decimal `json:"profit"`
}

// GetReport assembles the window report. With a group id the stock section is
// that group's row; otherwise it is the global row, the only one carrying the
// liquid funds balance.
func (s *ReportService) GetReport(ctx context.Context, req ReportRequest) (*ReportResponse, error) {
	if err := validateDateRange(req.Start, req.End); err != nil {
		return nil, err
	}

	ledger := s.uow.Ledger()

	var stock *domain.LedgerSnapshot
	var err error
	if req.GroupID == "" {
		stock, err = ledger.GlobalSnapshot(ctx)
	} else {
		stock, err = ledger.GroupSnapshot(ctx, req.GroupID)
	}
	if err != nil {
		return nil, err
	}

	flow, err := ledger.SumDailyRange(ctx, req.Start, req.End, req.GroupID)
	if err != nil {
		return nil, err
	}

	company, other, err := s.uow.Expenses().SumByRange(ctx, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	return &ReportResponse{
		Start:           req.Start,
		End:             req.End,
		Stock:           stock,
		Flow:            flow,
		CompanyExpenses: company,
		OtherExpenses:   other,
		Profit:          flow.Interest.Sub(company).Sub(other),
	}, nil
}

// CreateGroupRequest registers a new attribution group
type CreateGroupRequest struct {
	GroupID string `json:"group_id" binding:"required,groupid"`
}

// CreateGroup registers an attribution group ahead of its first order so it
// shows up in listings with zeroed counters.
func (s *ReportService) CreateGroup(ctx context.Context, req CreateGroupRequest) error {
	if !groupIDPattern.MatchString(req.GroupID) {
		return shared.NewDomainError("INVALID_INPUT", "Group id must be an uppercase letter followed by two digits")
	}

	ids, err := s.uow.Ledger().ListGroupIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == req.GroupID {
			return shared.ErrAlreadyExists
		}
	}

	err = s.uow.Execute(ctx, "create group", func(repos domain.RepositoryContext) error {
		return repos.Ledger().EnsureGroup(ctx, req.GroupID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("group created", zap.String("group_id", req.GroupID))
	return nil
}

// GroupResponse represents one attribution group with its running counters
type GroupResponse struct {
	GroupID string                 `json:"group_id"`
	Stock   *domain.LedgerSnapshot `json:"stock"`
}

// ListGroups returns every known group with its counters.
func (s *ReportService) ListGroups(ctx context.Context) ([]*GroupResponse, error) {
	ids, err := s.uow.Ledger().ListGroupIDs(ctx)
	if err != nil {
		return nil, err
	}

	groups := make([]*GroupResponse, 0, len(ids))
	for _, id := range ids {
		snapshot, err := s.uow.Ledger().GroupSnapshot(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, &GroupResponse{GroupID: id, Stock: snapshot})
	}
	return groups, nil
}

// SearchOrdersRequest selects orders by group, state, or order-date window.
// Filters combine except state+range; all empty means everything.
type SearchOrdersRequest struct {
	GroupID string `form:"group_id"`
	State   string `form:"state"`
	Start   string `form:"start"`
	End     string `form:"end"`
}

// SearchOrders runs the order finders behind the operator search commands.
func (s *ReportService) SearchOrders(ctx context.Context, req SearchOrdersRequest) ([]*OrderResponse, error) {
	var state *domain.OrderState
	if req.State != "" {
		parsed := domain.OrderState(req.State)
		if !parsed.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown order state "+req.State)
		}
		state = &parsed
	}

	orders, err := s.findOrders(ctx, req, state)
	if err != nil {
		return nil, err
	}

	responses := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		responses[i] = orderResponse(o)
	}
	return responses, nil
}

func (s *ReportService) findOrders(ctx context.Context, req SearchOrdersRequest, state *domain.OrderState) ([]*domain.Order, error) {
	repo := s.uow.Orders()

	switch {
	case req.GroupID != "":
		return repo.FindByGroupID(ctx, req.GroupID, state)
	case req.Start != "" || req.End != "":
		if err := validateDateRange(req.Start, req.End); err != nil {
			return nil, err
		}
		start, _ := time.Parse(domain.PeriodDateLayout, req.Start)
		end, _ := time.Parse(domain.PeriodDateLayout, req.End)
		return repo.FindByDateRange(ctx, start, end)
	case state != nil:
		return repo.FindByState(ctx, *state)
	default:
		return repo.FindAll(ctx)
	}
}

func validateDateRange(start, end string) error {
	from, err := time.Parse(domain.PeriodDateLayout, start)
	if err != nil {
		return shared.NewDomainError("INVALID_INPUT", "Start date must be formatted as "+domain.PeriodDateLayout)
	}
	to, err := time.Parse(domain.PeriodDateLayout, end)
	if err != nil {
		return shared.NewDomainError("INVALID_INPUT", "End date must be formatted as "+domain.PeriodDateLayout)
	}
	if to.Before(from) {
		return shared.NewDomainError("INVALID_INPUT", "End date cannot precede start date")
	}
	return nil
}
