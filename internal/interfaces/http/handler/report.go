package handler

import (
	"github.com/gin-gonic/gin"
	lendingapp "github.com/loanbook/backend/internal/application/lending"
	"github.com/loanbook/backend/internal/interfaces/http/middleware"
)

// ReportHandler handles reporting and bookkeeping API endpoints
type ReportHandler struct {
	BaseHandler
	service *lendingapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *lendingapp.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// RecordExpense appends a dated expense entry
func (h *ReportHandler) RecordExpense(c *gin.Context) {
	var req lendingapp.RecordExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	record, err := h.service.RecordExpense(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// ListExpenses returns a category's entries over a date range
func (h *ReportHandler) ListExpenses(c *gin.Context) {
	var req lendingapp.ListExpensesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	records, err := h.service.ListExpenses(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// GetReport assembles the stock-and-flow report for a window
func (h *ReportHandler) GetReport(c *gin.Context) {
	var req lendingapp.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	report, err := h.service.GetReport(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// CreateGroup registers an attribution group
func (h *ReportHandler) CreateGroup(c *gin.Context) {
	var req lendingapp.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.service.CreateGroup(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{"group_id": req.GroupID})
}

// ListGroups returns every known group with its counters
func (h *ReportHandler) ListGroups(c *gin.Context) {
	groups, err := h.service.ListGroups(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, groups)
}

// SearchOrders runs the order search behind the operator commands
func (h *ReportHandler) SearchOrders(c *gin.Context) {
	var req lendingapp.SearchOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	orders, err := h.service.SearchOrders(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}
