package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	lendingapp "github.com/loanbook/backend/internal/application/lending"
	"github.com/loanbook/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// OrderHandler handles order lifecycle API endpoints
type OrderHandler struct {
	BaseHandler
	service *lendingapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service *lendingapp.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// chatIDParam parses the chat id path parameter
func chatIDParam(c *gin.Context) (int64, bool) {
	chatID, err := strconv.ParseInt(c.Param("chatID"), 10, 64)
	if err != nil || chatID == 0 {
		return 0, false
	}
	return chatID, true
}

// CreateOrder books a new order from a coded chat title
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req lendingapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// DecodeTitleRequest represents a title probe request
type DecodeTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

// DecodeTitle decodes a chat title without creating anything
func (h *OrderHandler) DecodeTitle(c *gin.Context) {
	var req DecodeTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	decoded, ok := h.service.DecodeTitle(req.Title)
	if !ok {
		h.Success(c, gin.H{"recognized": false})
		return
	}
	h.Success(c, gin.H{"recognized": true, "order": decoded})
}

// GetActiveOrder returns the chat's current non-terminal order
func (h *OrderHandler) GetActiveOrder(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid chat id")
		return
	}

	order, err := h.service.GetActiveOrder(c.Request.Context(), chatID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// TransitionBody carries the state-change payload; the chat comes from the path
type TransitionBody struct {
	Target     string           `json:"target" binding:"required"`
	Settlement *decimal.Decimal `json:"settlement,omitempty"`
}

// Transition moves the chat's active order to a new state
func (h *OrderHandler) Transition(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid chat id")
		return
	}

	var body TransitionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	order, err := h.service.Transition(c.Request.Context(), lendingapp.TransitionRequest{
		ChatID:     chatID,
		Target:     body.Target,
		Settlement: body.Settlement,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ReducePrincipalBody carries the repayment payload
type ReducePrincipalBody struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// ReducePrincipal books a partial repayment on the chat's active order
func (h *OrderHandler) ReducePrincipal(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid chat id")
		return
	}

	var body ReducePrincipalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	order, err := h.service.ReducePrincipal(c.Request.Context(), lendingapp.ReducePrincipalRequest{
		ChatID: chatID,
		Amount: body.Amount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// RecordInterest books interest income
func (h *OrderHandler) RecordInterest(c *gin.Context) {
	var req lendingapp.RecordInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.service.RecordInterest(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AdjustFunds applies a manual balance correction
func (h *OrderHandler) AdjustFunds(c *gin.Context) {
	var req lendingapp.AdjustFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	balance, err := h.service.AdjustFunds(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"balance": balance})
}

// CanDebit reports whether the liquid balance covers an amount
func (h *OrderHandler) CanDebit(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		h.BadRequest(c, "Invalid amount")
		return
	}

	allowed, err := h.service.CanDebit(c.Request.Context(), amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"allowed": allowed})
}
