package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	lendingapp "github.com/loanbook/backend/internal/application/lending"
	"github.com/loanbook/backend/internal/domain/lending"
	"github.com/loanbook/backend/internal/infrastructure/persistence"
	"github.com/loanbook/backend/internal/interfaces/http/handler"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, persistence.Migrate(db, decimal.NewFromInt(100000)))

	uow := persistence.NewGormUnitOfWork(db)
	rules := lendingapp.LedgerRules{
		Period:            lending.NewPeriodClock("UTC", 23),
		HistoricalCutover: time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC),
		DefaultGroup:      "S01",
	}
	logger := zap.NewNop()

	return Build(logger,
		handler.NewOrderHandler(lendingapp.NewOrderService(uow, rules, logger)),
		handler.NewReportHandler(lendingapp.NewReportService(uow, rules, logger)),
	)
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	engine := newTestEngine(t)
	rec := doJSON(t, engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("create order", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/api/v1/orders", gin.H{
			"chat_id": 42,
			"title":   "2511280105 张三",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				OrderID string `json:"order_id"`
				State   string `json:"state"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "2511280105", resp.Data.OrderID)
		assert.Equal(t, "NORMAL", resp.Data.State)
	})

	t.Run("duplicate create conflicts", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/api/v1/orders", gin.H{
			"chat_id": 42,
			"title":   "2512010203",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("fetch active order", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodGet, "/api/v1/chats/42/order", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("state transition", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/api/v1/chats/42/transition", gin.H{
			"target": "OVERDUE",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("illegal transition is unprocessable", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/api/v1/chats/42/transition", gin.H{
			"target": "BREACH_END",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("reduce principal", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/api/v1/chats/42/reduce-principal", gin.H{
			"amount": "2000",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("no order on an unknown chat", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodGet, "/api/v1/chats/777/order", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDecodeEndpoint(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/orders/decode", gin.H{"title": "A2511280105"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recognized":true`)

	rec = doJSON(t, engine, http.MethodPost, "/api/v1/orders/decode", gin.H{"title": "not an order"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recognized":false`)
}

func TestValidationFailures(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("missing fields report details", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/api/v1/orders", gin.H{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad group id is rejected by the groupid tag", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/api/v1/groups", gin.H{"group_id": "nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad chat id path param", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodGet, "/api/v1/chats/abc/order", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReportEndpoints(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/groups", gin.H{"group_id": "S02"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/groups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "S02")

	rec = doJSON(t, engine, http.MethodPost, "/api/v1/expenses", gin.H{
		"category": "COMPANY",
		"amount":   "800",
		"date":     "2025-12-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/reports?start=2025-12-01&end=2025-12-31", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"company_expenses"`)

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/funds/can-debit?amount=5000", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"allowed":true`)
}
