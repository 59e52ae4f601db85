package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loanbook/backend/internal/infrastructure/logging"
	"github.com/loanbook/backend/internal/interfaces/http/handler"
	"github.com/loanbook/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine) *Router {
	return &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Build assembles the gin engine with the standard middleware chain and all
// application routes registered.
func Build(logger *zap.Logger, orders *handler.OrderHandler, reports *handler.ReportHandler) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logging.GinMiddleware(logger),
		logging.Recovery(logger),
	)

	router := NewRouter(engine)
	router.Register(orderRoutes{orders})
	router.Register(reportRoutes{reports})
	router.Setup()
	return engine
}

type orderRoutes struct {
	h *handler.OrderHandler
}

func (r orderRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", r.h.CreateOrder)
		orders.POST("/decode", r.h.DecodeTitle)
	}

	chats := rg.Group("/chats/:chatID")
	{
		chats.GET("/order", r.h.GetActiveOrder)
		chats.POST("/transition", r.h.Transition)
		chats.POST("/reduce-principal", r.h.ReducePrincipal)
	}

	rg.POST("/interest", r.h.RecordInterest)

	funds := rg.Group("/funds")
	{
		funds.POST("/adjust", r.h.AdjustFunds)
		funds.GET("/can-debit", r.h.CanDebit)
	}
}

type reportRoutes struct {
	h *handler.ReportHandler
}

func (r reportRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/orders", r.h.SearchOrders)
	rg.GET("/reports", r.h.GetReport)

	expenses := rg.Group("/expenses")
	{
		expenses.POST("", r.h.RecordExpense)
		expenses.GET("", r.h.ListExpenses)
	}

	groups := rg.Group("/groups")
	{
		groups.GET("", r.h.ListGroups)
		groups.POST("", r.h.CreateGroup)
	}
}
