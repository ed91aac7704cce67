package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"taxi/internal/handler"
	"taxi/internal/middleware"
	"taxi/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	ShiftHandler     *handler.ShiftHandler
	RideHandler      *handler.RideHandler
	ExpenseHandler   *handler.ExpenseHandler
	SummaryHandler   *handler.SummaryHandler
	SettingsHandler  *handler.SettingsHandler
	IdempotencyStore redis.IdempotencyStoreInterface
	NewRelicApp      *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicErrors())
	}

	router.Use(middleware.IdempotencyMiddleware(deps.IdempotencyStore))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Shift routes.
		shifts := v1.Group("/shifts")
		{
			shifts.POST("", deps.ShiftHandler.StartShift)
			shifts.GET("", deps.ShiftHandler.ListShifts)
			shifts.GET("/active", deps.ShiftHandler.GetActiveShift)
			shifts.GET("/:id", deps.ShiftHandler.GetShift)
			shifts.POST("/:id/close", deps.ShiftHandler.CloseShift)
			shifts.PUT("/:id", deps.ShiftHandler.AmendShift)
			shifts.DELETE("/:id", deps.ShiftHandler.DeleteShift)
			shifts.GET("/:id/rides", deps.RideHandler.ListRides)
			shifts.POST("/:id/rides", deps.RideHandler.RecordRide)
		}

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.PUT("/:id", deps.RideHandler.UpdateRide)
			rides.DELETE("/:id", deps.RideHandler.DeleteRide)
			rides.PUT("/:id/amend", deps.RideHandler.AmendRide)
			rides.DELETE("/:id/amend", deps.RideHandler.DeleteAmendedRide)
		}

		// Expense routes.
		expenses := v1.Group("/expenses")
		{
			expenses.POST("", deps.ExpenseHandler.RecordExpense)
			expenses.GET("", deps.ExpenseHandler.ListExpenses)
			expenses.GET("/:id", deps.ExpenseHandler.GetExpense)
			expenses.PUT("/:id", deps.ExpenseHandler.UpdateExpense)
			expenses.DELETE("/:id", deps.ExpenseHandler.DeleteExpense)
		}

		// Summary routes.
		summaries := v1.Group("/summaries")
		{
			summaries.GET("/daily", deps.SummaryHandler.Daily)
			summaries.GET("/monthly", deps.SummaryHandler.Monthly)
			summaries.GET("/annual", deps.SummaryHandler.Annual)
			summaries.GET("/expenses", deps.SummaryHandler.Expenses)
			summaries.GET("/payments", deps.SummaryHandler.Payments)
			summaries.GET("/stats", deps.SummaryHandler.Stats)
		}

		// Settings routes.
		settings := v1.Group("/settings")
		{
			settings.GET("/target", deps.SettingsHandler.GetTarget)
			settings.PUT("/target", deps.SettingsHandler.SetTarget)
		}
	}

	return router
}
