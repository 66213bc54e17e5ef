package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/learnio/learnio_backend/controllers"
	"github.com/learnio/learnio_backend/middleware"
)

// RegisterWithdrawalRoutes sets up the instructor balance and payout
// endpoints.
func RegisterWithdrawalRoutes(e *echo.Echo, withdrawalController *controllers.WithdrawalController) {
	instructor := e.Group("/api/withdrawals")
	instructor.Use(middleware.JWTMiddleware())
	instructor.Use(middleware.RequireUserType("instructor"))

	instructor.GET("/balance", withdrawalController.GetBalance)
	instructor.POST("/request", withdrawalController.RequestWithdrawal)
	instructor.GET("", withdrawalController.GetWithdrawals)
}
