package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/learnio/learnio_backend/controllers"
	"github.com/learnio/learnio_backend/middleware"
)

// RegisterPaymentRoutes sets up the payment initiation, webhook and
// verification endpoints.
func RegisterPaymentRoutes(e *echo.Echo, paymentController *controllers.PaymentController) {
	// The processor calls these; they carry their own authentication
	// (webhook signature, gateway-issued reference).
	e.POST("/api/payment/webhook", paymentController.HandleWebhook)
	e.GET("/api/payment/verify/:reference", paymentController.VerifyPayment)

	// Student endpoints
	student := e.Group("/api/payment")
	student.Use(middleware.JWTMiddleware())
	student.POST("/initiate", paymentController.InitiatePayment, middleware.RequireUserType("student"))
	student.GET("/status/:reference", paymentController.GetPaymentStatus)
}
