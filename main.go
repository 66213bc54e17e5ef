package main

import (
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/learnio/learnio_backend/config"
	"github.com/learnio/learnio_backend/controllers"
	"github.com/learnio/learnio_backend/middleware"
	"github.com/learnio/learnio_backend/repositories"
	"github.com/learnio/learnio_backend/routes"
	"github.com/learnio/learnio_backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (optional, degrades to no verify throttling)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	db := client.Database(config.GetDatabaseName())

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Learnio Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize repositories
	paymentRepo := repositories.NewPaymentRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	withdrawalRepo := repositories.NewWithdrawalRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// Initialize services
	gatewayService := services.NewGatewayService()
	settlementService := services.NewSettlementService(
		paymentRepo, transactionRepo, enrollmentRepo, courseRepo, userRepo, revenueSplitRatio())
	ledgerService := services.NewLedgerService(transactionRepo, withdrawalRepo, courseRepo, userRepo)
	withdrawalService := services.NewWithdrawalService(ledgerService, withdrawalRepo, gatewayService)

	// Initialize controllers
	paymentController := controllers.NewPaymentController(
		paymentRepo, courseRepo, gatewayService, settlementService, redisClient)
	withdrawalController := controllers.NewWithdrawalController(
		ledgerService, withdrawalService, withdrawalRepo)

	// Register routes
	routes.RegisterPaymentRoutes(e, paymentController)
	routes.RegisterWithdrawalRoutes(e, withdrawalController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

// revenueSplitRatio reads the instructor's share of each payment from the
// environment, defaulting to 80 percent.
func revenueSplitRatio() float64 {
	ratioStr := os.Getenv("REVENUE_SPLIT_RATIO")
	if ratioStr == "" {
		return 0.8
	}
	ratio, err := strconv.ParseFloat(ratioStr, 64)
	if err != nil || ratio <= 0 || ratio >= 1 {
		log.Printf("Invalid REVENUE_SPLIT_RATIO %q, using default 0.8", ratioStr)
		return 0.8
	}
	return ratio
}
