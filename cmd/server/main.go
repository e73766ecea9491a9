package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"tandoor-system/config"
	"tandoor-system/internal/database"
	"tandoor-system/internal/database/models"
	"tandoor-system/internal/events"
	"tandoor-system/internal/server/middleware"
	billinghandler "tandoor-system/internal/services/billing/handler"
	dashboardhandler "tandoor-system/internal/services/dashboard/handler"
	menuhandler "tandoor-system/internal/services/menu/handler"
	userhandler "tandoor-system/internal/services/user/handler"
)

func main() {
	cfg := config.LoadConfig()

	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		log.Fatal("AUTH_JWT_SECRET is required")
	}

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb := config.NewRedisClient(cfg.Redis)
	bus := events.NewRedisBus(rdb)

	billingHandler := billinghandler.NewBillingHandler(db, bus)
	menuHandler := menuhandler.NewMenuHandler(db, rdb, bus)
	userHandler := userhandler.NewUserHandler(db, secret, time.Duration(cfg.Auth.TokenTTL)*time.Hour)
	dashboardHandler := dashboardhandler.NewDashboardHandler(db)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit("300-M"))

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
			auth.POST("/register", userHandler.Register)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(secret))
	{
		protected.GET("/auth/me", userHandler.Me)
		protected.GET("/events/stream", events.StreamHandler(bus))

		bills := protected.Group("/bills")
		{
			bills.GET("", billingHandler.ListBills)
			bills.GET("/:id/receipt", billingHandler.Receipt)
			// Cancellation is shared: billers discard drafts, the kitchen
			// cancels queued orders.
			bills.DELETE("/:id", billingHandler.CancelBill)
		}

		biller := protected.Group("/bills")
		biller.Use(middleware.RequireRole(models.RoleBiller))
		{
			biller.POST("", billingHandler.CreateBill)
			biller.PUT("/:id", billingHandler.UpdateDraft)
			biller.POST("/:id/finalize", billingHandler.FinalizeBill)
		}

		kitchen := protected.Group("/orders")
		kitchen.Use(middleware.RequireRole(models.RoleKitchenManager))
		{
			kitchen.GET("/active", billingHandler.ActiveQueue)
			kitchen.POST("/:id/complete", billingHandler.CompleteOrder)
			kitchen.POST("/:id/return", billingHandler.ReturnOrder)
		}

		menu := protected.Group("/menu")
		{
			menu.GET("/categories", menuHandler.ListCategories)
			menu.POST("/categories", menuHandler.CreateCategory)
			menu.DELETE("/categories/:id", menuHandler.DeleteCategory)

			menu.GET("/items", menuHandler.ListFoodItems)
			menu.POST("/items", menuHandler.CreateFoodItem)
			menu.PUT("/items/:id", menuHandler.UpdateFoodItem)
			menu.DELETE("/items/:id", menuHandler.DeleteFoodItem)
		}

		protected.GET("/dashboard/stats", dashboardHandler.Stats)
	}

	log.Printf("Server listening on %s", cfg.HTTP.Addr)
	if err := r.Run(cfg.HTTP.Addr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
