package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-accounting/internal/config"
	"go-accounting/internal/handler"
	"go-accounting/internal/middleware"
	"go-accounting/internal/model"
	"go-accounting/internal/repository"
	"go-accounting/internal/service"
	"go-accounting/internal/ws"
	"go-accounting/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	// 2. Setup Database
	db := database.ConnectDB(cfg)
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 3. Seed default privileges, roles, and admin user
	seedPrivilegesRolesAndAdmin(db, cfg)

	// 4. Setup WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := ws.NewHub()
	go wsHub.Run(hubCtx)

	// 5. Dependency Injection (Wiring Layers)
	purchaseRepo := repository.NewPurchaseRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	itemRepo := repository.NewOrderItemRepo(db)
	tallyRepo := repository.NewTallyRepo(db)
	dashRepo := repository.NewDashboardRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	tallyService := service.NewTallyService(tallyRepo, itemRepo, db)
	purchaseService := service.NewPurchaseService(purchaseRepo, orderRepo, itemRepo, tallyService, db, wsHub)
	orderService := service.NewOrderService(purchaseRepo, orderRepo, itemRepo, tallyRepo, tallyService, db, wsHub)
	itemService := service.NewOrderItemService(purchaseRepo, orderRepo, itemRepo, tallyService, db, wsHub)
	dashService := service.NewDashboardService(dashRepo)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)

	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	orderHandler := handler.NewOrderHandler(orderService)
	itemHandler := handler.NewOrderItemHandler(itemService)
	tallyHandler := handler.NewTallyHandler(tallyService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: middleware.ErrorHandler,
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	requireAuth := middleware.RequireAuth(authService)
	auth.Post("/heartbeat", requireAuth, authHandler.Heartbeat)
	auth.Post("/logout", requireAuth, authHandler.Logout)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	// Dashboard
	protected.Get("/dashboard/stats", middleware.RequirePrivilege("dashboard:view"), dashHandler.GetDashboardStats)
	protected.Get("/dashboard/sales", middleware.RequirePrivilege("dashboard:view"), dashHandler.GetSales)

	// Purchases
	protected.Get("/purchases", middleware.RequirePrivilege("purchase:view"), purchaseHandler.GetPurchases)
	protected.Get("/purchases/:id", middleware.RequirePrivilege("purchase:view"), purchaseHandler.GetPurchase)
	protected.Post("/purchases", middleware.RequirePrivilege("purchase:create"), purchaseHandler.CreatePurchase)
	protected.Put("/purchases/:id", middleware.RequirePrivilege("purchase:update"), purchaseHandler.UpdatePurchase)
	protected.Delete("/purchases/:id", middleware.RequirePrivilege("purchase:delete"), purchaseHandler.DeletePurchase)
	protected.Post("/purchases/export", middleware.RequirePrivilege("export:csv"), purchaseHandler.ExportPurchases)

	// Orders (items can be edited inline through PUT /orders/:id)
	protected.Get("/orders", middleware.RequirePrivilege("order:view"), orderHandler.GetOrders)
	protected.Get("/orders/:id", middleware.RequirePrivilege("order:view"), orderHandler.GetOrder)
	protected.Get("/orders/:id/tally", middleware.RequirePrivilege("tally:view"), tallyHandler.GetOrderTally)
	protected.Post("/orders", middleware.RequirePrivilege("order:create"), orderHandler.CreateOrder)
	protected.Put("/orders/:id", middleware.RequirePrivilege("order:update"), orderHandler.UpdateOrder)
	protected.Delete("/orders/:id", middleware.RequirePrivilege("order:delete"), orderHandler.DeleteOrder)
	protected.Post("/orders/export", middleware.RequirePrivilege("export:csv"), orderHandler.ExportOrders)

	// Order items
	protected.Get("/order-items", middleware.RequirePrivilege("order:view"), itemHandler.GetOrderItems)
	protected.Get("/order-items/:id", middleware.RequirePrivilege("order:view"), itemHandler.GetOrderItem)
	protected.Post("/order-items", middleware.RequirePrivilege("order:update"), itemHandler.CreateOrderItem)
	protected.Put("/order-items/:id", middleware.RequirePrivilege("order:update"), itemHandler.UpdateOrderItem)
	protected.Delete("/order-items/:id", middleware.RequirePrivilege("order:update"), itemHandler.DeleteOrderItem)
	protected.Post("/order-items/export", middleware.RequirePrivilege("export:csv"), itemHandler.ExportOrderItems)

	// Final tallies (derived, read-only)
	protected.Get("/tallies", middleware.RequirePrivilege("tally:view"), tallyHandler.GetTallies)
	protected.Post("/tallies/recompute", middleware.RequireSuperuser(), middleware.RequirePrivilege("tally:recompute"), tallyHandler.RecomputeTallies)
	protected.Post("/tallies/export", middleware.RequirePrivilege("export:csv"), tallyHandler.ExportTallies)

	// User Management Routes (with privilege checks)
	protected.Get("/users", middleware.RequirePrivilege("user:view"), userHandler.GetUsers)
	protected.Get("/users/:id", middleware.RequirePrivilege("user:view"), userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege("user:create"), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege("user:update"), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege("user:delete"), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege("user:update_privilege"), userHandler.UpdateUserPrivileges)

	// Role Routes
	protected.Get("/roles", roleHandler.GetRoles)

	// Privileges Route (list all available privileges)
	protected.Get("/privileges", roleHandler.GetPrivileges)

	// WebSocket Route (authenticated, events scoped to the caller)
	handler.RegisterLiveFeed(app, requireAuth, wsHub)

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	stopHub()

	log.Println("Server exited")
}

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and the
// superuser account if they don't exist
func seedPrivilegesRolesAndAdmin(db *gorm.DB, cfg config.Config) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 1. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed privileges: %v", err)
	}

	// 2. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	// 3. Give untouched roles their default privileges
	allPrivileges, err := privilegeRepo.FindAll()
	if err != nil {
		log.Printf("Warning: Failed to load privileges: %v", err)
	} else if err := roleRepo.AssignDefaultPrivileges(allPrivileges); err != nil {
		log.Printf("Warning: Failed to assign role privileges: %v", err)
	}

	// 4. Create the superuser with MASTER_ADMIN role
	if _, err = userRepo.FindByEmail(cfg.AdminEmail); err == nil {
		return
	}
	masterRole, err := roleRepo.FindByCode(model.RoleMasterAdmin)
	if err != nil {
		log.Printf("Warning: MASTER_ADMIN role missing, admin user not created: %v", err)
		return
	}

	admin := &model.User{
		Email:       cfg.AdminEmail,
		FullName:    "Master Administrator",
		RoleID:      &masterRole.ID,
		IsActive:    true,
		IsSuperuser: true,
		Privileges:  masterRole.Privileges,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword(cfg.AdminPassword); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}

	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
	} else {
		log.Printf("✅ Superuser created: %s (MASTER_ADMIN)", cfg.AdminEmail)
	}
}
