package routes

import (
	"campus-orghub/internal/adapters/http/handlers"
	"campus-orghub/internal/adapters/http/middleware"
	"campus-orghub/internal/adapters/persistence/repositories"
	"campus-orghub/internal/config"
	"campus-orghub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the cron
// service so main can manage its lifecycle.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.CronService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	studentRepo := repositories.NewStudentRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	roomRepo := repositories.NewRoomRepository(db)
	reservationRepo := repositories.NewReservationRepository(db)

	// Selection pipeline store (transactional boundary)
	store := repositories.NewSelectionStore(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, studentRepo, cfg)
	userService := services.NewUserService(userRepo, studentRepo)
	notifyService := services.NewNotificationService()
	orgService := services.NewOrganizationService(orgRepo, store)
	phaseService := services.NewPhaseService(store, orgRepo)
	membershipService := services.NewMembershipService(store, orgRepo, notifyService)
	selectionService := services.NewSelectionService(store, orgRepo, studentRepo, notifyService)
	reservationService := services.NewReservationService(roomRepo, reservationRepo, orgRepo)
	dashboardService := services.NewDashboardService(db)
	cronService := services.NewCronService(membershipService, refreshTokenRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	orgHandler := handlers.NewOrganizationHandler(orgService, membershipService)
	phaseHandler := handlers.NewPhaseHandler(phaseService)
	candidacyHandler := handlers.NewCandidacyHandler(selectionService, membershipService, authService)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, userHandler, orgHandler,
		phaseHandler, candidacyHandler, reservationHandler, dashboardHandler, cfg)

	return cronService
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	orgHandler *handlers.OrganizationHandler,
	phaseHandler *handlers.PhaseHandler,
	candidacyHandler *handlers.CandidacyHandler,
	reservationHandler *handlers.ReservationHandler,
	dashboardHandler *handlers.DashboardHandler,
	cfg *config.Config,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// User management routes (Admin only)
	userRoutes := router.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	// Profile routes (Authenticated users)
	profileRoutes := router.Group("/profile")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	// Organization routes
	orgRoutes := router.Group("/orgs")
	setupOrganizationRoutes(orgRoutes, orgHandler, phaseHandler, candidacyHandler, reservationHandler, cfg)

	// Candidacy routes (Authenticated users)
	candidacyRoutes := router.Group("/candidacies")
	candidacyRoutes.Use(middleware.AuthMiddleware(cfg))
	setupCandidacyRoutes(candidacyRoutes, candidacyHandler)

	// Phase routes (Board/Admin)
	phaseRoutes := router.Group("/phases")
	phaseRoutes.Use(middleware.AuthMiddleware(cfg))
	phaseRoutes.Use(middleware.BoardOrAdmin())
	phaseRoutes.Put("/:id", phaseHandler.Update)
	phaseRoutes.Delete("/:id", phaseHandler.Delete)

	// Room and reservation routes (Authenticated users)
	roomRoutes := router.Group("/rooms")
	roomRoutes.Use(middleware.AuthMiddleware(cfg))
	roomRoutes.Get("/:id/reservations", reservationHandler.ListByRoom)
	roomRoutes.Post("/:id/reservations", reservationHandler.Reserve)

	reservationRoutes := router.Group("/reservations")
	reservationRoutes.Use(middleware.AuthMiddleware(cfg))
	reservationRoutes.Delete("/:id", reservationHandler.Cancel)

	// Current-user convenience routes
	meRoutes := router.Group("/me")
	meRoutes.Use(middleware.AuthMiddleware(cfg))
	meRoutes.Get("/organizations", orgHandler.MyOrganizations)
	meRoutes.Get("/reservations", reservationHandler.MyReservations)

	// Dashboard routes
	dashboardRoutes := router.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	setupDashboardRoutes(dashboardRoutes, dashboardHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (rate limited against brute force)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupUserRoutes configures user management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id", handler.UpdateUser)
	router.Delete("/:id", handler.DeleteUser)
	router.Put("/:id/role", handler.SetUserRole)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", handler.ChangePassword)
}

// setupOrganizationRoutes configures organization, pipeline and facility routes
func setupOrganizationRoutes(
	router fiber.Router,
	orgHandler *handlers.OrganizationHandler,
	phaseHandler *handlers.PhaseHandler,
	candidacyHandler *handlers.CandidacyHandler,
	reservationHandler *handlers.ReservationHandler,
	cfg *config.Config,
) {
	// Public catalog
	router.Get("/", middleware.OrgListCache(), orgHandler.List)
	router.Get("/:id", orgHandler.Get)

	// Admin only
	router.Post("/", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), orgHandler.Create)
	router.Put("/:id", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), orgHandler.Update)

	// Authenticated
	authed := router.Group("")
	authed.Use(middleware.AuthMiddleware(cfg))

	// Applying (rate limited against spam)
	authed.Post("/:id/candidacies", middleware.StrictRateLimiter(), candidacyHandler.Apply)

	// Rooms
	authed.Get("/:id/rooms", reservationHandler.ListRooms)

	// Board/Admin routes
	board := authed.Group("")
	board.Use(middleware.BoardOrAdmin())

	board.Get("/:id/roles", orgHandler.ListRoles)
	board.Get("/:id/phases", phaseHandler.List)
	board.Post("/:id/phases", phaseHandler.Create)
	board.Get("/:id/pipeline", candidacyHandler.Pipeline)
	board.Get("/:id/metrics", candidacyHandler.Metrics)
	board.Post("/:id/reconcile", candidacyHandler.Reconcile)
	board.Get("/:id/members", orgHandler.ListMembers)
	board.Delete("/:id/members/:userId", orgHandler.RemoveMember)
	board.Post("/:id/rooms", reservationHandler.CreateRoom)
}

// setupCandidacyRoutes configures candidacy routes
func setupCandidacyRoutes(router fiber.Router, handler *handlers.CandidacyHandler) {
	router.Get("/:id", handler.GetCandidacy)
	router.Put("/:id/decide", middleware.BoardOrAdmin(), handler.Decide)
}

// setupDashboardRoutes configures dashboard routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler) {
	// Auto-detect role dashboard (All authenticated users)
	router.Get("/", handler.GetMyDashboard)

	// Student dashboard (All authenticated users)
	router.Get("/student", handler.GetStudentDashboard)

	// Board dashboard (Board/Admin only)
	router.Get("/board/:id", middleware.BoardOrAdmin(), handler.GetBoardDashboard)

	// Admin dashboard (Admin only)
	router.Get("/admin", middleware.AdminOnly(), handler.GetAdminDashboard)
}
