package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-complaints/internal/api/http/handlers"
	"github.com/spec-kit/civic-complaints/internal/auth"
	"github.com/spec-kit/civic-complaints/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Complaints     *handlers.ComplaintsHandler
	Staff          *handlers.StaffHandler
	Reviews        *handlers.ReviewsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	// Org bootstrap is open; the returned join code gates who can register.
	app.Post("/orgs", cfg.Users.CreateOrganization)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Get("/orgs/me", cfg.Users.OrganizationProfile)

	admin := protected.Group("", auth.RequireRole(domain.RoleAdmin))
	admin.Post("/users/operators", cfg.Users.CreateOperator)
	admin.Post("/departments", cfg.Staff.CreateDepartment)
	admin.Put("/departments/:id", cfg.Staff.UpdateDepartment)
	admin.Get("/analytics/summary", cfg.Staff.AnalyticsSummary)

	protected.Get("/departments", cfg.Staff.ListDepartments)

	operators := protected.Group("", auth.RequireRole(domain.RoleStaff, domain.RoleAdmin))
	operators.Get("/complaints", cfg.Complaints.List)
	operators.Patch("/complaints/:id/status", cfg.Complaints.UpdateStatus)
	operators.Post("/complaints/:id/assign", cfg.Complaints.Assign)
	operators.Get("/departments/:id/staff", cfg.Staff.ListRoster)
	operators.Get("/staff/nearby", cfg.Staff.Nearby)

	staffOnly := protected.Group("/staff", auth.RequireRole(domain.RoleStaff))
	staffOnly.Get("/profile", cfg.Staff.GetProfile)
	staffOnly.Put("/profile", cfg.Staff.UpsertProfile)
	staffOnly.Patch("/duty", cfg.Staff.SetDuty)

	protected.Get("/staff/:id/reviews", cfg.Reviews.ListByStaff)

	citizens := protected.Group("", auth.RequireRole(domain.RoleCitizen))
	citizens.Post("/reviews", cfg.Reviews.Submit)

	protected.Post("/complaints", cfg.Complaints.Create)
	protected.Get("/complaints/mine", cfg.Complaints.ListMine)
	protected.Get("/complaints/:id", cfg.Complaints.Get)
}
