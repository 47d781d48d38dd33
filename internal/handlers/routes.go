package handlers

import (
	"github.com/gatherup/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// RouterDeps bundles everything the HTTP surface needs. The realtime endpoint
// is mounted separately by the caller since it owns the hub lifecycle.
type RouterDeps struct {
	Auth      *AuthHandler
	OAuth     *OAuthHandler
	Groups    *GroupsHandler
	Trips     *TripsHandler
	Payments  *PaymentsHandler
	Analysis  *AnalysisHandler
	History   *HistoryHandler
	Departure *DepartureHandler
	Images    *ImagesHandler

	AuthMiddleware *middleware.AuthMiddleware
}

// RegisterRoutes mounts the REST API. Route layout mirrors the mobile
// client's expectations: one prefix per feature area under /api.
func RegisterRoutes(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	requireAuth := deps.AuthMiddleware.RequireAuth

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", deps.Auth.Register)
	authRoutes.Post("/login", deps.Auth.Login)
	authRoutes.Get("/me", requireAuth, deps.Auth.Me)
	authRoutes.Get("/oauth/:provider/login", deps.OAuth.Login)
	authRoutes.Get("/oauth/:provider/callback", deps.OAuth.Callback)

	groupRoutes := api.Group("/group", requireAuth)
	groupRoutes.Post("/", deps.Groups.Create)
	groupRoutes.Get("/:id", deps.Groups.Get)
	groupRoutes.Get("/:id/members", deps.Groups.Members)
	groupRoutes.Post("/:id/invite", deps.Groups.CreateInvite)
	groupRoutes.Post("/:id/join", deps.Groups.JoinExisting)
	api.Post("/invite/:code", requireAuth, deps.Groups.JoinByInvite)
	api.Get("/previous", requireAuth, deps.Groups.Previous)

	tripRoutes := api.Group("/trip", requireAuth)
	tripRoutes.Post("/", deps.Trips.Create)
	tripRoutes.Get("/mine", deps.Trips.Mine)
	tripRoutes.Get("/upcoming", deps.Trips.Upcoming)
	tripRoutes.Get("/:id", deps.Trips.Get)
	tripRoutes.Patch("/location/:locationId", deps.Trips.UpdateLocation)
	tripRoutes.Delete("/location/:locationId", deps.Trips.DeleteLocation)

	paymentRoutes := api.Group("/payment", requireAuth)
	paymentRoutes.Post("/:tripId", deps.Payments.Save)
	paymentRoutes.Patch("/:tripId", deps.Payments.Update)
	paymentRoutes.Get("/:tripId", deps.Payments.List)
	paymentRoutes.Get("/:tripId/members", deps.Payments.Members)
	paymentRoutes.Post("/share/:paymentId/settle", deps.Payments.SettleShare)

	api.Get("/analysis/:tripId", requireAuth, deps.Analysis.Analyze)
	api.Get("/history", requireAuth, deps.History.List)
	api.Delete("/delete/leave/:tripId", requireAuth, deps.Departure.Leave)

	imageRoutes := api.Group("/image", requireAuth)
	imageRoutes.Post("/group/:id/thumbnail", deps.Images.GroupThumbnail)
	imageRoutes.Post("/group/:id/background", deps.Images.GroupBackground)
	imageRoutes.Post("/location/:locationId/thumbnail", deps.Images.LocationThumbnail)
}
