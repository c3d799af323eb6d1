package api

import (
	"github.com/go-chi/chi/v5"
)

func setupPublicRoutes(r chi.Router, handlers *routeHandlers) {
	r.Get("/health", handlers.healthHandler.getHealth())
}

// setupFrontendRoutes sets up all routes with authentication
func setupFrontendRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.authenticate)

		// A profile can be created and read before the session exists
		r.Post("/profile", handlers.profileHandler.createProfile())
		r.Get("/profile", handlers.profileHandler.getProfile())

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.loadSession)

			r.Put("/profile", handlers.profileHandler.updateProfile())

			r.Get("/dashboard", handlers.dashboardHandler.getDashboard())
			r.Get("/projects", handlers.projectHandler.getProjects())
			r.Get("/projects/available", handlers.projectHandler.getAvailableProjects())

			r.Post("/project", handlers.projectHandler.createProject())
			r.Route("/project/{projectID}", func(r chi.Router) {
				r.Get("/", handlers.projectHandler.getProject())
				r.Put("/", handlers.projectHandler.updateProject())
				r.Delete("/", handlers.projectHandler.deleteProject())

				r.Post("/submit", handlers.projectHandler.submitProject())
				r.Post("/claim", handlers.projectHandler.claimProject())
				r.Post("/approve", handlers.projectHandler.approveProject())
				r.Post("/cancel", handlers.projectHandler.cancelProject())
				r.Post("/raw-footage", handlers.projectHandler.uploadRawFootage())
				r.Post("/brief", handlers.projectHandler.generateBrief())

				r.Get("/versions", handlers.versionHandler.getVersions())
				r.Post("/versions", handlers.versionHandler.createVersion())

				r.Get("/comments", handlers.commentHandler.getComments())
				r.Post("/comments", handlers.commentHandler.createComment())
			})
		})
	})
}
