package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(service *lifecycle.Service, r router) *routeHandlers {
	return &routeHandlers{
		healthHandler:    newHealthHandler(r.startupTime),
		profileHandler:   newProfileHandler(service),
		projectHandler:   newProjectHandler(service, r.objectStore),
		versionHandler:   newVersionHandler(service, r.objectStore),
		commentHandler:   newCommentHandler(service),
		dashboardHandler: newDashboardHandler(service),
	}
}

// projectIDParam parses the {projectID} path parameter
func projectIDParam(r *http.Request) (uuid.UUID, error) {
	projectIDStr := chi.URLParam(r, "projectID")
	if projectIDStr == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError("projectID")
	}

	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		return uuid.Nil, errs.NewInvalidFieldError("projectID", "must be a UUID")
	}
	return projectID, nil
}

// sessionAndProject pulls the session from the context and the project id from the path
func sessionAndProject(r *http.Request) (lifecycle.Session, uuid.UUID, error) {
	session, err := ctxGetSession(r.Context())
	if err != nil {
		return lifecycle.Session{}, uuid.Nil, errs.NewMissingTokenError()
	}
	projectID, err := projectIDParam(r)
	if err != nil {
		return lifecycle.Session{}, uuid.Nil, err
	}
	return session, projectID, nil
}
