package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"github.com/rpupo63/reel-marketplace-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type projectHandler struct {
	responder   Responder
	logger      zerolog.Logger
	service     *lifecycle.Service
	objectStore objectUploader
}

func newProjectHandler(service *lifecycle.Service, objectStore objectUploader) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		service:     service,
		objectStore: objectStore,
	}
}

// ProjectCollection is a list of projects
type ProjectCollection struct {
	Projects []*models.Project `json:"projects"`
	Total    int               `json:"total"`
}

func newProjectCollection(projects []*models.Project) ProjectCollection {
	if projects == nil {
		projects = []*models.Project{}
	}
	return ProjectCollection{Projects: projects, Total: len(projects)}
}

// getProjects lists the caller's projects
// @Summary List my projects
// @Description Creators get the projects they own, editors the projects assigned to them
// @Tags Projects
// @Produce json
// @Param status query string false "Filter by status"
// @Param reel_type query string false "Filter by reel type"
// @Success 200 {object} ProjectCollection "List of projects"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid filter"
// @Router /projects [get]
func (h projectHandler) getProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := ctxGetSession(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		var filter lifecycle.ProjectFilter
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := models.ParseProjectStatus(raw)
			if err != nil {
				h.responder.WriteError(w, errs.NewInvalidFieldError("status", err.Error()))
				return
			}
			filter.Status = &status
		}
		if raw := r.URL.Query().Get("reel_type"); raw != "" {
			reelType := models.ReelType(raw)
			if !reelType.Valid() {
				h.responder.WriteError(w, errs.NewInvalidFieldError("reel_type", "unknown reel type"))
				return
			}
			filter.ReelType = &reelType
		}

		projects, err := h.service.ListProjects(r.Context(), session, filter)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, newProjectCollection(projects))
	}
}

// getAvailableProjects lists submitted projects no editor has claimed
// @Summary List available projects
// @Tags Projects
// @Produce json
// @Success 200 {object} ProjectCollection "Open projects, newest first"
// @Failure 403 {object} ErrorResponse "Forbidden - Editors only"
// @Router /projects/available [get]
func (h projectHandler) getAvailableProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := ctxGetSession(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		projects, err := h.service.ListAvailable(r.Context(), session)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, newProjectCollection(projects))
	}
}

// getProject retrieves a project with its versions, comments and the caller's allowed actions
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} lifecycle.ProjectDetail "Project details"
// @Failure 403 {object} ErrorResponse "Forbidden - Not a participant"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /project/{projectID} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, projectID, err := sessionAndProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		detail, err := h.service.GetProject(r.Context(), session, projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, detail)
	}
}

// createProject creates a new draft project
// @Summary Create project
// @Tags Projects
// @Accept json
// @Produce json
// @Param project body lifecycle.ProjectInput true "Project data"
// @Success 201 {object} models.Project "Created project"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid project data"
// @Failure 403 {object} ErrorResponse "Forbidden - Creators only"
// @Router /project [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := ctxGetSession(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		var input lifecycle.ProjectInput
		if err := h.responder.DecodeJSON(w, r, &input); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.service.CreateProject(r.Context(), session, input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONWithStatus(w, http.StatusCreated, project)
	}
}

// updateProject replaces the editable fields of a draft or submitted project
// @Summary Update project
// @Tags Projects
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param project body lifecycle.ProjectInput true "Updated project data"
// @Success 200 {object} models.Project "Updated project"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid project data"
// @Failure 409 {object} ErrorResponse "Conflict - Project changed concurrently"
// @Failure 422 {object} ErrorResponse "Unprocessable - Project can no longer be edited"
// @Router /project/{projectID} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, projectID, err := sessionAndProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var input lifecycle.ProjectInput
		if err := h.responder.DecodeJSON(w, r, &input); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.service.UpdateProject(r.Context(), session, projectID, input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

// deleteProject deletes a draft or cancelled project
// @Summary Delete project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} MessageResponse "Success message"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Failure 422 {object} ErrorResponse "Unprocessable - Project is in progress"
// @Router /project/{projectID} [delete]
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, projectID, err := sessionAndProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.service.DeleteProject(r.Context(), session, projectID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, MessageResponse{
			Status:  "success",
			Message: "project deleted successfully",
		})
	}
}

type transitionFunc func(ctx context.Context, session lifecycle.Session, id uuid.UUID) (*models.Project, error)

// transition serves the POST /project/{projectID}/<action> endpoints
func (h projectHandler) transition(action lifecycle.Action, fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, projectID, err := sessionAndProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := fn(r.Context(), session, projectID)
		if err != nil {
			h.logger.Debug().Err(err).Str("action", string(action)).Str("projectID", projectID.String()).Msg("transition refused")
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

// submitProject opens a draft project to editors
// @Summary Submit project
// @Tags Projects
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} models.Project
// @Failure 400 {object} ErrorResponse "Bad Request - Project is incomplete"
// @Failure 422 {object} ErrorResponse "Unprocessable - Not a draft"
// @Router /project/{projectID}/submit [post]
func (h projectHandler) submitProject() http.HandlerFunc {
	return h.transition(lifecycle.ActionSubmit, h.service.SubmitProject)
}

// claimProject assigns a submitted project to the calling editor
// @Summary Claim project
// @Tags Projects
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} models.Project
// @Failure 409 {object} ErrorResponse "Conflict - Already claimed"
// @Router /project/{projectID}/claim [post]
func (h projectHandler) claimProject() http.HandlerFunc {
	return h.transition(lifecycle.ActionClaim, h.service.ClaimProject)
}

// @Summary Approve project
// @Tags Projects
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} models.Project
// @Router /project/{projectID}/approve [post]
func (h projectHandler) approveProject() http.HandlerFunc {
	return h.transition(lifecycle.ActionApprove, h.service.ApproveProject)
}

// @Summary Cancel project
// @Tags Projects
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} models.Project
// @Router /project/{projectID}/cancel [post]
func (h projectHandler) cancelProject() http.HandlerFunc {
	return h.transition(lifecycle.ActionCancel, h.service.CancelProject)
}

// generateBrief asks the LLM for an editing brief and stores it on the project
// @Summary Generate editing brief
// @Tags Projects
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} models.Project
// @Failure 503 {object} ErrorResponse "Service Unavailable - No LLM configured"
// @Router /project/{projectID}/brief [post]
func (h projectHandler) generateBrief() http.HandlerFunc {
	return h.transition(lifecycle.ActionEditFields, h.service.GenerateBrief)
}

// uploadRawFootage stores the uploaded footage and points the project at it
// @Summary Upload raw footage
// @Tags Projects
// @Accept multipart/form-data
// @Param projectID path string true "Project ID" format(uuid)
// @Param file formData file true "Raw footage"
// @Success 200 {object} models.Project
// @Failure 413 {object} ErrorResponse "File larger than 100 MB"
// @Router /project/{projectID}/raw-footage [post]
func (h projectHandler) uploadRawFootage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, projectID, err := sessionAndProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if h.objectStore == nil {
			h.responder.WriteError(w, errs.NewServiceUnavailableError("object storage"))
			return
		}
		if err := h.service.Authorize(r.Context(), session, projectID, lifecycle.ActionEditFields); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		url, err := receiveUpload(w, r, h.objectStore, services.RawFootageBucket, projectID, "raw")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.service.SetRawFootage(r.Context(), session, projectID, url)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

// receiveUpload streams the multipart "file" field into the bucket and returns its public URL
func receiveUpload(w http.ResponseWriter, r *http.Request, store objectUploader, bucket string, projectID uuid.UUID, prefix string) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadSize+maxRequestBodySize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return "", errs.NewMaxBodySizeExceededError(services.MaxUploadSize)
		}
		return "", errs.NewMalformedPayloadError("multipart form", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", errs.NewMissingRequiredFieldError("file")
	}
	defer file.Close()

	if header.Size > services.MaxUploadSize {
		return "", errs.NewMaxBodySizeExceededError(services.MaxUploadSize)
	}

	key := services.ObjectKey(projectID, prefix, header.Filename, time.Now())
	return store.Upload(r.Context(), bucket, key, file, header.Size, header.Header.Get("Content-Type"))
}
