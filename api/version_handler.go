package api

import (
	"mime"
	"net/http"
	"strings"

	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"github.com/rpupo63/reel-marketplace-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type versionHandler struct {
	responder   Responder
	logger      zerolog.Logger
	service     *lifecycle.Service
	objectStore objectUploader
}

func newVersionHandler(service *lifecycle.Service, objectStore objectUploader) versionHandler {
	logger := log.With().Str("handlerName", "versionHandler").Logger()

	return versionHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		service:     service,
		objectStore: objectStore,
	}
}

// getVersions lists the delivered versions of a project, oldest first
// @Summary List versions
// @Tags Versions
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {array} models.ProjectVersion
// @Failure 403 {object} ErrorResponse "Forbidden - Not a participant"
// @Router /project/{projectID}/versions [get]
func (h versionHandler) getVersions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, projectID, err := sessionAndProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		versions, err := h.service.ListVersions(r.Context(), session, projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if versions == nil {
			versions = []*models.ProjectVersion{}
		}
		h.responder.WriteJSON(w, versions)
	}
}

// createVersion delivers a new edit. The video is either uploaded as the
// multipart "file" field or referenced by video_url in a JSON body.
// @Summary Submit version
// @Tags Versions
// @Accept json,multipart/form-data
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param version body lifecycle.VersionInput false "Version referencing an uploaded video"
// @Param file formData file false "Edited video"
// @Param editor_notes formData string false "Notes for the creator"
// @Success 201 {object} models.ProjectVersion
// @Failure 403 {object} ErrorResponse "Forbidden - Not the assigned editor"
// @Failure 422 {object} ErrorResponse "Unprocessable - Project is not in progress"
// @Router /project/{projectID}/versions [post]
func (h versionHandler) createVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, projectID, err := sessionAndProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var input lifecycle.VersionInput
		if isMultipart(r) {
			if h.objectStore == nil {
				h.responder.WriteError(w, errs.NewServiceUnavailableError("object storage"))
				return
			}
			if err := h.service.Authorize(r.Context(), session, projectID, lifecycle.ActionSubmitVersion); err != nil {
				h.responder.WriteError(w, err)
				return
			}

			url, err := receiveUpload(w, r, h.objectStore, services.EditedVideosBucket, projectID, "version")
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			input.VideoURL = url
			if notes := r.FormValue("editor_notes"); notes != "" {
				input.EditorNotes = &notes
			}
		} else {
			if !acceptsJSON(r) {
				h.responder.WriteError(w, errs.NewUnsupportedMediaTypeError(
					r.Header.Get("Content-Type"), []string{"application/json", "multipart/form-data"}))
				return
			}
			if err := h.responder.DecodeJSON(w, r, &input); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}

		version, err := h.service.AppendVersion(r.Context(), session, projectID, input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().
			Str("projectID", projectID.String()).
			Int("versionNumber", version.VersionNumber).
			Msg("version submitted")
		h.responder.WriteJSONWithStatus(w, http.StatusCreated, version)
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

// acceptsJSON treats a missing Content-Type as JSON
func acceptsJSON(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}
