package api

import (
	"net/http"

	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type commentHandler struct {
	responder Responder
	logger    zerolog.Logger
	service   *lifecycle.Service
}

func newCommentHandler(service *lifecycle.Service) commentHandler {
	logger := log.With().Str("handlerName", "commentHandler").Logger()

	return commentHandler{
		responder: NewResponder(logger),
		logger:    logger,
		service:   service,
	}
}

// @Summary List comments
// @Tags Comments
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {array} models.Comment
// @Router /project/{projectID}/comments [get]
func (h commentHandler) getComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, projectID, err := sessionAndProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		comments, err := h.service.ListComments(r.Context(), session, projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if comments == nil {
			comments = []*models.Comment{}
		}
		h.responder.WriteJSON(w, comments)
	}
}

// createComment adds a comment, optionally pinned to a moment of the video
// @Summary Add comment
// @Tags Comments
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Param comment body lifecycle.CommentInput true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} ErrorResponse "Bad Request - Empty comment"
// @Failure 422 {object} ErrorResponse "Unprocessable - Project is closed"
// @Router /project/{projectID}/comments [post]
func (h commentHandler) createComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, projectID, err := sessionAndProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var input lifecycle.CommentInput
		if err := h.responder.DecodeJSON(w, r, &input); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		comment, err := h.service.AppendComment(r.Context(), session, projectID, input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONWithStatus(w, http.StatusCreated, comment)
	}
}
