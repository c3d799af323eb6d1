package api

import (
	"net/http"

	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type profileHandler struct {
	responder Responder
	logger    zerolog.Logger
	service   *lifecycle.Service
}

func newProfileHandler(service *lifecycle.Service) profileHandler {
	logger := log.With().Str("handlerName", "profileHandler").Logger()

	return profileHandler{
		responder: NewResponder(logger),
		logger:    logger,
		service:   service,
	}
}

// createProfile registers the authenticated user as a creator or editor
// @Summary Create profile
// @Description The role is chosen once and cannot be changed later
// @Tags Profile
// @Accept json
// @Produce json
// @Param profile body lifecycle.ProfileInput true "Profile data"
// @Success 201 {object} models.Profile "Created profile"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid profile data"
// @Failure 409 {object} ErrorResponse "Conflict - Profile already exists"
// @Router /profile [post]
func (h profileHandler) createProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := ctxGetUserID(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		var input lifecycle.ProfileInput
		if err := h.responder.DecodeJSON(w, r, &input); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		profile, err := h.service.CreateProfile(r.Context(), userID, ctxGetEmail(r.Context()), input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONWithStatus(w, http.StatusCreated, profile)
	}
}

// getProfile returns the caller's profile
// @Summary Get profile
// @Tags Profile
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 404 {object} ErrorResponse "Not Found - No profile yet"
// @Router /profile [get]
func (h profileHandler) getProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := ctxGetUserID(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		profile, err := h.service.GetProfile(r.Context(), userID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, profile)
	}
}

// @Summary Update profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param profile body lifecycle.ProfileInput true "Profile data"
// @Success 200 {object} models.Profile
// @Failure 400 {object} ErrorResponse "Bad Request - Role cannot change"
// @Router /profile [put]
func (h profileHandler) updateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := ctxGetSession(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		var input lifecycle.ProfileInput
		if err := h.responder.DecodeJSON(w, r, &input); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		profile, err := h.service.UpdateProfile(r.Context(), session, input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, profile)
	}
}
