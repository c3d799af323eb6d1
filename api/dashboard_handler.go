package api

import (
	"net/http"

	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rs/zerolog/log"
)

type dashboardHandler struct {
	responder Responder
	service   *lifecycle.Service
}

func newDashboardHandler(service *lifecycle.Service) dashboardHandler {
	logger := log.With().Str("handlerName", "dashboardHandler").Logger()
	return dashboardHandler{
		responder: NewResponder(logger),
		service:   service,
	}
}

// getDashboard returns per-status counts for the caller
// @Summary Dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} lifecycle.DashboardStats
// @Router /dashboard [get]
func (h dashboardHandler) getDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := ctxGetSession(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}

		stats, err := h.service.Dashboard(r.Context(), session)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, stats)
	}
}
