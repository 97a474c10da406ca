// AngelaMos | 2026
// handler.go

package history

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/videoflow/internal/core"
	"github.com/carterperez-dev/videoflow/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/history", h.List)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	entries, err := h.service.ListRecent(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, entries)
}
