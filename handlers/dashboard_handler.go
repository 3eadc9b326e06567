package handlers

import (
	"net/http"

	"github.com/championsarena/arena-server/middleware"
	"github.com/championsarena/arena-server/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(ds services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds}
}

// OverviewHandler обрабатывает GET /dashboard: каталог плюс история
// участия текущего пользователя.
func (h *DashboardHandler) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	overview, err := h.dashboardService.Overview(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, overview, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
