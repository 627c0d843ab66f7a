package assets

import (
	"net/http"

	"github.com/gorilla/mux"

	"nia-content-studio/modules/common/logger"
	"nia-content-studio/modules/common/response"
)

// Handler serves asset listings.
type Handler struct {
	service *Service
	log     *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/assets", h.HandleListAssets).Methods("GET", "OPTIONS")
	h.log.Info("✅ Asset routes registered")
}

// HandleListAssets returns the caller's asset rows with fresh signed URLs.
func (h *Handler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user_id")
	if user == "" {
		response.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	rows, err := h.service.ListUserAssets(r.Context(), user)
	if err != nil {
		h.log.Error("❌ [Assets] Listing failed", "user_id", user, "error", err)
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, rows)
}
