package templates

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"nia-content-studio/modules/common/database"
	"nia-content-studio/modules/common/logger"
	"nia-content-studio/modules/common/response"
	"nia-content-studio/modules/common/utils"
)

// Handler exposes the template catalog endpoints.
type Handler struct {
	service *Service
	log     *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/templates/upsert", h.HandleUpsert).Methods("POST", "OPTIONS")
	r.HandleFunc("/templates/filters", h.HandleFilters).Methods("GET", "OPTIONS")
	r.HandleFunc("/templates/list", h.HandleList).Methods("GET", "OPTIONS")
	h.log.Info("✅ Template routes registered")
}

type upsertResponse struct {
	Status string                 `json:"status"`
	Data   []database.TemplateRow `json:"data"`
}

// HandleUpsert stores the template image and writes the catalog row.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("template_name")
	category := r.FormValue("category")
	productType := r.FormValue("product_type")
	prompt := r.FormValue("prompt")
	if name == "" || category == "" || productType == "" || prompt == "" {
		response.Error(w, http.StatusBadRequest, "template_name, category, product_type and prompt are required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "failed to read file upload")
		return
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/png"
	}

	rows, err := h.service.Upsert(r.Context(), name, category, productType, prompt,
		data, utils.ExtFromFilename(header.Filename), mime)
	if err != nil {
		h.log.Error("❌ [Templates] Upsert failed", "template_name", name, "error", err)
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, upsertResponse{Status: "success", Data: rows})
}

// HandleFilters returns the category to product-type mapping.
func (h *Handler) HandleFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.service.Filters(r.Context())
	if err != nil {
		h.log.Error("❌ [Templates] Filter query failed", "error", err)
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, filters)
}

// HandleList returns the templates matching both query filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	productType := r.URL.Query().Get("product_type")
	if category == "" || productType == "" {
		response.Error(w, http.StatusBadRequest, "category and product_type are required")
		return
	}

	rows, err := h.service.List(r.Context(), category, productType)
	if err != nil {
		h.log.Error("❌ [Templates] Listing failed", "category", category, "error", err)
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, rows)
}
