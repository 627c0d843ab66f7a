package generate

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"nia-content-studio/modules/assets"
	"nia-content-studio/modules/common/database"
	"nia-content-studio/modules/common/logger"
	"nia-content-studio/modules/common/queue"
	"nia-content-studio/modules/common/response"
)

const maxUploadMemory = 32 << 20

// Handler exposes the generation endpoints.
type Handler struct {
	service   *Service
	uploads   *assets.Service
	store     database.Store
	publisher queue.Publisher
	log       *logger.Logger
}

func NewHandler(service *Service, uploads *assets.Service, store database.Store, publisher queue.Publisher, log *logger.Logger) *Handler {
	return &Handler{
		service:   service,
		uploads:   uploads,
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/text-to-image", h.HandleTextToImage).Methods("POST", "OPTIONS")
	r.HandleFunc("/image-to-image", h.HandleImageToImage).Methods("POST", "OPTIONS")
	r.HandleFunc("/image-variations", h.HandleImageVariations).Methods("POST", "OPTIONS")
	r.HandleFunc("/image-to-video", h.HandleImageToVideo).Methods("POST", "OPTIONS")
	r.HandleFunc("/generate", h.HandleQueueGeneration).Methods("POST", "OPTIONS")
	h.log.Info("✅ Generation routes registered")
}

// HandleTextToImage generates one image from a prompt.
func (h *Handler) HandleTextToImage(w http.ResponseWriter, r *http.Request) {
	prompt := r.FormValue("prompt")
	user := r.FormValue("user")
	if prompt == "" || user == "" {
		response.Error(w, http.StatusBadRequest, "prompt and user are required")
		return
	}

	result, err := h.service.TextToImage(r.Context(), prompt, user, r.FormValue("aspect_ratio"))
	if err != nil {
		h.log.Error("❌ [Generate] Text-to-image failed", "user", user, "error", err)
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// HandleImageToImage restyles an uploaded file or a stored image URL.
func (h *Handler) HandleImageToImage(w http.ResponseWriter, r *http.Request) {
	input, prompt, user, ok := h.readImageRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.ImageToImage(r.Context(), input, prompt, user)
	if err != nil {
		h.log.Error("❌ [Generate] Image-to-image failed", "user", user, "error", err)
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// HandleImageVariations styles a stored product image.
func (h *Handler) HandleImageVariations(w http.ResponseWriter, r *http.Request) {
	prompt := r.FormValue("prompt")
	user := r.FormValue("user")
	imageURL := r.FormValue("image_url")
	productID := r.FormValue("product_id")
	if prompt == "" || user == "" || imageURL == "" || productID == "" {
		response.Error(w, http.StatusBadRequest, "prompt, user, image_url and product_id are required")
		return
	}

	result, err := h.service.ImageVariations(r.Context(), imageURL, productID, prompt, user)
	if err != nil {
		h.log.Error("❌ [Generate] Image variations failed", "user", user, "error", err)
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// HandleImageToVideo animates an uploaded file or a stored image URL.
func (h *Handler) HandleImageToVideo(w http.ResponseWriter, r *http.Request) {
	input, prompt, user, ok := h.readImageRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.ImageToVideo(r.Context(), input, prompt, user)
	if err != nil {
		h.log.Error("❌ [Generate] Image-to-video failed", "user", user, "error", err)
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// HandleQueueGeneration uploads any attached files, lazily creates a
// product, and enqueues the generation job for the background worker.
func (h *Handler) HandleQueueGeneration(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		response.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	prompt := r.FormValue("prompt")
	user := r.FormValue("user")
	if prompt == "" || user == "" {
		response.Error(w, http.StatusBadRequest, "prompt and user are required")
		return
	}

	generationType := r.FormValue("generation_type")
	if generationType == "" {
		generationType = GenerationTypeImage
	}
	productID := r.FormValue("product_id")

	var productFiles, referenceFiles []*multipart.FileHeader
	if r.MultipartForm != nil {
		productFiles = r.MultipartForm.File["product_images"]
		referenceFiles = r.MultipartForm.File["reference_images"]
	}
	productURLs := r.Form["product_image_urls"]
	referenceURLs := r.Form["reference_image_urls"]

	if productID == "" && (len(productFiles) > 0 || len(productURLs) > 0) {
		if name := r.FormValue("product_name"); name != "" {
			id, err := h.store.InsertProduct(r.Context(), name,
				r.FormValue("category"), r.FormValue("product_type"), r.FormValue("product_hash"))
			if err != nil {
				h.log.Error("❌ [Generate] Product creation failed", "user", user, "error", err)
				response.Error(w, http.StatusInternalServerError, err.Error())
				return
			}
			productID = strconv.FormatInt(id, 10)
		}
	}

	var failed []map[string]string
	collect := func(outcomes []assets.UploadOutcome, urls []string) []string {
		for _, o := range outcomes {
			if o.Err != nil {
				failed = append(failed, map[string]string{
					"filename": o.Filename,
					"error":    o.Err.Error(),
				})
				continue
			}
			urls = append(urls, o.URL)
		}
		return urls
	}
	productURLs = collect(h.uploads.ProcessUploads(r.Context(), productFiles, user, productID), productURLs)
	referenceURLs = collect(h.uploads.ProcessUploads(r.Context(), referenceFiles, user, ""), referenceURLs)

	if productURLs == nil {
		productURLs = []string{}
	}
	if referenceURLs == nil {
		referenceURLs = []string{}
	}

	payload := map[string]interface{}{
		"product_image_urls":   productURLs,
		"reference_image_urls": referenceURLs,
		"prompt":               prompt,
		"user":                 user,
		"generation_type":      generationType,
	}

	data := map[string]interface{}{
		"product_image_urls":   productURLs,
		"reference_image_urls": referenceURLs,
	}
	if productID != "" {
		data["product_id"] = productID
	}
	if len(failed) > 0 {
		data["failed_uploads"] = failed
	}

	messageID, err := h.publisher.Publish(r.Context(), payload)
	if err != nil {
		if errors.Is(err, queue.ErrUnavailable) {
			h.log.Warn("⚠️ [Generate] Queue unavailable, job not enqueued", "user", user)
			response.JSON(w, http.StatusOK, QueueResponse{Status: StatusQueued, Data: data})
			return
		}
		h.log.Error("❌ [Generate] Publish failed", "user", user, "error", err)
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, QueueResponse{Status: StatusQueued, MessageID: messageID, Data: data})
}

// readImageRequest parses the shared inputs of the image-fed endpoints: a
// prompt, a user, and a source image as either an uploaded file or a stored
// URL. Writes the 400 itself and reports ok=false when validation fails.
func (h *Handler) readImageRequest(w http.ResponseWriter, r *http.Request) (ImageInput, string, string, bool) {
	prompt := r.FormValue("prompt")
	user := r.FormValue("user")
	if prompt == "" || user == "" {
		response.Error(w, http.StatusBadRequest, "prompt and user are required")
		return ImageInput{}, "", "", false
	}

	data, err := readFormFile(r, "file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return ImageInput{}, "", "", false
	}
	imageURL := r.FormValue("image_url")
	if len(data) == 0 && imageURL == "" {
		response.Error(w, http.StatusBadRequest, "file or image_url is required")
		return ImageInput{}, "", "", false
	}

	input := ImageInput{ProductID: r.FormValue("product_id")}
	if len(data) > 0 {
		input.Data = data
	} else {
		input.URL = imageURL
	}
	return input, prompt, user, true
}

// readFormFile returns the named upload's bytes, or nil when the field is
// absent.
func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s upload: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s upload: %w", field, err)
	}
	return data, nil
}
