package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/krittapak/catalog-panel/internal/apperr"
	"github.com/krittapak/catalog-panel/internal/http/apierr"
	"github.com/krittapak/catalog-panel/internal/model"
	"github.com/krittapak/catalog-panel/internal/notify"
	"github.com/krittapak/catalog-panel/internal/panel"
	"github.com/krittapak/catalog-panel/internal/workflow"
)

const (
	// maxImageSize mirrors the panel's dropzone limit per staged image.
	maxImageSize = 5 << 20

	maxFormMemory = 32 << 20
)

type catalogHandler struct {
	logger        *slog.Logger
	wf            *workflow.Catalog
	state         *panel.State
	notifications *notify.Center
}

func newCatalogHandler(
	logger *slog.Logger,
	wf *workflow.Catalog,
	state *panel.State,
	notifications *notify.Center,
) *catalogHandler {
	return &catalogHandler{
		logger:        logger,
		wf:            wf,
		state:         state,
		notifications: notifications,
	}
}

func (h *catalogHandler) register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Put("/products/{productCode}", h.updateProduct)
		r.Delete("/products/{productCode}", h.deleteProduct)
		r.Post("/products/{productCode}/images", h.attachImages)
		r.Delete("/products/{productCode}/images/{imageID}", h.removeImage)
		r.Get("/statistics", h.statistics)
		r.Get("/product-codes/generate", h.generateProductCode)
		r.Get("/notifications", h.listNotifications)
	})
	r.Get("/healthz", h.health)
}

func (h *catalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	if wantsRefresh(r) {
		h.wf.Refresh(r.Context())
	}

	h.respondJSON(w, r, http.StatusOK, h.state.Products())
}

type productCodeResponse struct {
	ProductCode string `json:"product_code"`
}

func (h *catalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.respondError(w, r, apperr.ErrMalformedRequest.Wrap(err))
		return
	}

	price, quantity, err := parseNumericFields(r)
	if err != nil {
		h.respondError(w, r, apperr.ErrValidationFailed.Wrap(err))
		return
	}

	params := workflow.CreateProductParams{
		Code:        r.FormValue("product_code"),
		Name:        r.FormValue("product_name"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
		Unit:        r.FormValue("unit"),
		Shelf:       r.FormValue("shelf"),
		Quantity:    quantity,
	}

	uploads, err := stagedUploads(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.wf.CreateProductWithImages(r.Context(), params, uploads); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.wf.Refresh(r.Context())
	h.respondJSON(w, r, http.StatusCreated, productCodeResponse{ProductCode: params.Code})
}

type updateProductRequest struct {
	ProductName string  `json:"product_name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Unit        string  `json:"unit"`
	Shelf       string  `json:"shelf"`
	Quantity    int     `json:"quantity"`
}

func (h *catalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "productCode")

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, apperr.ErrMalformedRequest.Wrap(err))
		return
	}

	params := workflow.UpdateProductParams{
		Name:        req.ProductName,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Unit:        req.Unit,
		Shelf:       req.Shelf,
		Quantity:    req.Quantity,
	}

	if err := h.wf.UpdateProduct(r.Context(), code, params); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.wf.Refresh(r.Context())
	h.respondJSON(w, r, http.StatusOK, productCodeResponse{ProductCode: code})
}

func (h *catalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	// the SPA's confirm dialog maps to an explicit query parameter; without
	// it no network call reaches the backend
	if confirmed, err := strconv.ParseBool(r.URL.Query().Get("confirm")); err != nil || !confirmed {
		h.respondError(w, r, apperr.ErrConfirmationRequired)
		return
	}

	code := chi.URLParam(r, "productCode")
	if err := h.wf.DeleteProduct(r.Context(), code); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.wf.Refresh(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *catalogHandler) attachImages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.respondError(w, r, apperr.ErrMalformedRequest.Wrap(err))
		return
	}

	uploads, err := stagedUploads(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	code := chi.URLParam(r, "productCode")
	if err := h.wf.AttachImages(r.Context(), code, uploads); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.wf.Refresh(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *catalogHandler) removeImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(chi.URLParam(r, "imageID"))
	if err != nil {
		h.respondError(w, r, apperr.ErrInvalidImageID.Wrap(err))
		return
	}

	code := chi.URLParam(r, "productCode")
	if err := h.wf.RemoveImage(r.Context(), code, imageID); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.wf.Refresh(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *catalogHandler) statistics(w http.ResponseWriter, r *http.Request) {
	if wantsRefresh(r) {
		h.wf.Refresh(r.Context())
	}

	h.respondJSON(w, r, http.StatusOK, h.state.Statistics())
}

func (h *catalogHandler) generateProductCode(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, productCodeResponse{ProductCode: workflow.GenerateProductCode()})
}

func (h *catalogHandler) listNotifications(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, h.notifications.Recent())
}

func (h *catalogHandler) health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *catalogHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.ErrorContext(r.Context(), "error encoding response", slog.Any("error", err))
	}
}

func (h *catalogHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	h.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	if err := json.NewEncoder(w).Encode(res); err != nil {
		h.logger.ErrorContext(r.Context(), "error encoding error response", slog.Any("error", err))
	}
}

func wantsRefresh(r *http.Request) bool {
	refresh, err := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return err == nil && refresh
}

func parseNumericFields(r *http.Request) (price float64, quantity int, err error) {
	price, err = strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse price: %w", err)
	}

	quantity, err = strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		return 0, 0, fmt.Errorf("parse quantity: %w", err)
	}

	return price, quantity, nil
}

// stagedUploads reads the multipart image parts into memory. The blobs live
// only for this request; they are discarded whether or not the upload call
// succeeds.
func stagedUploads(r *http.Request) ([]model.PendingUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File["images"]
	uploads := make([]model.PendingUpload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxImageSize {
			return nil, apperr.ErrValidationFailed.Wrap(fmt.Errorf("image %s exceeds %d bytes", fh.Filename, maxImageSize))
		}

		data, err := readUpload(fh)
		if err != nil {
			return nil, apperr.ErrMalformedRequest.Wrap(err)
		}

		uploads = append(uploads, model.PendingUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	return uploads, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open multipart file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read multipart file: %w", err)
	}

	return data, nil
}
