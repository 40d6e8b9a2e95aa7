package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/N474NR4/UCHI-Subaru/internal/model"
	"github.com/N474NR4/UCHI-Subaru/internal/store"
)

// ItemsHandler handles item CRUD endpoints.
type ItemsHandler struct {
	Store *store.Store
}

type itemRequest struct {
	Name        string  `json:"name"`
	Year        int     `json:"year"`
	Price       float64 `json:"price"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

// item converts the request body. Null and "" both mean the optional
// field is absent.
func (req itemRequest) item(id int64) model.Item {
	return model.Item{
		ID:          id,
		Name:        req.Name,
		Year:        req.Year,
		Price:       req.Price,
		Description: model.OptionalText(model.TextValue(req.Description)),
		ImageRef:    model.OptionalText(strings.TrimSpace(model.TextValue(req.ImageURL))),
	}
}

// Health handles GET /api/health.
func (h *ItemsHandler) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": h.Store.Backend(),
	})
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := req.item(0)
	if err := item.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.Store.Create(r.Context(), item)
	if err != nil {
		storeError(w, r, err)
		return
	}

	item.ID = id
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.Store.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := req.item(id)
	if err := item.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Store.Update(r.Context(), item); err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Store.Delete(r.Context(), id); err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Clear handles DELETE /api/items.
func (h *ItemsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.ClearAll(r.Context()); err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "all items deleted"})
}

// pathID parses the {id} path value, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return id, true
}
