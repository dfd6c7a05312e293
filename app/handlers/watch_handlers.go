package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/unrolled/render"
	"github.com/yfeng-ca/fengdock/app/services"
)

type WatchHandler struct {
	service *services.WatchService
	render  *render.Render
}

func NewWatchHandler(service *services.WatchService, r *render.Render) *WatchHandler {
	return &WatchHandler{service: service, render: r}
}

type WatchCreatePayload struct {
	URL     string `json:"url"`
	Label   string `json:"label"`
	StoreID string `json:"store_id"`
}

type WatchUpdatePayload struct {
	URL     *string `json:"url"`
	Label   *string `json:"label"`
	StoreID *string `json:"store_id"`
}

func (h *WatchHandler) List(w http.ResponseWriter, r *http.Request) {
	watches, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	_ = h.render.JSON(w, http.StatusOK, watches)
}

func (h *WatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	watch, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	_ = h.render.JSON(w, http.StatusOK, watch)
}

func (h *WatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload WatchCreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Invalid JSON body"})
		return
	}

	watch, err := h.service.Add(r.Context(), payload.URL, payload.Label, payload.StoreID)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	_ = h.render.JSON(w, http.StatusCreated, watch)
}

func (h *WatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload WatchUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Invalid JSON body"})
		return
	}

	watch, err := h.service.UpdateMeta(r.Context(), mux.Vars(r)["id"], payload.Label, payload.StoreID, payload.URL)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	_ = h.render.JSON(w, http.StatusOK, watch)
}

func (h *WatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WatchHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	watch, err := h.service.RefreshOne(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	_ = h.render.JSON(w, http.StatusOK, watch)
}

// RefreshAll runs a batch refresh and reports per-item outcomes. Partial
// failure is still a 200; the ok flag and per-item errors tell the story.
func (h *WatchHandler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.service.RefreshAll(r.Context())
	if outcomes == nil && err != nil {
		writeServiceError(h.render, w, err)
		return
	}

	type itemResult struct {
		ID    string `json:"id"`
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	results := make([]itemResult, 0, len(outcomes))
	failed := 0
	for _, outcome := range outcomes {
		item := itemResult{ID: outcome.ID, OK: outcome.Err == nil}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
			failed++
		}
		results = append(results, item)
	}

	_ = h.render.JSON(w, http.StatusOK, map[string]interface{}{
		"ok":      failed == 0,
		"total":   len(results),
		"failed":  failed,
		"results": results,
	})
}

// Board returns the ranked, deduplicated board with classified sale status
// per row.
func (h *WatchHandler) Board(w http.ResponseWriter, r *http.Request) {
	watches, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	_ = h.render.JSON(w, http.StatusOK, services.BuildBoard(watches))
}
