package handlers

import (
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/unrolled/render"
	"github.com/yfeng-ca/fengdock/app/repositories"
	"github.com/yfeng-ca/fengdock/app/services"
)

// PageHandler serves the server-rendered pages. All data on the pages is
// hydrated by the JSON API from static/, so these handlers only render
// templates.
type PageHandler struct {
	linkRepo repositories.LinkRepositoryImpl
	watches  *services.WatchService
	render   *render.Render
}

func NewPageHandler(linkRepo repositories.LinkRepositoryImpl, watches *services.WatchService, r *render.Render) *PageHandler {
	return &PageHandler{linkRepo: linkRepo, watches: watches, render: r}
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	links, err := h.linkRepo.GetAll(r.Context(), false, "", 0)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	_ = h.render.HTML(w, http.StatusOK, "home", map[string]interface{}{
		"title": "FengDock",
		"links": links,
	})
}

func (h *PageHandler) Board(w http.ResponseWriter, r *http.Request) {
	watches, err := h.watches.List(r.Context())
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	_ = h.render.HTML(w, http.StatusOK, "board", map[string]interface{}{
		"title":   "Loblaws Board",
		"entries": services.BuildBoard(watches),
	})
}

// Manage renders the management console. The route itself is behind the
// manage token middleware; the rendered form carries a CSRF field for the
// browser flows.
func (h *PageHandler) Manage(w http.ResponseWriter, r *http.Request) {
	watches, err := h.watches.List(r.Context())
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	links, err := h.linkRepo.GetAll(r.Context(), true, "", 0)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	_ = h.render.HTML(w, http.StatusOK, "manage", map[string]interface{}{
		"title":          "Manage",
		"watches":        watches,
		"links":          links,
		csrf.TemplateTag: csrf.TemplateField(r),
	})
}

// JSONViewer serves the standalone JSON viewer tool. HEAD is allowed so the
// homepage health checker can probe it like any other link.
func (h *PageHandler) JSONViewer(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	_ = h.render.HTML(w, http.StatusOK, "json-viewer", map[string]interface{}{
		"title": "JSON Viewer",
	})
}

func (h *PageHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	_ = h.render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
