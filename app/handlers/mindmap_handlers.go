package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/unrolled/render"
	"github.com/yfeng-ca/fengdock/app/models"
	"github.com/yfeng-ca/fengdock/app/repositories"
	"gorm.io/gorm"
)

type MindMapHandler struct {
	repo   repositories.MindMapRepositoryImpl
	render *render.Render
}

func NewMindMapHandler(repo repositories.MindMapRepositoryImpl, r *render.Render) *MindMapHandler {
	return &MindMapHandler{repo: repo, render: r}
}

type MindMapCreatePayload struct {
	Title string          `json:"title"`
	Data  json.RawMessage `json:"data"`
}

type MindMapUpdatePayload struct {
	Title           *string         `json:"title"`
	Data            json.RawMessage `json:"data"`
	ExpectedVersion *int            `json:"expected_version"`
	Force           bool            `json:"force"`
}

// mindMapView is the JSON shape for a document; data is emitted as raw JSON
// rather than a double-encoded string.
type mindMapView struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Data      json.RawMessage `json:"data"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func viewOf(doc *models.MindMapDoc) mindMapView {
	data := json.RawMessage(doc.DataJSON)
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return mindMapView{
		ID:        doc.ID,
		Title:     doc.Title,
		Data:      data,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (h *MindMapHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.repo.GetAll(r.Context())
	if err != nil {
		_ = h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list documents"})
		return
	}
	views := make([]mindMapView, 0, len(docs))
	for i := range docs {
		views = append(views, viewOf(&docs[i]))
	}
	_ = h.render.JSON(w, http.StatusOK, views)
}

func (h *MindMapHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.repo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		_ = h.render.JSON(w, http.StatusNotFound, map[string]string{"error": "Document not found"})
		return
	}
	_ = h.render.JSON(w, http.StatusOK, viewOf(doc))
}

func (h *MindMapHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload MindMapCreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Invalid JSON body"})
		return
	}
	payload.Title = strings.TrimSpace(payload.Title)
	if payload.Title == "" {
		_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "title cannot be empty"})
		return
	}
	if len(payload.Data) == 0 {
		payload.Data = json.RawMessage("{}")
	}

	doc := models.MindMapDoc{
		ID:       uuid.NewString(),
		Title:    payload.Title,
		DataJSON: string(payload.Data),
		Version:  1,
	}
	if err := h.repo.Create(r.Context(), &doc); err != nil {
		_ = h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create document"})
		return
	}
	_ = h.render.JSON(w, http.StatusCreated, viewOf(&doc))
}

// Update saves a document with optimistic versioning. When the caller's
// expected_version no longer matches, the current server copy comes back
// with a 409 so the client can merge or force-save.
func (h *MindMapHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload MindMapUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Invalid JSON body"})
		return
	}

	doc, err := h.repo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = h.render.JSON(w, http.StatusNotFound, map[string]string{"error": "Document not found"})
			return
		}
		_ = h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load document"})
		return
	}

	if !payload.Force && payload.ExpectedVersion != nil && *payload.ExpectedVersion != doc.Version {
		_ = h.render.JSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "Version conflict",
			"current": viewOf(doc),
		})
		return
	}

	if payload.Title != nil {
		title := strings.TrimSpace(*payload.Title)
		if title == "" {
			_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "title cannot be empty"})
			return
		}
		doc.Title = title
	}
	if len(payload.Data) > 0 {
		doc.DataJSON = string(payload.Data)
	}
	doc.Version++

	if err := h.repo.Save(r.Context(), doc); err != nil {
		_ = h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save document"})
		return
	}
	_ = h.render.JSON(w, http.StatusOK, viewOf(doc))
}

func (h *MindMapHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		_ = h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete document"})
		return
	}
	if rows == 0 {
		_ = h.render.JSON(w, http.StatusNotFound, map[string]string{"error": "Document not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
