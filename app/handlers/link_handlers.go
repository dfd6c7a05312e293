package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/unrolled/render"
	"github.com/yfeng-ca/fengdock/app/helpers"
	"github.com/yfeng-ca/fengdock/app/models"
	"github.com/yfeng-ca/fengdock/app/repositories"
)

type LinkHandler struct {
	repo     repositories.LinkRepositoryImpl
	render   *render.Render
	validate *validator.Validate
}

func NewLinkHandler(repo repositories.LinkRepositoryImpl, r *render.Render) *LinkHandler {
	return &LinkHandler{repo: repo, render: r, validate: validator.New()}
}

type LinkCreatePayload struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"required,url,max=512"`
	Category    string `json:"category" validate:"required,max=50"`
	ColorClass  string `json:"color_class"`
	OrderIndex  int    `json:"order_index"`
	IsActive    *bool  `json:"is_active"`
}

type LinkUpdatePayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URL         *string `json:"url" validate:"omitempty,url,max=512"`
	Category    *string `json:"category"`
	ColorClass  *string `json:"color_class"`
	OrderIndex  *int    `json:"order_index"`
	IsActive    *bool   `json:"is_active"`
	ClickCount  *int    `json:"click_count"`
}

type LinkClickPayload struct {
	URL string `json:"url" validate:"required"`
}

func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	ordering := r.URL.Query().Get("ordering")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	links, err := h.repo.GetAll(r.Context(), includeInactive, ordering, limit)
	if err != nil {
		_ = h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list links"})
		return
	}
	_ = h.render.JSON(w, http.StatusOK, links)
}

func (h *LinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.repo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		_ = h.render.JSON(w, http.StatusNotFound, map[string]string{"error": "Link not found"})
		return
	}
	_ = h.render.JSON(w, http.StatusOK, link)
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload LinkCreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Invalid JSON body"})
		return
	}
	payload.Title = strings.TrimSpace(payload.Title)
	payload.Category = strings.TrimSpace(payload.Category)

	if err := h.validate.Struct(payload); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": helpers.FormatValidationErrors(errs)})
			return
		}
		_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	link := models.Link{
		ID:          uuid.NewString(),
		Title:       payload.Title,
		Description: strings.TrimSpace(payload.Description),
		URL:         strings.TrimSpace(payload.URL),
		Category:    payload.Category,
		ColorClass:  payload.ColorClass,
		OrderIndex:  payload.OrderIndex,
		IsActive:    true,
		Status:      models.LinkStatusUnknown,
	}
	if link.ColorClass == "" {
		link.ColorClass = "intense-work"
	}
	if payload.IsActive != nil {
		link.IsActive = *payload.IsActive
	}

	if err := h.repo.Create(r.Context(), &link); err != nil {
		_ = h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create link"})
		return
	}
	_ = h.render.JSON(w, http.StatusCreated, link)
}

func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var payload LinkUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Invalid JSON body"})
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": helpers.FormatValidationErrors(errs)})
			return
		}
		_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	fields := map[string]interface{}{}
	if payload.Title != nil {
		title := strings.TrimSpace(*payload.Title)
		if title == "" {
			_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "title cannot be empty"})
			return
		}
		fields["title"] = title
	}
	if payload.Description != nil {
		fields["description"] = strings.TrimSpace(*payload.Description)
	}
	if payload.URL != nil {
		fields["url"] = strings.TrimSpace(*payload.URL)
	}
	if payload.Category != nil {
		fields["category"] = strings.TrimSpace(*payload.Category)
	}
	if payload.ColorClass != nil {
		fields["color_class"] = strings.TrimSpace(*payload.ColorClass)
	}
	if payload.OrderIndex != nil {
		fields["order_index"] = *payload.OrderIndex
	}
	if payload.IsActive != nil {
		fields["is_active"] = *payload.IsActive
	}
	if payload.ClickCount != nil {
		fields["click_count"] = *payload.ClickCount
	}

	if len(fields) > 0 {
		rows, err := h.repo.Update(r.Context(), id, fields)
		if err != nil {
			_ = h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update link"})
			return
		}
		if rows == 0 {
			_ = h.render.JSON(w, http.StatusNotFound, map[string]string{"error": "Link not found"})
			return
		}
	}

	link, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		_ = h.render.JSON(w, http.StatusNotFound, map[string]string{"error": "Link not found"})
		return
	}
	_ = h.render.JSON(w, http.StatusOK, link)
}

func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		_ = h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete link"})
		return
	}
	if rows == 0 {
		_ = h.render.JSON(w, http.StatusNotFound, map[string]string{"error": "Link not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Click records a homepage click by URL so the frontend does not need to
// know link ids.
func (h *LinkHandler) Click(w http.ResponseWriter, r *http.Request) {
	var payload LinkClickPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Invalid JSON body"})
		return
	}
	payload.URL = strings.TrimSpace(payload.URL)
	if payload.URL == "" {
		_ = h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "url cannot be empty"})
		return
	}

	link, err := h.repo.GetByURL(r.Context(), payload.URL)
	if err != nil {
		_ = h.render.JSON(w, http.StatusNotFound, map[string]string{"error": "Link not found"})
		return
	}
	if err := h.repo.RecordClick(r.Context(), link.ID); err != nil {
		_ = h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to record click"})
		return
	}
	_ = h.render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
