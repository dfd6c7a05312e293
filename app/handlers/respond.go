package handlers

import (
	"errors"
	"net/http"

	"github.com/unrolled/render"
	"github.com/yfeng-ca/fengdock/app/services"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Probe failures surface as 502 so clients can tell "upstream broke" apart
// from "you sent garbage".
func writeServiceError(rnd *render.Render, w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	var probeErr *services.ProbeError

	switch {
	case errors.Is(err, services.ErrNotFound):
		_ = rnd.JSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	case errors.Is(err, services.ErrUnauthorized):
		_ = rnd.JSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	case errors.As(err, &validationErr):
		_ = rnd.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": validationErr.Message})
	case errors.As(err, &probeErr):
		_ = rnd.JSON(w, http.StatusBadGateway, map[string]string{"error": probeErr.Error()})
	default:
		_ = rnd.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
