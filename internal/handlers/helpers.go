package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/middleware"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/services"
)

// decodeJSON reads a JSON body into v. An empty body is a BadRequest.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.BadRequest("Request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("Request body is required")
		}
		return apperr.BadRequest("Invalid request body")
	}
	return nil
}

// pathID parses a UUID path variable.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return services.ParseID(name, mux.Vars(r)[name])
}

// caller returns the authenticated staff member's snapshot.
func caller(r *http.Request) (models.OfficerSnapshot, error) {
	staff, ok := middleware.CurrentStaff(r.Context())
	if !ok {
		return models.OfficerSnapshot{}, apperr.Unauthorized("Authentication required")
	}
	return staff.Snapshot(), nil
}
