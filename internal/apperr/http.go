package apperr

import (
	"encoding/json"
	"net/http"
)

// Write serializes err as the JSON error body with its status code.
// Errors that are not *Error are reported as InternalServerError.
func Write(w http.ResponseWriter, err error) *Error {
	appErr := As(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	_ = json.NewEncoder(w).Encode(appErr)

	return appErr
}
