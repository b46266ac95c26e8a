package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	rebate "github.com/xraph/rebate"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"success": false,
		"message": message,
	})
}

// writeEngineError maps engine errors onto HTTP statuses: validation
// failures are the caller's fault, unknown entities are 404, anything
// else is infrastructure.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case rebate.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case rebate.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}
