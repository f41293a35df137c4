package main

import (
	"encoding/json"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println(err)
	}
}

// writeError emits the stable {"message": ...} error shape used by every
// failure path. Extra fields (emailVerificationRequired, email) ride along
// through writeJSON where a handler needs them.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("X-Content-Type-Options", "nosniff")
	writeJSON(w, statusCode, map[string]string{"message": message})
}

// serverError logs the full error and hides the detail from clients outside
// development mode.
func (app *application) serverError(w http.ResponseWriter, err error) {
	log.Println(err)
	message := "internal server error"
	if app.config.env == "development" {
		message = err.Error()
	}
	writeError(w, http.StatusInternalServerError, message)
}
