package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

func respondData(w http.ResponseWriter, code int, data any) {
	respondJSON(w, code, envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, httpCode int, errCode, message string) {
	respondJSON(w, httpCode, envelope{Success: false, Error: &errorBody{Code: errCode, Message: message}})
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"failed to encode response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("handler: failed to write response")
	}
}

// actor reads the caller identity headers, defaulting to the system actor.
func actor(r *http.Request) (id, name string) {
	id = r.Header.Get("x-user-id")
	if id == "" {
		id = "system"
	}
	name = r.Header.Get("x-user-name")
	if name == "" {
		name = "System"
	}
	return id, name
}
