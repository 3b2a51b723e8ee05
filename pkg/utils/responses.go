package utils

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every API handler answers with. Status mirrors
// whether the HTTP code is below 400.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// WriteJSON writes v as the whole body, without the Response envelope.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, code int, message string, data, errs any) {
	WriteJSON(w, code, Response{
		Status:  code < http.StatusBadRequest,
		Message: message,
		Data:    data,
		Errors:  errs,
	})
}

func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	respond(w, http.StatusOK, message, data, nil)
}

func ResponseCreated(w http.ResponseWriter, message string, data any) {
	respond(w, http.StatusCreated, message, data, nil)
}

// ResponseBadRequest carries per-field problems in errs, usually the map
// returned by ValidateStruct.
func ResponseBadRequest(w http.ResponseWriter, message string, errs any) {
	respond(w, http.StatusBadRequest, message, nil, errs)
}

func ResponseUnauthorized(w http.ResponseWriter, message string) {
	respond(w, http.StatusUnauthorized, message, nil, nil)
}

func ResponseForbidden(w http.ResponseWriter, message string) {
	respond(w, http.StatusForbidden, message, nil, nil)
}

func ResponseNotFound(w http.ResponseWriter, message string) {
	respond(w, http.StatusNotFound, message, nil, nil)
}

func ResponseConflict(w http.ResponseWriter, message string) {
	respond(w, http.StatusConflict, message, nil, nil)
}

// ResponseGone is used for holds that existed but have lapsed.
func ResponseGone(w http.ResponseWriter, message string) {
	respond(w, http.StatusGone, message, nil, nil)
}

func ResponseInternalError(w http.ResponseWriter, message string) {
	respond(w, http.StatusInternalServerError, message, nil, nil)
}
