package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"bankledger/services"
)

// writeJSON отправляет JSON-ответ
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError переводит доменную ошибку в HTTP-статус.
// Сервисы различают ошибки через сигнальные значения (services.Err*),
// поэтому здесь достаточно errors.Is.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
