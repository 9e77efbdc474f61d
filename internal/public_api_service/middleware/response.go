package middleware

import (
	"encoding/json"
	"net/http"
)

// StatusMessage is the body of every response these middlewares write themselves.
type StatusMessage struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func writeStatusMessage(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(StatusMessage{Message: message, Status: statusCode})
}
