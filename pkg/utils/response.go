package utils

import (
	"encoding/json"
	"net/http"
	"time"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/logger"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Count is the meta block of list responses.
type Count struct {
	Count int `json:"count"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, status int, message string, data, meta interface{}) {
	JSON(w, status, Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func OK(w http.ResponseWriter, data interface{}) {
	Success(w, http.StatusOK, "", data, nil)
}

func Created(w http.ResponseWriter, message string, data interface{}) {
	Success(w, http.StatusCreated, message, data, nil)
}

// List writes data with a {count} meta block.
func List(w http.ResponseWriter, data interface{}, count int) {
	Success(w, http.StatusOK, "", data, Count{Count: count})
}

func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{
		Success:   false,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Error maps err onto its status. Internal causes are logged and never sent to the client.
func Error(w http.ResponseWriter, log *logger.Logger, err error) {
	e := apperr.As(err)
	if e.Kind == apperr.KindInternal && log != nil {
		log.Error("request failed", "error", err)
	}
	Fail(w, e.Status(), e.Message)
}
