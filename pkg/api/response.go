package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
)

type Response struct {
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	ErrorKind apperror.Kind `json:"errorKind,omitempty"`
	Data      interface{}   `json:"data,omitempty"`
}

// statusFor maps an error to the HTTP status returned to the client.
func statusFor(err error) int {
	if errors.Is(err, apperror.ErrBankSessionExpired) {
		return http.StatusUnauthorized
	}
	switch apperror.KindOf(err) {
	case apperror.Validation:
		return http.StatusBadRequest
	case apperror.NotFound:
		return http.StatusNotFound
	case apperror.External:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		klog.Errorf("failed to write response: %v", err)
	}
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		klog.Errorf("request failed: %v", err)
	}
	writeJSON(w, status, Response{
		Success:   false,
		Error:     apperror.Message(err),
		ErrorKind: apperror.KindOf(err),
	})
}
