package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-review/errors"
)

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, statusCode, map[string]string{"error": message})
}

// HandleAppError renders err with the status it carries and logs the cause.
func HandleAppError(w http.ResponseWriter, err error) {
	code := errors.StatusCode(err)
	message := http.StatusText(code)
	entry := logrus.WithError(err).WithField("status", code)
	if appErr, ok := errors.As(err); ok {
		message = appErr.Message
		entry = entry.WithField("op", appErr.Op)
	}
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	HandleError(w, message, code)
}

func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
	}
}
