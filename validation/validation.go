package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidateVideoID checks a YouTube content identifier.
func ValidateVideoID(id string) error {
	if id == "" {
		return &ValidationError{Field: "video_id", Message: "error: video ID is required"}
	}
	if !videoIDPattern.MatchString(id) {
		return &ValidationError{Field: "video_id", Message: "error: invalid video ID"}
	}
	return nil
}

// ParseRecordID parses a backend video id from a path segment.
func ParseRecordID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Field: "id", Message: "error: invalid video id"}
	}
	return id, nil
}

// ParseSeekOffset parses a non-negative, finite offset in seconds.
func ParseSeekOffset(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: "seconds", Message: "error: seconds is required"}
	}
	s, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, &ValidationError{Field: "seconds", Message: "error: seconds must be a number"}
	}
	if s < 0 {
		return 0, &ValidationError{Field: "seconds", Message: "error: seconds must not be negative"}
	}
	return s, nil
}

// ParseIndex parses a zero-based list index.
func ParseIndex(field, raw string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || i < 0 {
		return 0, &ValidationError{Field: field, Message: "error: " + field + " must be a non-negative integer"}
	}
	return i, nil
}
