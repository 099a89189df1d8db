package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyResponse = errors.New("empty response body")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%d %s for %s %s", e.StatusCode, e.Status, e.Method, e.Path)
	if reason := e.Reason(); reason != "" {
		msg += ": " + reason
	}
	return msg
}

// Reason extracts a human readable message from the response body. The
// service answers with plain text from http.Error or with a JSON
// {"reason": ...} document.
func (e *StatusError) Reason() string {
	var doc struct {
		Reason  string `json:"reason"`
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(e.Body, &doc); err == nil {
		switch {
		case doc.Reason != "":
			return doc.Reason
		case doc.Error != "" && doc.Details != "":
			return doc.Error + " (" + doc.Details + ")"
		case doc.Error != "":
			return doc.Error
		}
	}
	return strings.TrimSpace(string(e.Body))
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
