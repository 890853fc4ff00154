// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package web serves the debug endpoints of the bot: health checks, metrics
// and the live log.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// StatusErr is an error carrying an HTTP status code.
type StatusErr int

func (se StatusErr) Error() string { return strings.ToLower(http.StatusText(int(se))) }

const (
	// ErrNotFound represents a not found error (HTTP 404).
	ErrNotFound StatusErr = http.StatusNotFound
	// ErrMethodNotAllowed represents a method not allowed error (HTTP 405).
	ErrMethodNotAllowed StatusErr = http.StatusMethodNotAllowed
	// ErrInternalServerError represents an internal server error (HTTP 500).
	ErrInternalServerError StatusErr = http.StatusInternalServerError
)

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// RespondJSON writes response as indented JSON with the given status code.
func RespondJSON(w http.ResponseWriter, code int, response any) {
	b, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		RespondJSONError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
	w.Write([]byte("\n"))
}

// RespondJSONError writes err as a JSON error response. The status code is
// taken from a wrapped [StatusErr], or is 500 if there is none.
func RespondJSONError(w http.ResponseWriter, err error) {
	var se StatusErr
	if !errors.As(err, &se) {
		se = ErrInternalServerError
	}
	b, _ := json.Marshal(&errorResponse{Status: "error", Error: err.Error()})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(se))
	w.Write(b)
	w.Write([]byte("\n"))
}
