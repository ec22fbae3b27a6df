// Package httpjson renders goCred results and errors as JSON HTTP responses.
// It is shared by middleware and httpapi so both speak the same error shape.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	goCred "github.com/MrEthical07/goCred"
)

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Kind  goCred.Kind `json:"kind"`
	Error string      `json:"error"`
}

// Write encodes v as the JSON response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its status code and writes the stable error body.
// Internal errors never expose their cause.
func WriteError(w http.ResponseWriter, err error) {
	kind := goCred.KindOf(err)
	Write(w, StatusFor(kind), ErrorBody{
		Kind:  kind,
		Error: goCred.PublicMessage(err),
	})
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(kind goCred.Kind) int {
	switch kind {
	case goCred.KindValidation, goCred.KindMalformedCredential:
		return http.StatusBadRequest
	case goCred.KindDuplicateEmail:
		return http.StatusConflict
	case goCred.KindUserNotFound:
		return http.StatusNotFound
	case goCred.KindInvalidCredentials, goCred.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a single JSON object from r into dst. Malformed or oversized
// bodies are reported as goCred.ErrValidation.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return &goCred.FieldError{Field: "body", Reason: "is too large"}
		case errors.Is(err, io.EOF):
			return &goCred.FieldError{Field: "body", Reason: "is required"}
		default:
			return &goCred.FieldError{Field: "body", Reason: "must be valid JSON"}
		}
	}
	if dec.More() {
		return &goCred.FieldError{Field: "body", Reason: "must contain a single JSON object"}
	}
	return nil
}
