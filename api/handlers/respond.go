// Package handlers provides HTTP handlers for the pepmap API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aria-lang/pepmap-go/internal/config"
	"github.com/aria-lang/pepmap-go/internal/modification"
	"github.com/aria-lang/pepmap-go/internal/search"
	"github.com/aria-lang/pepmap-go/internal/sequence"
	"github.com/aria-lang/pepmap-go/internal/tag"
	"github.com/aria-lang/pepmap-go/internal/variant"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusFor maps an error to its HTTP status: 400 for bad queries, 422 for
// unusable settings and 500 otherwise.
func statusFor(err error) int {
	var (
		seqErr     sequence.SequenceError
		tagErr     *tag.TagError
		configErr  *config.Error
		tolErr     *search.ToleranceError
		budgetErr  *variant.BudgetError
		catalogErr *modification.CatalogError
	)
	switch {
	case errors.As(err, &configErr), errors.As(err, &tolErr),
		errors.As(err, &budgetErr), errors.As(err, &catalogErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &seqErr), errors.As(err, &tagErr),
		errors.Is(err, search.ErrEmptyQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
