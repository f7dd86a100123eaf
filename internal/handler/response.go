package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/forgo/rally/internal/model"
)

// DataResponse wraps a successful response with optional HATEOAS links
type DataResponse struct {
	Data  interface{}       `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// CollectionResponse wraps a list response
type CollectionResponse struct {
	Data  interface{}       `json:"data"`
	Count int               `json:"count"`
	Links map[string]string `json:"_links,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}, links map[string]string) {
	WriteJSON(w, status, DataResponse{Data: data, Links: links})
}

// WriteCollection writes a list response. count is the number of items.
func WriteCollection(w http.ResponseWriter, data interface{}, count int, links map[string]string) {
	WriteJSON(w, http.StatusOK, CollectionResponse{Data: data, Count: count, Links: links})
}

// WriteError writes an RFC 9457 problem. A RetryAfter hint is mirrored in
// the Retry-After header.
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	if err.RetryAfter != nil {
		w.Header().Set("Retry-After", strconv.Itoa(*err.RetryAfter))
	}
	err.WriteJSON(w)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
