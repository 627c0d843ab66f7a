package response

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the failure envelope for every domain error: a single
// human-readable detail string, mirroring what API clients already parse.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// JSON writes v as an application/json body with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the {"detail": ...} failure envelope.
func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, ErrorBody{Detail: detail})
}
