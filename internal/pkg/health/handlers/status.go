package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HandleStatus serves the value returned by snapshot as JSON.
func HandleStatus(snapshot func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(snapshot()); err != nil {
			http.Error(w, fmt.Sprintf("failed to encode status: %v", err), http.StatusInternalServerError)
		}
	}
}
