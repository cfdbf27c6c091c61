package server

import (
	"encoding/json"
	"net/http"

	"github.com/brandloom/agentforge/pkg/apperr"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeAppError maps an apperr.Kind to the HTTP status spec §7 implies
// for each error kind and writes {"error": message} with it.
func writeAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindTransient, apperr.KindPermanent, apperr.KindDangling:
		status = http.StatusBadGateway
	case apperr.KindCancelled:
		status = 499 // client closed request, nginx convention
	case apperr.KindInternal:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "kind": string(apperr.KindOf(err))})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
