package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"docverify/internal/apperror"
)

// maxBodyBytes bounds JSON request bodies. Only metadata travels here.
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, v interface{}) {
	respondStatus(w, http.StatusOK, v)
}

func respondStatus(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorBody struct {
	Error string        `json:"error"`
	Type  apperror.Kind `json:"type,omitempty"`
}

// respondError writes err as {"error","type"}. Server-side failures are
// logged with their cause; the body only carries the safe message.
func respondError(w http.ResponseWriter, r *http.Request, lg *zap.SugaredLogger, err error) {
	code := apperror.Status(err)
	if code >= http.StatusInternalServerError {
		lg.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondStatus(w, code, errorBody{Error: apperror.SafeMessage(err), Type: apperror.KindOf(err)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.InvalidInput("request body is required")
		}
		return apperror.InvalidInput("invalid JSON body")
	}
	return nil
}
