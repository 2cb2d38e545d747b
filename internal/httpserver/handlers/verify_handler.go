package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"docverify/internal/services"
)

func VerifyDocument(svc *services.Services, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.VerifyInput
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, lg, err)
			return
		}
		out, err := svc.Verifier.Verify(r.Context(), req)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, out)
	}
}
