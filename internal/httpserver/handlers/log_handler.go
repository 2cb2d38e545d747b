package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"docverify/internal/services"
)

// AuditLogs returns the newest entries visible to the caller: everything for
// admins, their own entries for everyone else.
func AuditLogs(svc *services.Services, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs, err := svc.Audit.List(r.Context())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"logs": logs})
	}
}
