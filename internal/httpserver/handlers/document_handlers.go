package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"docverify/internal/services"
)

func ListDocuments(svc *services.Services, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := svc.Documents.List(r.Context())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"documents": docs})
	}
}

// UploadDocument records the metadata and client-computed hash of a file.
// The file content itself is never sent.
func UploadDocument(svc *services.Services, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.UploadInput
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, lg, err)
			return
		}
		doc, err := svc.Documents.Create(r.Context(), req)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, map[string]any{"document": doc, "message": "Document uploaded successfully"})
	}
}

func DeleteDocument(svc *services.Services, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Documents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"message": "Document deleted successfully"})
	}
}
