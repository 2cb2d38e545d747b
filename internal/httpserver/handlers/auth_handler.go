package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"docverify/internal/auth"
	"docverify/internal/models"
	"docverify/internal/services"
)

type authResponse struct {
	User    models.Identity `json:"user"`
	Token   string          `json:"token,omitempty"`
	Message string          `json:"message,omitempty"`
}

func Register(svc *services.Services, tokens *auth.TokenService, secure bool, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.RegisterInput
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, lg, err)
			return
		}
		id, tok, err := svc.Accounts.Register(r.Context(), req)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		auth.SetTokenCookie(w, tok, tokens.TTL(), secure)
		respondStatus(w, http.StatusCreated, authResponse{User: id, Message: "Account created successfully"})
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login sets the cookie for browsers and also returns the token in the body
// for clients that send it as a bearer header.
func Login(svc *services.Services, tokens *auth.TokenService, secure bool, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, lg, err)
			return
		}
		id, tok, err := svc.Accounts.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		auth.SetTokenCookie(w, tok, tokens.TTL(), secure)
		respondJSON(w, authResponse{User: id, Token: tok, Message: "Login successful"})
	}
}

// Logout only clears the cookie. Tokens are stateless, so a copied token
// keeps working until it expires.
func Logout(secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.ClearTokenCookie(w, secure)
		respondJSON(w, map[string]any{"message": "Logged out successfully"})
	}
}

func Me(svc *services.Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{"user": svc.Gate.CurrentActor(r.Context())})
	}
}
