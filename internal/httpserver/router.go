package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"docverify/internal/auth"
	"docverify/internal/httpserver/handlers"
	"docverify/internal/ratelimit"
	"docverify/internal/services"
)

type Options struct {
	Tokens       *auth.TokenService
	CookieSecure bool

	// Limiter throttles register and login. Nil disables it.
	Limiter *ratelimit.Limiter
}

func NewRouter(svc *services.Services, opts Options, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(ratelimit.Peer, middleware.RequestID, middleware.RealIP, middleware.Recoverer, requestLogger(lg), auth.Bearer)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(creds chi.Router) {
			if opts.Limiter != nil {
				creds.Use(opts.Limiter.Middleware)
			}
			creds.Post("/auth/register", handlers.Register(svc, opts.Tokens, opts.CookieSecure, lg))
			creds.Post("/auth/login", handlers.Login(svc, opts.Tokens, opts.CookieSecure, lg))
		})
		api.Post("/auth/logout", handlers.Logout(opts.CookieSecure))
		api.Get("/auth/me", handlers.Me(svc))

		api.Get("/documents", handlers.ListDocuments(svc, lg))
		api.Post("/documents", handlers.UploadDocument(svc, lg))
		api.Delete("/documents/{id}", handlers.DeleteDocument(svc, lg))
		api.Post("/verify", handlers.VerifyDocument(svc, lg))
		api.Get("/audit-logs", handlers.AuditLogs(svc, lg))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
