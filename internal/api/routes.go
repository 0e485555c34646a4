package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes wires up the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		// Public endpoints.
		r.Post("/auth/signup", h.handleSignup)
		r.Post("/auth/login", h.handleLogin)

		// Token-bearer access path: anonymous by design, no session auth.
		r.Get("/files/access-info/{token}", h.handleProbe)
		r.Get("/files/access-link/{token}", h.handleFetchByToken)

		// Everything else requires a session.
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Post("/users/find-by-email", h.handleFindUserByEmail)

			r.Post("/files/upload", h.handleUpload)
			r.Get("/files/list", h.handleListFiles)
			r.Delete("/files/{fileID}", h.handleDeleteFile)
			r.Get("/files/download/{fileID}", h.handleDownload)

			r.Get("/files/shares/{fileID}", h.handleListShares)
			r.Post("/files/share/users/{fileID}", h.handleShareWithUsers)
			r.Post("/files/revoke/user/{fileID}", h.handleRevokeUserGrant)
			r.Post("/files/share/link/{fileID}", h.handleMintLink)
			r.Post("/files/revoke/link/{token}", h.handleRevokeLink)
		})
	})

	return r
}
