package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lalaverse/profile-sync-service/internal/application"
)

type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ready") })

	r.Route("/v1", func(r chi.Router) {
		r.Get("/platforms", handler.listPlatforms)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Route("/profile", func(r chi.Router) {
				r.Get("/me", handler.getMyProfile)
				r.Put("/me", handler.updateMyProfile)
			})
			r.Route("/connections", func(r chi.Router) {
				r.Get("/", handler.listConnections)
				r.Route("/{platform}", func(r chi.Router) {
					r.Get("/", handler.getConnection)
					r.Put("/link", handler.markConnected)
					r.Put("/fields/{field}", handler.setFieldSync)
					r.Get("/preview", handler.previewSync)
					r.Post("/sync", handler.pushSync)
				})
			})
		})
	})
	return r
}
