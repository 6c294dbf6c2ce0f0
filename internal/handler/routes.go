package handler

import (
	"github.com/go-chi/chi/v5"
	"net/http"
)

// RegisterRoutes : mounts the document and template API behind auth
func RegisterRoutes(r chi.Router, docs *DocumentHandler, templates *TemplateHandler, auth func(http.Handler) http.Handler) {
	r.Route("/api/docs", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", docs.ListDocuments)
		r.Post("/", docs.CreateDocument)

		r.Route("/{doc_id}", func(r chi.Router) {
			r.Get("/file", docs.GetDocumentFile)
			r.Get("/status", docs.Status)
			r.Post("/submit", docs.SubmitForSignature)
			r.Post("/sign", docs.Sign)
			r.Post("/reject", docs.Reject)
		})
	})

	r.Route("/api/templates", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", templates.ListTemplates)
		r.Post("/", templates.CreateTemplate)
		r.Delete("/{template_id}", templates.DeleteTemplate)
	})
}
