package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formloom/formloom/app"
	"github.com/formloom/formloom/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/forms/{id}", PublicGetForm(app))
	api.Post("/forms/{id}/responses", PublicSubmitForm(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD form
		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Get("/forms/{id}", GetForm(app))
		r.Put("/forms/{id}", UpdateForm(app))
		r.Delete("/forms/{id}", DeleteForm(app))

		// field ops
		r.Post("/forms/{id}/fields", AddField(app))
		r.Put("/forms/{id}/fields/{fieldId}", UpdateField(app))
		r.Delete("/forms/{id}/fields/{fieldId}", DeleteField(app))
		r.Post("/forms/{id}/fields/{fieldId}/duplicate", DuplicateField(app))
		r.Post("/forms/{id}/fields/reorder", ReorderFields(app))

		// lifecycle
		r.Post("/forms/{id}/publish", SetFormStatus(app, "publish"))
		r.Post("/forms/{id}/archive", SetFormStatus(app, "archive"))

		// responses
		r.Get("/forms/{id}/responses", ListFormResponses(app))
		r.Delete("/forms/{id}/responses/{responseId}", DeleteFormResponse(app))
		r.Get("/forms/{id}/export", ExportFormResponses(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}
