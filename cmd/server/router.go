package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/SFrisendal/overflow/internal/api/middleware"
	"github.com/SFrisendal/overflow/internal/api/shared"
)

// setupRouter builds the HTTP route tree. Reads are public; every mutation
// sits behind token authentication so handlers always have an identity.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", app.authHandler.Register)
		r.Post("/auth/login", app.authHandler.Login)

		r.Get("/questions", app.questionHandler.ListQuestions)
		r.Get("/questions/{id}", app.questionHandler.GetQuestion)
		r.Get("/search", app.searchQuestions)

		r.Group(func(r chi.Router) {
			r.Use(app.authMiddleware.Authenticate)

			r.Post("/questions", app.questionHandler.CreateQuestion)
			r.Put("/questions/{id}", app.questionHandler.UpdateQuestion)
			r.Delete("/questions/{id}", app.questionHandler.DeleteQuestion)

			r.Post("/questions/{id}/answers", app.questionHandler.CreateAnswer)
			r.Put("/questions/{id}/answers/{answerId}", app.questionHandler.UpdateAnswer)
			r.Delete("/questions/{id}/answers/{answerId}", app.questionHandler.DeleteAnswer)
			r.Post("/questions/{id}/answers/{answerId}/accept", app.questionHandler.AcceptAnswer)
		})
	})

	return r
}

// searchQuestions serves the read-side index maintained from the questions
// topic. Results lag writes by the outbox dispatch interval.
func (app *application) searchQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	shared.RespondWithJSON(w, r, http.StatusOK, app.searchIndex.Search(query))
}
