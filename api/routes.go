package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /auth/signup", app.signupHandler)
	mux.HandleFunc("POST /auth/login", app.loginHandler)
	mux.HandleFunc("GET /auth/logout", app.logoutHandler)
	mux.HandleFunc("POST /auth/refresh", app.refreshHandler)
	mux.HandleFunc("POST /auth/resend-verification", app.resendVerificationHandler)
	mux.HandleFunc("GET /auth/verify", app.verifyEmailHandler)
	mux.HandleFunc("GET /auth/me", app.requireAuth(app.currentUserHandler))

	mux.HandleFunc("GET /todos", app.requireAuth(app.listTodosHandler))
	mux.HandleFunc("POST /todos", app.requireAuth(app.createTodoHandler))
	mux.HandleFunc("GET /todos/categories", app.requireAuth(app.listCategoriesHandler))
	mux.HandleFunc("GET /todos/{id}", app.requireAuth(app.getTodoHandler))
	mux.HandleFunc("PATCH /todos/{id}", app.requireAuth(app.updateTodoHandler))
	mux.HandleFunc("DELETE /todos/{id}", app.requireAuth(app.deleteTodoHandler))

	mux.HandleFunc("/", app.routeNotFoundHandler)

	var handler http.Handler = mux
	if app.config.verboseLogging {
		handler = app.logRequests(handler)
	}
	handler = app.enableCORS(handler)
	return app.recoverPanic(handler)
}

func (app *application) routeNotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route not found")
}
