package main

import (
	"encoding/json"
	"net/http"
	"strings"
)

func (app *application) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	category := r.URL.Query().Get("category")
	todos, err := app.store.listTodos(id.ID, category)
	if err != nil {
		app.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Results int    `json:"results"`
		Todos   []todo `json:"todos"`
	}{
		Results: len(todos),
		Todos:   todos,
	})
}

func (app *application) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	var input struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(input.Text) == "" {
		writeError(w, http.StatusBadRequest, "please provide todo text")
		return
	}
	if input.Category == "" {
		input.Category = defaultCategory
	}
	t := &todo{
		OwnerID:  id.ID,
		Text:     input.Text,
		Category: input.Category,
	}
	if err := app.store.createTodo(t); err != nil {
		app.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]*todo{"todo": t})
}

func (app *application) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	t, err := app.store.getTodo(id.ID, r.PathValue("id"))
	if err != nil {
		app.serverError(w, err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]*todo{"todo": t})
}

func (app *application) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	var patch todoPatch
	err := json.NewDecoder(r.Body).Decode(&patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		writeError(w, http.StatusBadRequest, "todo text must not be empty")
		return
	}
	t, err := app.store.updateTodo(id.ID, r.PathValue("id"), patch)
	if err != nil {
		app.serverError(w, err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]*todo{"todo": t})
}

func (app *application) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	deleted, err := app.store.deleteTodo(id.ID, r.PathValue("id"))
	if err != nil {
		app.serverError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listCategoriesHandler derives the known-category set from the requester's
// own todos. Categories are not a stored entity.
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	todos, err := app.store.listTodos(id.ID, "")
	if err != nil {
		app.serverError(w, err)
		return
	}
	seen := make(map[string]bool)
	categories := []string{}
	for _, t := range todos {
		if !seen[t.Category] {
			seen[t.Category] = true
			categories = append(categories, t.Category)
		}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}
