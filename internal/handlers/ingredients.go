package handlers

import (
	"net/http"

	"github.com/foodgram/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// IngredientHandler serves the read-only ingredient catalog.
type IngredientHandler struct {
	ingredients *services.IngredientService
}

func NewIngredientHandler(ingredients *services.IngredientService) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients}
}

// IngredientRouter registers ingredient routes on the given router.
func IngredientRouter(r chi.Router, handler *IngredientHandler) {
	r.Get("/", handler.ListIngredients)
	r.Get("/{ingredientID}", handler.GetIngredient)
}

// ListIngredients returns the whole catalog unpaginated. ?name= filters by
// case-insensitive name prefix.
func (h *IngredientHandler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	items, err := h.ingredients.List(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeServiceError(w, r, err, "failed to list ingredients")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *IngredientHandler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "ingredientID")
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	item, err := h.ingredients.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch ingredient")
		return
	}
	writeJSON(w, http.StatusOK, item)
}
