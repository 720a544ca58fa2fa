package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/foodgram/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// ShortLinkHandler resolves /s/{code} to the recipe page.
type ShortLinkHandler struct {
	recipes   *services.RecipeService
	publicURL string
}

func NewShortLinkHandler(recipes *services.RecipeService, publicURL string) *ShortLinkHandler {
	return &ShortLinkHandler{recipes: recipes, publicURL: strings.TrimRight(publicURL, "/")}
}

// ShortLinkRouter registers the redirect route on the given router.
func ShortLinkRouter(r chi.Router, handler *ShortLinkHandler) {
	r.Get("/{code}", handler.Resolve)
}

func (h *ShortLinkHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := h.recipes.ResolveShortCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err, "failed to resolve short link")
		return
	}
	http.Redirect(w, r, h.publicURL+"/recipes/"+strconv.Itoa(id), http.StatusFound)
}
