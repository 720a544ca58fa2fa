package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// RecipeHandler serves recipes and the per-user sets built from them.
type RecipeHandler struct {
	recipes      *services.RecipeService
	favorites    *services.MembershipService
	cart         *services.MembershipService
	shoppingList *services.ShoppingListService
	paging       config.PagingConfig
	publicURL    string
}

func NewRecipeHandler(
	recipes *services.RecipeService,
	favorites *services.MembershipService,
	cart *services.MembershipService,
	shoppingList *services.ShoppingListService,
	paging config.PagingConfig,
	publicURL string,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:      recipes,
		favorites:    favorites,
		cart:         cart,
		shoppingList: shoppingList,
		paging:       paging,
		publicURL:    strings.TrimRight(publicURL, "/"),
	}
}

// RecipeRouter registers recipe routes on the given router.
func RecipeRouter(r chi.Router, handler *RecipeHandler, auth *AuthHandler) {
	r.With(auth.OptionalAuth).Get("/", handler.ListRecipes)
	r.With(auth.RequireAuth).Post("/", handler.CreateRecipe)
	r.With(auth.RequireAuth).Get("/download_shopping_cart", handler.DownloadShoppingCart)

	r.Route("/{recipeID}", func(r chi.Router) {
		r.With(auth.OptionalAuth).Get("/", handler.GetRecipe)
		r.Get("/get-link", handler.GetLink)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Patch("/", handler.UpdateRecipe)
			r.Put("/", handler.UpdateRecipe)
			r.Delete("/", handler.DeleteRecipe)
			r.Post("/favorite", handler.addMember(handler.favorites))
			r.Delete("/favorite", handler.removeMember(handler.favorites))
			r.Post("/shopping_cart", handler.addMember(handler.cart))
			r.Delete("/shopping_cart", handler.removeMember(handler.cart))
		})
	})
}

func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r, h.paging)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query, err := parseRecipeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipes, total, err := h.recipes.List(r.Context(), userIDFromContext(r.Context()), query, page.Offset, page.Limit)
	if err != nil {
		writeServiceError(w, r, err, "failed to list recipes")
		return
	}
	writeJSON(w, http.StatusOK, newPage(r, h.publicURL, page, total, recipes))
}

func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	recipe, err := h.recipes.Get(r.Context(), userIDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req services.RecipeInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	recipe, err := h.recipes.Create(r.Context(), userIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create recipe")
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var req services.RecipeInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	recipe, err := h.recipes.Update(r.Context(), userIDFromContext(r.Context()), id, req)
	if err != nil {
		writeServiceError(w, r, err, "failed to update recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.recipes.Delete(r.Context(), userIDFromContext(r.Context()), id); err != nil {
		writeServiceError(w, r, err, "failed to delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	code, err := h.recipes.ShortCode(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to build short link")
		return
	}
	writeJSON(w, http.StatusOK, ShortLinkResponse{ShortLink: h.publicURL + "/s/" + code})
}

func (h *RecipeHandler) DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	list, err := h.shoppingList.Build(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "failed to build shopping list")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ShoppingListFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(list.Render()))
}

func (h *RecipeHandler) addMember(set *services.MembershipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "recipeID")
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		summary, err := set.Add(r.Context(), userIDFromContext(r.Context()), id)
		if err != nil {
			writeServiceError(w, r, err, "failed to update "+string(set.Kind()))
			return
		}
		writeJSON(w, http.StatusCreated, summary)
	}
}

func (h *RecipeHandler) removeMember(set *services.MembershipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "recipeID")
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		if err := set.Remove(r.Context(), userIDFromContext(r.Context()), id); err != nil {
			writeServiceError(w, r, err, "failed to update "+string(set.Kind()))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// parseRecipeQuery reads author, is_favorited and is_in_shopping_cart.
func parseRecipeQuery(r *http.Request) (services.RecipeQuery, error) {
	values := r.URL.Query()
	var query services.RecipeQuery

	if raw := strings.TrimSpace(values.Get("author")); raw != "" {
		author, err := strconv.Atoi(raw)
		if err != nil || author < 1 {
			return services.RecipeQuery{}, fmt.Errorf("invalid author")
		}
		query.AuthorID = &author
	}
	query.IsFavorited = parseFlag(values.Get("is_favorited"))
	query.IsInShoppingCart = parseFlag(values.Get("is_in_shopping_cart"))
	return query, nil
}

func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return true
	default:
		return false
	}
}

type ShortLinkResponse struct {
	ShortLink string `json:"short-link"`
}
