package types

import "time"

// Recipe represents a published recipe with its ingredient lines.
type Recipe struct {
	// ID is the unique identifier of the recipe.
	ID int `json:"id" db:"id"`

	// AuthorID identifies the user who owns the recipe.
	AuthorID int `json:"-" db:"author_id"`

	// Name is the human-readable title of the recipe.
	Name string `json:"name" db:"name"`

	// Text is the free-form cooking description.
	Text string `json:"text" db:"text"`

	// Image is the retrievable URL of the recipe image.
	Image string `json:"image" db:"image"`

	// CookingTime is the preparation time in minutes.
	CookingTime int `json:"cooking_time" db:"cooking_time"`

	// Ingredients are the recipe's ingredient lines. They are always
	// replaced as a whole when the recipe is written.
	Ingredients []RecipeIngredient `json:"ingredients"`

	// CreatedAt is set once when the recipe is created. Recipes are
	// listed newest first.
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// RecipeIngredient is one ingredient line of a recipe.
type RecipeIngredient struct {
	// ID is the ingredient's catalog id.
	ID              int    `json:"id" db:"ingredient_id"`
	Name            string `json:"name" db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
	Amount          int    `json:"amount" db:"amount"`
}

// IngredientAmount is a requested ingredient line on recipe write.
type IngredientAmount struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

// RecipeView is a recipe as seen by a particular caller.
type RecipeView struct {
	Recipe

	Author           UserView `json:"author"`
	IsFavorited      bool     `json:"is_favorited"`
	IsInShoppingCart bool     `json:"is_in_shopping_cart"`
}

// RecipeSummary is the compact recipe form returned by membership
// toggles and author recipe lists.
type RecipeSummary struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Image       string `json:"image" db:"image"`
	CookingTime int    `json:"cooking_time" db:"cooking_time"`
}

// RecipeFilter narrows a recipe listing. All set predicates are AND-combined.
type RecipeFilter struct {
	// AuthorID restricts results to one author when non-nil.
	AuthorID *int

	// FavoritedBy restricts results to recipes favorited by this user when non-zero.
	FavoritedBy int

	// InCartOf restricts results to recipes in this user's cart when non-zero.
	InCartOf int
}

// RecipeEvent is published after a recipe is created.
type RecipeEvent struct {
	RecipeID int    `json:"recipe_id"`
	AuthorID int    `json:"author_id"`
	Name     string `json:"name"`
}
