package services

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/types"
)

const maxRecipeNameLength = 256

// upperBound resolves a configured maximum. Unset or out-of-range values fall
// back to the largest value an INTEGER column can hold.
func upperBound(limit int) int {
	if limit <= 0 || limit > math.MaxInt32 {
		return math.MaxInt32
	}
	return limit
}

// RecipeInput is a recipe write payload. A nil Ingredients means the key was
// absent from the request, which is reported differently from an empty list.
type RecipeInput struct {
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	Image       string                    `json:"image"`
	CookingTime int                       `json:"cooking_time"`
	Ingredients *[]types.IngredientAmount `json:"ingredients"`
}

// ValidateRecipe applies the write rules in a fixed order and returns the
// first violation as a *FieldError.
func ValidateRecipe(in RecipeInput, cfg config.RecipeConfig) error {
	if strings.TrimSpace(in.Image) == "" {
		return fieldError("image", ErrMissingField)
	}
	if in.Ingredients == nil {
		return fieldError("ingredients", ErrMissingField)
	}
	lines := *in.Ingredients
	if len(lines) == 0 {
		return fieldError("ingredients", ErrEmptyField)
	}

	seen := make(map[int]struct{}, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.ID]; dup {
			return fieldError("ingredients", fmt.Errorf("%w: ingredient %d is listed more than once", ErrDuplicateValue, line.ID))
		}
		seen[line.ID] = struct{}{}
	}

	maxAmount := upperBound(cfg.MaxIngredientAmount)
	for _, line := range lines {
		if line.Amount < cfg.MinIngredientAmount {
			return fieldError("amount", fmt.Errorf("%w: must be at least %d", ErrOutOfRange, cfg.MinIngredientAmount))
		}
		if line.Amount > maxAmount {
			return fieldError("amount", fmt.Errorf("%w: must be at most %d", ErrOutOfRange, maxAmount))
		}
	}

	if in.CookingTime < cfg.MinCookingTime {
		return fieldError("cooking_time", fmt.Errorf("%w: must be at least %d", ErrOutOfRange, cfg.MinCookingTime))
	}
	if maxTime := upperBound(cfg.MaxCookingTime); in.CookingTime > maxTime {
		return fieldError("cooking_time", fmt.Errorf("%w: must be at most %d", ErrOutOfRange, maxTime))
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fieldError("name", ErrMissingField)
	}
	if utf8.RuneCountInString(name) > maxRecipeNameLength {
		return fieldError("name", fmt.Errorf("%w: at most %d characters", ErrOutOfRange, maxRecipeNameLength))
	}
	if strings.TrimSpace(in.Text) == "" {
		return fieldError("text", ErrMissingField)
	}
	return nil
}

func ingredientIDs(lines []types.IngredientAmount) []int {
	ids := make([]int, len(lines))
	for i, line := range lines {
		ids[i] = line.ID
	}
	return ids
}
