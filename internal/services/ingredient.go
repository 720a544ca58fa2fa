package services

import (
	"context"
	"strings"

	"github.com/foodgram/apiserver/types"
)

// IngredientRepository defines read and bulk-load operations for the catalog.
type IngredientRepository interface {
	List(ctx context.Context, prefix string) ([]types.Ingredient, error)
	Get(ctx context.Context, id int) (types.Ingredient, error)
	Import(ctx context.Context, ingredients []types.Ingredient) (int, error)
}

// ImportResult summarizes a bulk catalog load.
type ImportResult struct {
	Inserted int
	Existing int
	Skipped  int
}

type IngredientService struct {
	repo IngredientRepository
}

func NewIngredientService(repo IngredientRepository) *IngredientService {
	return &IngredientService{repo: repo}
}

// List returns the catalog, optionally restricted to names starting with
// prefix (case-insensitive).
func (s *IngredientService) List(ctx context.Context, prefix string) ([]types.Ingredient, error) {
	return s.repo.List(ctx, strings.TrimSpace(prefix))
}

func (s *IngredientService) Get(ctx context.Context, id int) (types.Ingredient, error) {
	return s.repo.Get(ctx, id)
}

// Import loads ingredients, skipping rows without a name or unit and leaving
// existing (name, unit) pairs untouched.
func (s *IngredientService) Import(ctx context.Context, rows []types.Ingredient) (ImportResult, error) {
	var result ImportResult
	valid := make([]types.Ingredient, 0, len(rows))
	for _, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		row.MeasurementUnit = strings.TrimSpace(row.MeasurementUnit)
		if row.Name == "" || row.MeasurementUnit == "" {
			result.Skipped++
			continue
		}
		valid = append(valid, row)
	}
	if len(valid) == 0 {
		return result, nil
	}

	inserted, err := s.repo.Import(ctx, valid)
	if err != nil {
		return ImportResult{}, err
	}
	result.Inserted = inserted
	result.Existing = len(valid) - inserted
	return result, nil
}
