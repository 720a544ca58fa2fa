package services

import (
	"context"

	"github.com/foodgram/apiserver/internal/metrics"
	"github.com/foodgram/apiserver/types"
)

// MembershipRepository persists one per-user recipe set.
type MembershipRepository interface {
	Kind() types.MembershipKind
	Add(ctx context.Context, userID, recipeID int) error
	Remove(ctx context.Context, userID, recipeID int) error
}

// RecipeLookup loads bare recipes.
type RecipeLookup interface {
	Get(ctx context.Context, id int) (types.Recipe, error)
}

// MembershipService toggles a recipe in and out of a user's favorites or
// shopping cart. One instance serves one set.
type MembershipService struct {
	members MembershipRepository
	recipes RecipeLookup
}

func NewMembershipService(members MembershipRepository, recipes RecipeLookup) *MembershipService {
	return &MembershipService{members: members, recipes: recipes}
}

func (s *MembershipService) Kind() types.MembershipKind {
	return s.members.Kind()
}

// Add puts the recipe into the set. Adding a recipe that is already there
// fails with ErrAlreadyExists.
func (s *MembershipService) Add(ctx context.Context, userID, recipeID int) (types.RecipeSummary, error) {
	if userID < 1 {
		return types.RecipeSummary{}, ErrUnauthorized
	}
	recipe, err := s.recipes.Get(ctx, recipeID)
	if err != nil {
		return types.RecipeSummary{}, err
	}
	if err := s.members.Add(ctx, userID, recipeID); err != nil {
		return types.RecipeSummary{}, err
	}
	metrics.MembershipToggles.WithLabelValues(string(s.Kind()), "add").Inc()
	return types.RecipeSummary{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}, nil
}

// Remove takes the recipe out of the set, failing with ErrNotFound if it
// was not there.
func (s *MembershipService) Remove(ctx context.Context, userID, recipeID int) error {
	if userID < 1 {
		return ErrUnauthorized
	}
	if _, err := s.recipes.Get(ctx, recipeID); err != nil {
		return err
	}
	if err := s.members.Remove(ctx, userID, recipeID); err != nil {
		return err
	}
	metrics.MembershipToggles.WithLabelValues(string(s.Kind()), "remove").Inc()
	return nil
}
