package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/foodgram/apiserver/types"
)

// SubscriptionRepository persists follow edges.
type SubscriptionRepository interface {
	Add(ctx context.Context, userID, authorID int) (types.Subscription, error)
	Remove(ctx context.Context, userID, authorID int) error
	ListAuthors(ctx context.Context, userID, offset, limit int) ([]types.AuthorView, int, error)
	CountRecipes(ctx context.Context, authorID int) (int, error)
}

// AuthorLookup loads users by id.
type AuthorLookup interface {
	GetByID(ctx context.Context, id int) (types.User, error)
}

// AuthorRecipes lists an author's recipes, newest first; limit 0 means all.
type AuthorRecipes interface {
	ListSummariesByAuthor(ctx context.Context, authorID, limit int) ([]types.RecipeSummary, error)
}

// SubscriptionService encapsulates following and unfollowing authors.
type SubscriptionService struct {
	subs    SubscriptionRepository
	users   AuthorLookup
	recipes AuthorRecipes
}

func NewSubscriptionService(subs SubscriptionRepository, users AuthorLookup, recipes AuthorRecipes) *SubscriptionService {
	return &SubscriptionService{subs: subs, users: users, recipes: recipes}
}

// ParseRecipesLimit parses the recipes_limit query value. An empty value
// means no limit and is returned as 0.
func ParseRecipesLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, invalidOperation("recipes_limit must be a positive integer")
	}
	return limit, nil
}

// Subscribe makes userID follow authorID and returns the author with up to
// recipesLimit of their recipes (all of them when recipesLimit is 0).
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, authorID, recipesLimit int) (types.AuthorView, error) {
	if userID < 1 {
		return types.AuthorView{}, ErrUnauthorized
	}
	if userID == authorID {
		return types.AuthorView{}, invalidOperation("you cannot subscribe to yourself")
	}
	if recipesLimit < 0 {
		return types.AuthorView{}, invalidOperation("recipes_limit must be a positive integer")
	}
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return types.AuthorView{}, err
	}
	if _, err := s.subs.Add(ctx, userID, authorID); err != nil {
		return types.AuthorView{}, err
	}

	view := types.AuthorView{UserView: types.UserView{User: author, IsSubscribed: true}}
	if err := s.fillRecipes(ctx, &view, recipesLimit); err != nil {
		return types.AuthorView{}, err
	}
	return view, nil
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID, authorID int) error {
	if userID < 1 {
		return ErrUnauthorized
	}
	if userID == authorID {
		return invalidOperation("you cannot unsubscribe from yourself")
	}
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return err
	}
	return s.subs.Remove(ctx, userID, authorID)
}

// List returns a page of the authors userID follows.
func (s *SubscriptionService) List(ctx context.Context, userID, offset, limit, recipesLimit int) ([]types.AuthorView, int, error) {
	if userID < 1 {
		return nil, 0, ErrUnauthorized
	}
	if recipesLimit < 0 {
		return nil, 0, invalidOperation("recipes_limit must be a positive integer")
	}
	authors, total, err := s.subs.ListAuthors(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	for i := range authors {
		recipes, err := s.recipes.ListSummariesByAuthor(ctx, authors[i].ID, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		authors[i].Recipes = recipes
	}
	return authors, total, nil
}

func (s *SubscriptionService) fillRecipes(ctx context.Context, view *types.AuthorView, recipesLimit int) error {
	recipes, err := s.recipes.ListSummariesByAuthor(ctx, view.ID, recipesLimit)
	if err != nil {
		return err
	}
	count, err := s.subs.CountRecipes(ctx, view.ID)
	if err != nil {
		return err
	}
	view.Recipes = recipes
	view.RecipesCount = count
	return nil
}
