package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/internal/logging"
	"github.com/foodgram/apiserver/internal/metrics"
	"github.com/foodgram/apiserver/internal/storage"
	"github.com/foodgram/apiserver/types"
)

// RecipeRepository defines persistence operations for recipes.
type RecipeRepository interface {
	List(ctx context.Context, viewerID int, filter types.RecipeFilter, offset, limit int) ([]types.RecipeView, int, error)
	GetView(ctx context.Context, viewerID, id int) (types.RecipeView, error)
	Get(ctx context.Context, id int) (types.Recipe, error)
	Create(ctx context.Context, recipe types.Recipe, lines []types.IngredientAmount) (types.Recipe, error)
	Update(ctx context.Context, recipe types.Recipe, lines []types.IngredientAmount) (types.Recipe, error)
	Delete(ctx context.Context, id int) error
}

// IngredientChecker reports which ingredient ids are unknown.
type IngredientChecker interface {
	MissingIDs(ctx context.Context, ids []int) ([]int, error)
}

// ImageStore turns inline images into retrievable URLs.
type ImageStore interface {
	Upload(ctx context.Context, prefix, dataURI string) (string, error)
	Remove(ctx context.Context, url string) error
}

// EventPublisher announces newly created recipes.
type EventPublisher interface {
	PublishRecipe(ctx context.Context, event types.RecipeEvent) error
}

// RecipeQuery is a caller-relative recipe listing request.
type RecipeQuery struct {
	AuthorID         *int
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeService encapsulates recipe use-cases.
type RecipeService struct {
	recipes     RecipeRepository
	ingredients IngredientChecker
	images      ImageStore
	events      EventPublisher
	cfg         config.RecipeConfig
}

func NewRecipeService(
	recipes RecipeRepository,
	ingredients IngredientChecker,
	images ImageStore,
	events EventPublisher,
	cfg config.RecipeConfig,
) *RecipeService {
	if cfg.MinCookingTime < 1 {
		cfg.MinCookingTime = 1
	}
	if cfg.MinIngredientAmount < 1 {
		cfg.MinIngredientAmount = 1
	}
	cfg.MaxCookingTime = upperBound(cfg.MaxCookingTime)
	cfg.MaxIngredientAmount = upperBound(cfg.MaxIngredientAmount)
	return &RecipeService{
		recipes:     recipes,
		ingredients: ingredients,
		images:      images,
		events:      events,
		cfg:         cfg,
	}
}

// List returns a page of recipes. The favorited and cart predicates only
// apply to authenticated callers; for anonymous callers they are ignored.
func (s *RecipeService) List(ctx context.Context, viewerID int, query RecipeQuery, offset, limit int) ([]types.RecipeView, int, error) {
	filter := types.RecipeFilter{AuthorID: query.AuthorID}
	if viewerID > 0 {
		if query.IsFavorited {
			filter.FavoritedBy = viewerID
		}
		if query.IsInShoppingCart {
			filter.InCartOf = viewerID
		}
	}
	return s.recipes.List(ctx, viewerID, filter, offset, limit)
}

func (s *RecipeService) Get(ctx context.Context, viewerID, id int) (types.RecipeView, error) {
	return s.recipes.GetView(ctx, viewerID, id)
}

// Create validates and stores a recipe owned by authorID.
func (s *RecipeService) Create(ctx context.Context, authorID int, in RecipeInput) (types.RecipeView, error) {
	if authorID < 1 {
		return types.RecipeView{}, ErrUnauthorized
	}
	if err := s.validate(ctx, in); err != nil {
		return types.RecipeView{}, err
	}

	image, err := s.storeImage(ctx, in.Image, "")
	if err != nil {
		return types.RecipeView{}, err
	}

	recipe, err := s.recipes.Create(ctx, types.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(in.Name),
		Text:        in.Text,
		Image:       image,
		CookingTime: in.CookingTime,
	}, *in.Ingredients)
	if err != nil {
		s.removeImage(ctx, image)
		return types.RecipeView{}, s.translateLineError(err)
	}

	s.publish(ctx, types.RecipeEvent{RecipeID: recipe.ID, AuthorID: authorID, Name: recipe.Name})
	return s.recipes.GetView(ctx, authorID, recipe.ID)
}

// Update replaces a recipe's fields and its whole ingredient list. Only the
// author may update; the author itself never changes.
func (s *RecipeService) Update(ctx context.Context, callerID, id int, in RecipeInput) (types.RecipeView, error) {
	existing, err := s.authorize(ctx, callerID, id)
	if err != nil {
		return types.RecipeView{}, err
	}
	if err := s.validate(ctx, in); err != nil {
		return types.RecipeView{}, err
	}

	image, err := s.storeImage(ctx, in.Image, existing.Image)
	if err != nil {
		return types.RecipeView{}, err
	}

	_, err = s.recipes.Update(ctx, types.Recipe{
		ID:          existing.ID,
		AuthorID:    existing.AuthorID,
		Name:        strings.TrimSpace(in.Name),
		Text:        in.Text,
		Image:       image,
		CookingTime: in.CookingTime,
		CreatedAt:   existing.CreatedAt,
	}, *in.Ingredients)
	if err != nil {
		if image != existing.Image {
			s.removeImage(ctx, image)
		}
		return types.RecipeView{}, s.translateLineError(err)
	}

	if image != existing.Image {
		s.removeImage(ctx, existing.Image)
	}
	return s.recipes.GetView(ctx, callerID, id)
}

func (s *RecipeService) Delete(ctx context.Context, callerID, id int) error {
	existing, err := s.authorize(ctx, callerID, id)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return err
	}
	s.removeImage(ctx, existing.Image)
	return nil
}

// ShortCode returns the opaque short-link code for an existing recipe.
func (s *RecipeService) ShortCode(ctx context.Context, id int) (string, error) {
	if _, err := s.recipes.Get(ctx, id); err != nil {
		return "", err
	}
	return EncodeShortCode(id), nil
}

// ResolveShortCode maps a short-link code back to an existing recipe id.
func (s *RecipeService) ResolveShortCode(ctx context.Context, code string) (int, error) {
	id, err := DecodeShortCode(code)
	if err != nil {
		return 0, err
	}
	if _, err := s.recipes.Get(ctx, id); err != nil {
		return 0, err
	}
	return id, nil
}

// EncodeShortCode renders a recipe id in base 36.
func EncodeShortCode(id int) string {
	return strconv.FormatInt(int64(id), 36)
}

func DecodeShortCode(code string) (int, error) {
	id, err := strconv.ParseInt(strings.ToLower(strings.TrimSpace(code)), 36, 32)
	if err != nil || id < 1 {
		return 0, ErrNotFound
	}
	return int(id), nil
}

func (s *RecipeService) authorize(ctx context.Context, callerID, id int) (types.Recipe, error) {
	if callerID < 1 {
		return types.Recipe{}, ErrUnauthorized
	}
	existing, err := s.recipes.Get(ctx, id)
	if err != nil {
		return types.Recipe{}, err
	}
	if existing.AuthorID != callerID {
		return types.Recipe{}, ErrForbidden
	}
	return existing, nil
}

func (s *RecipeService) validate(ctx context.Context, in RecipeInput) error {
	if err := ValidateRecipe(in, s.cfg); err != nil {
		return err
	}
	if s.ingredients == nil {
		return nil
	}
	missing, err := s.ingredients.MissingIDs(ctx, ingredientIDs(*in.Ingredients))
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fieldError("ingredients", fmt.Errorf("%w: ingredient %d does not exist", ErrNotFound, missing[0]))
	}
	return nil
}

// storeImage uploads inline images. A value equal to the current image URL
// keeps that image.
func (s *RecipeService) storeImage(ctx context.Context, image, current string) (string, error) {
	image = strings.TrimSpace(image)
	if current != "" && image == current {
		return current, nil
	}
	if s.images == nil {
		return image, nil
	}
	url, err := s.images.Upload(ctx, storage.RecipeImagePrefix, image)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			return "", fieldError("image", ErrInvalidValue)
		}
		return "", err
	}
	return url, nil
}

func (s *RecipeService) removeImage(ctx context.Context, url string) {
	if s.images == nil || url == "" {
		return
	}
	if err := s.images.Remove(ctx, url); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("image", url).Msg("failed to remove recipe image")
	}
}

// translateLineError reports an ingredient deleted between validation and
// insert the same way as one that never existed.
func (s *RecipeService) translateLineError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fieldError("ingredients", err)
	}
	return err
}

func (s *RecipeService) publish(ctx context.Context, event types.RecipeEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRecipe(ctx, event); err != nil {
		metrics.RecipeEventsPublished.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Int("recipe_id", event.RecipeID).Msg("failed to publish recipe event")
		return
	}
	metrics.RecipeEventsPublished.WithLabelValues("ok").Inc()
}
