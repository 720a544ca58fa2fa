package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foodgram/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recipeFixture struct {
	recipes *fakeRecipes
	images  *fakeImages
	events  *fakeEvents
	svc     *RecipeService
}

func newRecipeFixture() *recipeFixture {
	f := &recipeFixture{
		recipes: newFakeRecipes(),
		images:  &fakeImages{},
		events:  &fakeEvents{},
	}
	catalog := fakeCatalog{1: true, 2: true, 3: true}
	f.svc = NewRecipeService(f.recipes, catalog, f.images, f.events, testRecipeConfig)
	return f
}

func TestRecipeCreateUsesCallerAsAuthor(t *testing.T) {
	f := newRecipeFixture()

	view, err := f.svc.Create(context.Background(), 42, validInput())
	require.NoError(t, err)

	stored := f.recipes.recipes[view.ID]
	assert.Equal(t, 42, stored.AuthorID)
	assert.Equal(t, "http://cdn.test/recipes/images/image.png", stored.Image)
	assert.ElementsMatch(t, []types.IngredientAmount{{ID: 1, Amount: 200}, {ID: 2, Amount: 5}}, f.recipes.lines[view.ID])
	assert.Equal(t, []types.RecipeEvent{{RecipeID: view.ID, AuthorID: 42, Name: "Pancakes"}}, f.events.events)
}

func TestRecipeCreateRoundTripsIngredients(t *testing.T) {
	f := newRecipeFixture()
	in := validInput()
	in.Ingredients = lines(3, 7, 1, 250)

	created, err := f.svc.Create(context.Background(), 1, in)
	require.NoError(t, err)

	fetched, err := f.svc.Get(context.Background(), 1, created.ID)
	require.NoError(t, err)

	got := make([]types.IngredientAmount, 0, len(fetched.Ingredients))
	for _, line := range fetched.Ingredients {
		got = append(got, types.IngredientAmount{ID: line.ID, Amount: line.Amount})
	}
	assert.ElementsMatch(t, *in.Ingredients, got)
}

func TestRecipeCreateRejectsUnknownIngredient(t *testing.T) {
	f := newRecipeFixture()
	in := validInput()
	in.Ingredients = lines(1, 10, 99, 1)

	_, err := f.svc.Create(context.Background(), 1, in)
	assertFieldError(t, err, "ingredients", ErrNotFound)
	assert.Empty(t, f.recipes.recipes)
	assert.Empty(t, f.images.uploads)
}

func TestRecipeCreateRejectsNonImagePayload(t *testing.T) {
	f := newRecipeFixture()
	in := validInput()
	in.Image = "not-a-data-uri"

	_, err := f.svc.Create(context.Background(), 1, in)
	assertFieldError(t, err, "image", ErrInvalidValue)
}

func TestRecipeCreateSurvivesPublishFailure(t *testing.T) {
	f := newRecipeFixture()
	f.events.err = errors.New("broker unavailable")

	_, err := f.svc.Create(context.Background(), 1, validInput())
	require.NoError(t, err)
	assert.Len(t, f.recipes.recipes, 1)
}

func TestRecipeCreateRequiresCaller(t *testing.T) {
	f := newRecipeFixture()
	_, err := f.svc.Create(context.Background(), 0, validInput())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRecipeUpdateReplacesLinesAndKeepsAuthor(t *testing.T) {
	f := newRecipeFixture()
	created, err := f.svc.Create(context.Background(), 7, validInput())
	require.NoError(t, err)
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stored := f.recipes.recipes[created.ID]
	stored.CreatedAt = createdAt
	f.recipes.recipes[created.ID] = stored

	in := validInput()
	in.Name = "Better pancakes"
	in.Image = stored.Image
	in.Ingredients = lines(3, 1)

	_, err = f.svc.Update(context.Background(), 7, created.ID, in)
	require.NoError(t, err)

	updated := f.recipes.recipes[created.ID]
	assert.Equal(t, 7, updated.AuthorID)
	assert.Equal(t, "Better pancakes", updated.Name)
	assert.Equal(t, createdAt, updated.CreatedAt)
	assert.Equal(t, []types.IngredientAmount{{ID: 3, Amount: 1}}, f.recipes.lines[created.ID])
	assert.Len(t, f.images.uploads, 1, "unchanged image must not be uploaded again")
	assert.Empty(t, f.images.removed)
}

func TestRecipeUpdateReplacesImage(t *testing.T) {
	f := newRecipeFixture()
	created, err := f.svc.Create(context.Background(), 7, validInput())
	require.NoError(t, err)
	old := f.recipes.recipes[created.ID].Image

	_, err = f.svc.Update(context.Background(), 7, created.ID, validInput())
	require.NoError(t, err)
	assert.Len(t, f.images.uploads, 2)
	// The fake hands out the same URL twice, so nothing is removed.
	assert.Empty(t, f.images.removed)
	assert.Equal(t, old, f.recipes.recipes[created.ID].Image)
}

func TestRecipeCreateDropsUploadWhenWriteFails(t *testing.T) {
	f := newRecipeFixture()
	f.recipes.writeErr = errors.New("connection reset")

	_, err := f.svc.Create(context.Background(), 7, validInput())
	require.Error(t, err)
	assert.Len(t, f.images.uploads, 1)
	assert.Equal(t, []string{"http://cdn.test/recipes/images/image.png"}, f.images.removed)
	assert.Empty(t, f.recipes.recipes)
}

func TestRecipeUpdateDropsNewUploadWhenWriteFails(t *testing.T) {
	f := newRecipeFixture()
	created, err := f.svc.Create(context.Background(), 7, validInput())
	require.NoError(t, err)
	stored := f.recipes.recipes[created.ID]
	stored.Image = "http://cdn.test/recipes/images/old.png"
	f.recipes.recipes[created.ID] = stored
	f.recipes.writeErr = errors.New("connection reset")

	_, err = f.svc.Update(context.Background(), 7, created.ID, validInput())
	require.Error(t, err)
	assert.Equal(t, []string{"http://cdn.test/recipes/images/image.png"}, f.images.removed,
		"only the new upload is removed; the stored image stays")
	assert.Equal(t, "http://cdn.test/recipes/images/old.png", f.recipes.recipes[created.ID].Image)
}

func TestRecipeUpdateKeepsUnchangedImageWhenWriteFails(t *testing.T) {
	f := newRecipeFixture()
	created, err := f.svc.Create(context.Background(), 7, validInput())
	require.NoError(t, err)
	in := validInput()
	in.Image = f.recipes.recipes[created.ID].Image
	f.recipes.writeErr = errors.New("connection reset")

	_, err = f.svc.Update(context.Background(), 7, created.ID, in)
	require.Error(t, err)
	assert.Empty(t, f.images.removed)
}

func TestRecipeUpdateAndDeletePermissions(t *testing.T) {
	f := newRecipeFixture()
	created, err := f.svc.Create(context.Background(), 7, validInput())
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), 8, created.ID, validInput())
	assert.ErrorIs(t, err, ErrForbidden)

	// Permission is checked before payload validation.
	_, err = f.svc.Update(context.Background(), 8, created.ID, RecipeInput{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Update(context.Background(), 7, 999, validInput())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), 8, created.ID), ErrForbidden)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), 0, created.ID), ErrUnauthorized)

	require.NoError(t, f.svc.Delete(context.Background(), 7, created.ID))
	assert.Empty(t, f.recipes.recipes)
	assert.Equal(t, []string{"http://cdn.test/recipes/images/image.png"}, f.images.removed)
}

func TestRecipeListIgnoresMembershipFiltersForAnonymous(t *testing.T) {
	f := newRecipeFixture()
	author := 3

	_, _, err := f.svc.List(context.Background(), 0, RecipeQuery{AuthorID: &author, IsFavorited: true, IsInShoppingCart: true}, 0, 6)
	require.NoError(t, err)
	assert.Equal(t, types.RecipeFilter{AuthorID: &author}, f.recipes.lastFilter)

	_, _, err = f.svc.List(context.Background(), 5, RecipeQuery{IsFavorited: true, IsInShoppingCart: true}, 0, 6)
	require.NoError(t, err)
	assert.Equal(t, types.RecipeFilter{FavoritedBy: 5, InCartOf: 5}, f.recipes.lastFilter)
}

func TestShortCodes(t *testing.T) {
	f := newRecipeFixture()
	for i := 0; i < 40; i++ {
		_, err := f.svc.Create(context.Background(), 1, validInput())
		require.NoError(t, err)
	}

	code, err := f.svc.ShortCode(context.Background(), 36)
	require.NoError(t, err)
	assert.Equal(t, "10", code)

	id, err := f.svc.ResolveShortCode(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, 36, id)

	_, err = f.svc.ShortCode(context.Background(), 1000)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, bad := range []string{"", "!!", "-1", "0", "zzzzzzzzzzzz"} {
		_, err := f.svc.ResolveShortCode(context.Background(), bad)
		assert.ErrorIs(t, err, ErrNotFound, bad)
	}
}
