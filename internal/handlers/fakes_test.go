package handlers

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/internal/services"
	"github.com/foodgram/apiserver/types"
)

const testSecret = "test-secret"

var testPaging = config.PagingConfig{DefaultPageSize: 2, MaxPageSize: 10}

type memoryRecipes struct {
	recipes map[int]types.Recipe
	lines   map[int][]types.IngredientAmount
	catalog map[int]types.Ingredient
	cart    map[int][]int
	nextID  int
}

func newMemoryRecipes() *memoryRecipes {
	return &memoryRecipes{
		recipes: map[int]types.Recipe{},
		lines:   map[int][]types.IngredientAmount{},
		catalog: map[int]types.Ingredient{
			1: {ID: 1, Name: "flour", MeasurementUnit: "g"},
			2: {ID: 2, Name: "salt", MeasurementUnit: "g"},
		},
		cart:   map[int][]int{},
		nextID: 1,
	}
}

func (m *memoryRecipes) view(id int) types.RecipeView {
	recipe := m.recipes[id]
	view := types.RecipeView{Recipe: recipe}
	view.Author.ID = recipe.AuthorID
	for _, line := range m.lines[id] {
		ingredient := m.catalog[line.ID]
		view.Ingredients = append(view.Ingredients, types.RecipeIngredient{
			ID:              line.ID,
			Name:            ingredient.Name,
			MeasurementUnit: ingredient.MeasurementUnit,
			Amount:          line.Amount,
		})
	}
	return view
}

func (m *memoryRecipes) List(_ context.Context, _ int, filter types.RecipeFilter, offset, limit int) ([]types.RecipeView, int, error) {
	var ids []int
	for id, recipe := range m.recipes {
		if filter.AuthorID != nil && recipe.AuthorID != *filter.AuthorID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	total := len(ids)
	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	views := make([]types.RecipeView, 0, len(ids))
	for _, id := range ids {
		views = append(views, m.view(id))
	}
	return views, total, nil
}

func (m *memoryRecipes) GetView(_ context.Context, _ int, id int) (types.RecipeView, error) {
	if _, ok := m.recipes[id]; !ok {
		return types.RecipeView{}, services.ErrNotFound
	}
	return m.view(id), nil
}

func (m *memoryRecipes) Get(_ context.Context, id int) (types.Recipe, error) {
	recipe, ok := m.recipes[id]
	if !ok {
		return types.Recipe{}, services.ErrNotFound
	}
	return recipe, nil
}

func (m *memoryRecipes) Create(_ context.Context, recipe types.Recipe, lines []types.IngredientAmount) (types.Recipe, error) {
	recipe.ID = m.nextID
	m.nextID++
	m.recipes[recipe.ID] = recipe
	m.lines[recipe.ID] = lines
	return recipe, nil
}

func (m *memoryRecipes) Update(_ context.Context, recipe types.Recipe, lines []types.IngredientAmount) (types.Recipe, error) {
	m.recipes[recipe.ID] = recipe
	m.lines[recipe.ID] = lines
	return recipe, nil
}

func (m *memoryRecipes) Delete(_ context.Context, id int) error {
	delete(m.recipes, id)
	delete(m.lines, id)
	return nil
}

func (m *memoryRecipes) CartContents(_ context.Context, userID int) ([]string, []types.ShoppingLine, error) {
	var names []string
	var lines []types.ShoppingLine
	for _, id := range m.cart[userID] {
		names = append(names, m.recipes[id].Name)
		for _, line := range m.lines[id] {
			ingredient := m.catalog[line.ID]
			lines = append(lines, types.ShoppingLine{
				RecipeID:        id,
				Name:            ingredient.Name,
				MeasurementUnit: ingredient.MeasurementUnit,
				Amount:          line.Amount,
			})
		}
	}
	return names, lines, nil
}

type memberKey struct{ user, recipe int }

type memorySet struct {
	kind    types.MembershipKind
	members map[memberKey]bool
	// onAdd mirrors cart additions into memoryRecipes.cart.
	onAdd   func(userID, recipeID int)
}

func (s *memorySet) Kind() types.MembershipKind { return s.kind }

func (s *memorySet) Add(_ context.Context, userID, recipeID int) error {
	key := memberKey{userID, recipeID}
	if s.members[key] {
		return services.ErrAlreadyExists
	}
	s.members[key] = true
	if s.onAdd != nil {
		s.onAdd(userID, recipeID)
	}
	return nil
}

func (s *memorySet) Remove(_ context.Context, userID, recipeID int) error {
	key := memberKey{userID, recipeID}
	if !s.members[key] {
		return services.ErrNotFound
	}
	delete(s.members, key)
	return nil
}

type memoryUsers struct {
	users map[int]types.User
}

func (m *memoryUsers) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := m.users[id]
	if !ok {
		return types.User{}, services.ErrNotFound
	}
	return user, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, services.ErrNotFound
}

func (m *memoryUsers) GetView(ctx context.Context, _ int, id int) (types.UserView, error) {
	user, err := m.GetByID(ctx, id)
	return types.UserView{User: user}, err
}

func (m *memoryUsers) List(_ context.Context, _ int, _, _ int) ([]types.UserView, int, error) {
	views := make([]types.UserView, 0, len(m.users))
	for _, user := range m.users {
		views = append(views, types.UserView{User: user})
	}
	return views, len(views), nil
}

func (m *memoryUsers) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) || existing.Username == user.Username {
			return types.User{}, services.ErrAlreadyExists
		}
	}
	user.ID = len(m.users) + 1
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryUsers) Update(_ context.Context, user types.User) (types.User, error) {
	m.users[user.ID] = user
	return user, nil
}

type testApp struct {
	recipes *memoryRecipes
	auth    *AuthHandler
	handler *RecipeHandler
	links   *ShortLinkHandler
}

func newTestApp() *testApp {
	recipes := newMemoryRecipes()
	favorites := &memorySet{kind: types.Favorites, members: map[memberKey]bool{}}
	cart := &memorySet{kind: types.ShoppingCart, members: map[memberKey]bool{}, onAdd: func(userID, recipeID int) {
		recipes.cart[userID] = append(recipes.cart[userID], recipeID)
	}}

	recipeService := services.NewRecipeService(recipes, nil, nil, nil, config.RecipeConfig{MinCookingTime: 1, MinIngredientAmount: 1})
	now := func() time.Time { return time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC) }
	userService := services.NewUserService(&memoryUsers{users: map[int]types.User{}}, nil)

	return &testApp{
		recipes: recipes,
		auth:    NewAuthHandler(userService, testSecret, time.Hour),
		handler: NewRecipeHandler(
			recipeService,
			services.NewMembershipService(favorites, recipes),
			services.NewMembershipService(cart, recipes),
			services.NewShoppingListService(recipes, now),
			testPaging,
			"http://foodgram.test",
		),
		links: NewShortLinkHandler(recipeService, "http://foodgram.test/"),
	}
}

func (m *memoryRecipes) ListSummariesByAuthor(_ context.Context, authorID, limit int) ([]types.RecipeSummary, error) {
	var ids []int
	for id, recipe := range m.recipes {
		if recipe.AuthorID == authorID {
			ids = append(ids, id)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	summaries := make([]types.RecipeSummary, 0, len(ids))
	for _, id := range ids {
		recipe := m.recipes[id]
		summaries = append(summaries, types.RecipeSummary{ID: recipe.ID, Name: recipe.Name, Image: recipe.Image, CookingTime: recipe.CookingTime})
	}
	return summaries, nil
}

type memorySubs struct {
	edges   map[memberKey]bool
	users   *memoryUsers
	recipes *memoryRecipes
}

func (m *memorySubs) Add(_ context.Context, userID, authorID int) (types.Subscription, error) {
	key := memberKey{userID, authorID}
	if m.edges[key] {
		return types.Subscription{}, services.ErrAlreadyExists
	}
	m.edges[key] = true
	return types.Subscription{ID: len(m.edges), UserID: userID, AuthorID: authorID}, nil
}

func (m *memorySubs) Remove(_ context.Context, userID, authorID int) error {
	key := memberKey{userID, authorID}
	if !m.edges[key] {
		return services.ErrNotFound
	}
	delete(m.edges, key)
	return nil
}

func (m *memorySubs) ListAuthors(ctx context.Context, userID, offset, limit int) ([]types.AuthorView, int, error) {
	var ids []int
	for key := range m.edges {
		if key.user == userID {
			ids = append(ids, key.recipe)
		}
	}
	sort.Ints(ids)
	total := len(ids)
	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	authors := make([]types.AuthorView, 0, len(ids))
	for _, id := range ids {
		user, err := m.users.GetByID(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		count, _ := m.CountRecipes(ctx, id)
		authors = append(authors, types.AuthorView{UserView: types.UserView{User: user, IsSubscribed: true}, RecipesCount: count})
	}
	return authors, total, nil
}

func (m *memorySubs) CountRecipes(_ context.Context, authorID int) (int, error) {
	count := 0
	for _, recipe := range m.recipes.recipes {
		if recipe.AuthorID == authorID {
			count++
		}
	}
	return count, nil
}
