package services

import (
	"context"
	"sort"
	"strings"

	"github.com/foodgram/apiserver/internal/storage"
	"github.com/foodgram/apiserver/types"
)

type fakeRecipes struct {
	recipes map[int]types.Recipe
	lines   map[int][]types.IngredientAmount
	nextID  int

	lastFilter types.RecipeFilter
	writeErr   error
}

func newFakeRecipes() *fakeRecipes {
	return &fakeRecipes{recipes: map[int]types.Recipe{}, lines: map[int][]types.IngredientAmount{}, nextID: 1}
}

func (f *fakeRecipes) List(_ context.Context, _ int, filter types.RecipeFilter, _, _ int) ([]types.RecipeView, int, error) {
	f.lastFilter = filter
	var out []types.RecipeView
	for _, r := range f.recipes {
		out = append(out, types.RecipeView{Recipe: r})
	}
	return out, len(out), nil
}

func (f *fakeRecipes) GetView(_ context.Context, _ int, id int) (types.RecipeView, error) {
	r, ok := f.recipes[id]
	if !ok {
		return types.RecipeView{}, ErrNotFound
	}
	view := types.RecipeView{Recipe: r}
	for _, line := range f.lines[id] {
		view.Ingredients = append(view.Ingredients, types.RecipeIngredient{ID: line.ID, Amount: line.Amount})
	}
	view.Author.ID = r.AuthorID
	return view, nil
}

func (f *fakeRecipes) Get(_ context.Context, id int) (types.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return types.Recipe{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeRecipes) Create(_ context.Context, r types.Recipe, lines []types.IngredientAmount) (types.Recipe, error) {
	if f.writeErr != nil {
		return types.Recipe{}, f.writeErr
	}
	r.ID = f.nextID
	f.nextID++
	f.recipes[r.ID] = r
	f.lines[r.ID] = append([]types.IngredientAmount(nil), lines...)
	return r, nil
}

func (f *fakeRecipes) Update(_ context.Context, r types.Recipe, lines []types.IngredientAmount) (types.Recipe, error) {
	if f.writeErr != nil {
		return types.Recipe{}, f.writeErr
	}
	if _, ok := f.recipes[r.ID]; !ok {
		return types.Recipe{}, ErrNotFound
	}
	f.recipes[r.ID] = r
	f.lines[r.ID] = append([]types.IngredientAmount(nil), lines...)
	return r, nil
}

func (f *fakeRecipes) Delete(_ context.Context, id int) error {
	if _, ok := f.recipes[id]; !ok {
		return ErrNotFound
	}
	delete(f.recipes, id)
	delete(f.lines, id)
	return nil
}

func (f *fakeRecipes) ListSummariesByAuthor(_ context.Context, authorID, limit int) ([]types.RecipeSummary, error) {
	var ids []int
	for id, r := range f.recipes {
		if r.AuthorID == authorID {
			ids = append(ids, id)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]types.RecipeSummary, 0, len(ids))
	for _, id := range ids {
		r := f.recipes[id]
		out = append(out, types.RecipeSummary{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime})
	}
	return out, nil
}

type fakeCatalog map[int]bool

func (c fakeCatalog) MissingIDs(_ context.Context, ids []int) ([]int, error) {
	var missing []int
	for _, id := range ids {
		if !c[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type fakeImages struct {
	uploads []string
	removed []string
}

func (f *fakeImages) Upload(_ context.Context, prefix, dataURI string) (string, error) {
	if !strings.HasPrefix(dataURI, "data:") {
		return "", storage.ErrInvalidImage
	}
	f.uploads = append(f.uploads, dataURI)
	return "http://cdn.test/" + prefix + "/image.png", nil
}

func (f *fakeImages) Remove(_ context.Context, url string) error {
	f.removed = append(f.removed, url)
	return nil
}

type fakeEvents struct {
	events []types.RecipeEvent
	err    error
}

func (f *fakeEvents) PublishRecipe(_ context.Context, ev types.RecipeEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type pair struct{ a, b int }

type fakeMembers struct {
	kind types.MembershipKind
	set  map[pair]bool
}

func newFakeMembers(kind types.MembershipKind) *fakeMembers {
	return &fakeMembers{kind: kind, set: map[pair]bool{}}
}

func (f *fakeMembers) Kind() types.MembershipKind { return f.kind }

func (f *fakeMembers) Add(_ context.Context, userID, recipeID int) error {
	if f.set[pair{userID, recipeID}] {
		return ErrAlreadyExists
	}
	f.set[pair{userID, recipeID}] = true
	return nil
}

func (f *fakeMembers) Remove(_ context.Context, userID, recipeID int) error {
	if !f.set[pair{userID, recipeID}] {
		return ErrNotFound
	}
	delete(f.set, pair{userID, recipeID})
	return nil
}

type fakeSubs struct {
	edges   map[pair]bool
	recipes *fakeRecipes
	users   *fakeUsers
}

func (f *fakeSubs) Add(_ context.Context, userID, authorID int) (types.Subscription, error) {
	if f.edges[pair{userID, authorID}] {
		return types.Subscription{}, ErrAlreadyExists
	}
	f.edges[pair{userID, authorID}] = true
	return types.Subscription{ID: len(f.edges), UserID: userID, AuthorID: authorID}, nil
}

func (f *fakeSubs) Remove(_ context.Context, userID, authorID int) error {
	if !f.edges[pair{userID, authorID}] {
		return ErrNotFound
	}
	delete(f.edges, pair{userID, authorID})
	return nil
}

func (f *fakeSubs) ListAuthors(ctx context.Context, userID, offset, limit int) ([]types.AuthorView, int, error) {
	var authorIDs []int
	for e := range f.edges {
		if e.a == userID {
			authorIDs = append(authorIDs, e.b)
		}
	}
	sort.Ints(authorIDs)
	total := len(authorIDs)
	var out []types.AuthorView
	for _, id := range authorIDs {
		user, _ := f.users.GetByID(ctx, id)
		count, _ := f.CountRecipes(ctx, id)
		out = append(out, types.AuthorView{UserView: types.UserView{User: user, IsSubscribed: true}, RecipesCount: count})
	}
	return out, total, nil
}

func (f *fakeSubs) CountRecipes(_ context.Context, authorID int) (int, error) {
	count := 0
	for _, r := range f.recipes.recipes {
		if r.AuthorID == authorID {
			count++
		}
	}
	return count, nil
}

type fakeUsers struct {
	users  map[int]types.User
	nextID int
}

func newFakeUsers(users ...types.User) *fakeUsers {
	f := &fakeUsers{users: map[int]types.User{}, nextID: 1}
	for _, u := range users {
		f.users[u.ID] = u
		if u.ID >= f.nextID {
			f.nextID = u.ID + 1
		}
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (types.User, error) {
	u, ok := f.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return types.User{}, ErrNotFound
}

func (f *fakeUsers) GetView(ctx context.Context, _ int, id int) (types.UserView, error) {
	u, err := f.GetByID(ctx, id)
	return types.UserView{User: u}, err
}

func (f *fakeUsers) List(_ context.Context, _ int, _, _ int) ([]types.UserView, int, error) {
	var out []types.UserView
	for _, u := range f.users {
		out = append(out, types.UserView{User: u})
	}
	return out, len(out), nil
}

func (f *fakeUsers) Create(_ context.Context, u types.User) (types.User, error) {
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) || existing.Username == u.Username {
			return types.User{}, ErrAlreadyExists
		}
	}
	u.ID = f.nextID
	f.nextID++
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsers) Update(_ context.Context, u types.User) (types.User, error) {
	if _, ok := f.users[u.ID]; !ok {
		return types.User{}, ErrNotFound
	}
	for id, existing := range f.users {
		if id != u.ID && existing.Username == u.Username {
			return types.User{}, ErrAlreadyExists
		}
	}
	f.users[u.ID] = u
	return u, nil
}
