package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/foodgram/apiserver/internal/services"
	"github.com/foodgram/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userApp struct {
	users   *memoryUsers
	recipes *memoryRecipes
	router  http.Handler
}

func newUserApp() *userApp {
	users := &memoryUsers{users: map[int]types.User{}}
	recipes := newMemoryRecipes()
	subs := &memorySubs{edges: map[memberKey]bool{}, users: users, recipes: recipes}

	userService := services.NewUserService(users, nil)
	auth := NewAuthHandler(userService, testSecret, time.Hour)
	handler := NewUserHandler(userService, services.NewSubscriptionService(subs, users, recipes), testPaging, "http://foodgram.test")

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, auth)
	})
	r.Route("/api/users", func(r chi.Router) {
		UserRouter(r, handler, auth)
	})
	return &userApp{users: users, recipes: recipes, router: r}
}

func (a *userApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *userApp) signUp(t *testing.T, username string) (types.User, string) {
	t.Helper()
	email := username + "@example.com"
	rec := a.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email":      email,
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[types.User](t, rec)

	rec = a.do(t, http.MethodPost, "/api/auth/token/login", "", LoginRequest{Email: email, Password: "s3cret-pass"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decode[TokenResponse](t, rec)
	require.NotEmpty(t, token.AuthToken)
	return user, token.AuthToken
}

func TestRegisterLoginAndMe(t *testing.T) {
	app := newUserApp()
	user, token := app.signUp(t, "cook")

	rec := app.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[types.UserView](t, rec)
	assert.Equal(t, user.ID, me.ID)
	assert.Equal(t, "cook", me.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = app.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	app := newUserApp()
	app.signUp(t, "cook")

	rec := app.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email":      "cook@example.com",
		"username":   "cook2",
		"first_name": "Test",
		"last_name":  "User",
		"password":   "s3cret-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWithWrongPassword(t *testing.T) {
	app := newUserApp()
	app.signUp(t, "cook")

	rec := app.do(t, http.MethodPost, "/api/auth/token/login", "", LoginRequest{Email: "cook@example.com", Password: "nope-nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscribeFlow(t *testing.T) {
	app := newUserApp()
	author, authorToken := app.signUp(t, "author")
	_, readerToken := app.signUp(t, "reader")
	for _, name := range []string{"Soup", "Stew", "Salad"} {
		_, err := app.recipes.Create(t.Context(), types.Recipe{AuthorID: author.ID, Name: name}, nil)
		require.NoError(t, err)
	}

	subscribe := "/api/users/" + strconv.Itoa(author.ID) + "/subscribe"

	rec := app.do(t, http.MethodPost, subscribe, authorToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "self subscription")

	rec = app.do(t, http.MethodPost, subscribe+"?recipes_limit=2", readerToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[types.AuthorView](t, rec)
	assert.True(t, view.IsSubscribed)
	assert.Len(t, view.Recipes, 2)
	assert.Equal(t, 3, view.RecipesCount)

	rec = app.do(t, http.MethodPost, subscribe, readerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "duplicate subscription")

	rec = app.do(t, http.MethodGet, "/api/users/subscriptions?recipes_limit=1", readerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[Page[types.AuthorView]](t, rec)
	require.Equal(t, 1, page.Count)
	assert.Len(t, page.Results[0].Recipes, 1)

	rec = app.do(t, http.MethodGet, "/api/users/subscriptions?recipes_limit=abc", readerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodDelete, subscribe, readerToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodDelete, subscribe, readerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/users/999/subscribe", readerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
