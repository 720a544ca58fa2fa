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

var listDate = time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)

func cartLines() ([]string, []types.ShoppingLine) {
	names := []string{"A", "B"}
	lines := []types.ShoppingLine{
		{RecipeID: 1, Name: "Flour", MeasurementUnit: "g", Amount: 100},
		{RecipeID: 1, Name: "Salt", MeasurementUnit: "g", Amount: 5},
		{RecipeID: 2, Name: "Flour", MeasurementUnit: "g", Amount: 200},
		{RecipeID: 2, Name: "Sugar", MeasurementUnit: "g", Amount: 50},
	}
	return names, lines
}

func TestAggregateShoppingListSumsByNameAndUnit(t *testing.T) {
	names, lines := cartLines()
	list := AggregateShoppingList(names, lines, listDate)

	assert.Equal(t, []ShoppingItem{
		{Name: "Flour", MeasurementUnit: "g", Amount: 300},
		{Name: "Salt", MeasurementUnit: "g", Amount: 5},
		{Name: "Sugar", MeasurementUnit: "g", Amount: 50},
	}, list.Products)
	assert.Equal(t, []string{"A", "B"}, list.Recipes)
}

func TestAggregateShoppingListIsOrderIndependent(t *testing.T) {
	names, lines := cartLines()
	want := AggregateShoppingList(names, lines, listDate).Render()

	reversedLines := make([]types.ShoppingLine, len(lines))
	for i, line := range lines {
		reversedLines[len(lines)-1-i] = line
	}
	got := AggregateShoppingList([]string{"B", "A"}, reversedLines, listDate).Render()
	assert.Equal(t, want, got)
}

func TestAggregateShoppingListKeepsUnitsApart(t *testing.T) {
	lines := []types.ShoppingLine{
		{RecipeID: 1, Name: "milk", MeasurementUnit: "ml", Amount: 200},
		{RecipeID: 2, Name: "milk", MeasurementUnit: "cup", Amount: 1},
		{RecipeID: 3, Name: "milk", MeasurementUnit: "ml", Amount: 50},
	}
	list := AggregateShoppingList([]string{"X", "X", "Y"}, lines, listDate)

	assert.Equal(t, []ShoppingItem{
		{Name: "milk", MeasurementUnit: "cup", Amount: 1},
		{Name: "milk", MeasurementUnit: "ml", Amount: 250},
	}, list.Products)
	assert.Equal(t, []string{"X", "Y"}, list.Recipes)
}

func TestShoppingListRender(t *testing.T) {
	lines := []types.ShoppingLine{
		{RecipeID: 1, Name: "flour", MeasurementUnit: "g", Amount: 300},
		{RecipeID: 1, Name: "éclair cream", MeasurementUnit: "g", Amount: 20},
		{RecipeID: 2, Name: "salt", MeasurementUnit: "pinch", Amount: 1},
	}
	got := AggregateShoppingList([]string{"Pie", "Bread"}, lines, listDate).Render()

	want := "Shopping list for 07.03.2026:\n" +
		"Products:\n" +
		"1. Flour (g) - 300\n" +
		"2. Salt (pinch) - 1\n" +
		"3. Éclair cream (g) - 20\n" +
		"\n" +
		"Recipes:\n" +
		"1. Bread\n" +
		"2. Pie"
	assert.Equal(t, want, got)
}

func TestShoppingListRenderEmptyCart(t *testing.T) {
	got := AggregateShoppingList(nil, nil, listDate).Render()
	assert.Equal(t, "Shopping list for 07.03.2026:\nProducts:\n\nRecipes:", got)
}

func TestCapitalizeFirst(t *testing.T) {
	assert.Equal(t, "Flour", capitalizeFirst("flour"))
	assert.Equal(t, "BAKING soda", capitalizeFirst("bAKING soda"))
	assert.Equal(t, "Яйца", capitalizeFirst("яйца"))
	assert.Equal(t, "", capitalizeFirst(""))
}

type fakeCart struct {
	names []string
	lines []types.ShoppingLine
	err   error
	users []int
}

func (f *fakeCart) CartContents(_ context.Context, userID int) ([]string, []types.ShoppingLine, error) {
	f.users = append(f.users, userID)
	return f.names, f.lines, f.err
}

func TestShoppingListServiceBuild(t *testing.T) {
	names, lines := cartLines()
	cart := &fakeCart{names: names, lines: lines}
	svc := NewShoppingListService(cart, func() time.Time { return listDate })

	list, err := svc.Build(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, []int{9}, cart.users)
	assert.Equal(t, listDate, list.Date)
	assert.Len(t, list.Products, 3)

	_, err = svc.Build(context.Background(), 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	cart.err = errors.New("db down")
	_, err = svc.Build(context.Background(), 9)
	assert.EqualError(t, err, "db down")
}
