package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/foodgram/apiserver/internal/metrics"
	"github.com/foodgram/apiserver/types"
)

// ShoppingListFilename is the attachment name of the rendered list.
const ShoppingListFilename = "shopping_cart.txt"

// CartReader loads the raw contents of a user's cart.
type CartReader interface {
	CartContents(ctx context.Context, userID int) ([]string, []types.ShoppingLine, error)
}

// ShoppingItem is one consolidated product line.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// ShoppingList is the consolidated view of a cart at a point in time.
type ShoppingList struct {
	Date     time.Time
	Products []ShoppingItem
	Recipes  []string
}

// AggregateShoppingList groups lines by (name, unit), sums their amounts and
// sorts both sections. Lines of distinct ingredients sharing a name and unit
// are merged.
func AggregateShoppingList(recipeNames []string, lines []types.ShoppingLine, date time.Time) ShoppingList {
	type key struct{ name, unit string }
	totals := make(map[key]int)
	for _, line := range lines {
		totals[key{line.Name, line.MeasurementUnit}] += line.Amount
	}

	products := make([]ShoppingItem, 0, len(totals))
	for k, amount := range totals {
		products = append(products, ShoppingItem{Name: k.name, MeasurementUnit: k.unit, Amount: amount})
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].MeasurementUnit < products[j].MeasurementUnit
	})

	seen := make(map[string]struct{}, len(recipeNames))
	recipes := make([]string, 0, len(recipeNames))
	for _, name := range recipeNames {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		recipes = append(recipes, name)
	}
	sort.Strings(recipes)

	return ShoppingList{Date: date, Products: products, Recipes: recipes}
}

// Render formats the list as plain text.
func (l ShoppingList) Render() string {
	out := make([]string, 0, len(l.Products)+len(l.Recipes)+4)
	out = append(out, fmt.Sprintf("Shopping list for %s:", l.Date.Format("02.01.2006")))
	out = append(out, "Products:")
	for i, item := range l.Products {
		out = append(out, fmt.Sprintf("%d. %s (%s) - %d", i+1, capitalizeFirst(item.Name), item.MeasurementUnit, item.Amount))
	}
	out = append(out, "", "Recipes:")
	for i, name := range l.Recipes {
		out = append(out, fmt.Sprintf("%d. %s", i+1, name))
	}
	return strings.Join(out, "\n")
}

// capitalizeFirst upper-cases the first rune and leaves the rest untouched.
func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ShoppingListService builds shopping lists from the current cart.
type ShoppingListService struct {
	cart CartReader
	now  func() time.Time
}

func NewShoppingListService(cart CartReader, now func() time.Time) *ShoppingListService {
	if now == nil {
		now = time.Now
	}
	return &ShoppingListService{cart: cart, now: now}
}

// Build recomputes the list for userID from scratch.
func (s *ShoppingListService) Build(ctx context.Context, userID int) (ShoppingList, error) {
	if userID < 1 {
		return ShoppingList{}, ErrUnauthorized
	}
	names, lines, err := s.cart.CartContents(ctx, userID)
	if err != nil {
		return ShoppingList{}, err
	}
	metrics.ShoppingListDownloads.Inc()
	return AggregateShoppingList(names, lines, s.now()), nil
}
