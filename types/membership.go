package types

// MembershipKind names one of the per-user recipe sets.
type MembershipKind string

const (
	Favorites    MembershipKind = "favorites"
	ShoppingCart MembershipKind = "shopping_cart"
)

// ShoppingLine is one ingredient line of a recipe in a user's cart.
type ShoppingLine struct {
	RecipeID        int    `db:"recipe_id"`
	Name            string `db:"name"`
	MeasurementUnit string `db:"measurement_unit"`
	Amount          int    `db:"amount"`
}
