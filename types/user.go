package types

import "time"

// User represents an account in the system.
// Email is the login identity; Username is the public handle.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the unique address used to log in.
	Email string `json:"email" db:"email"`

	// Username is the unique public handle. It is restricted to letters,
	// digits and the characters ".", "@", "_" and "-".
	Username string `json:"username" db:"username"`

	// FirstName is the user's given name.
	FirstName string `json:"first_name" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"last_name" db:"last_name"`

	// Avatar is the retrievable URL of the user's avatar image, if any.
	Avatar *string `json:"avatar" db:"avatar"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"-" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// UserView is a user as seen by a particular caller.
type UserView struct {
	User

	// IsSubscribed reports whether the caller follows this user.
	// Always false for anonymous callers.
	IsSubscribed bool `json:"is_subscribed"`
}

// AuthorView is a followed author together with a (possibly truncated)
// list of their recipes.
type AuthorView struct {
	UserView

	// Recipes lists the author's recipes, newest first.
	Recipes []RecipeSummary `json:"recipes"`

	// RecipesCount is the total number of recipes by the author,
	// regardless of any truncation applied to Recipes.
	RecipesCount int `json:"recipes_count"`
}

// Subscription is a directed follow edge from User to Author.
type Subscription struct {
	ID       int `json:"id" db:"id"`
	UserID   int `json:"user_id" db:"user_id"`
	AuthorID int `json:"author_id" db:"author_id"`
}
