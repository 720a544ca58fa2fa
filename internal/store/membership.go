package store

import (
	"context"
	"database/sql"

	"github.com/foodgram/apiserver/types"
)

// MembershipRepository persists one per-user recipe set. Favorites and the
// shopping cart share the same shape and differ only by table.
type MembershipRepository struct {
	db    *sql.DB
	kind  types.MembershipKind
	table string
}

// The table name is taken from the kind, so only the constants below may
// reach it.
func newMembershipRepository(db *sql.DB, kind types.MembershipKind) *MembershipRepository {
	return &MembershipRepository{db: db, kind: kind, table: string(kind)}
}

func NewFavoriteRepository(db *sql.DB) *MembershipRepository {
	return newMembershipRepository(db, types.Favorites)
}

func NewShoppingCartRepository(db *sql.DB) *MembershipRepository {
	return newMembershipRepository(db, types.ShoppingCart)
}

func (r *MembershipRepository) Kind() types.MembershipKind {
	return r.kind
}

// Add records the (userID, recipeID) pair. A duplicate pair yields
// ErrAlreadyExists and a dangling recipe yields ErrNotFound.
func (r *MembershipRepository) Add(ctx context.Context, userID, recipeID int) error {
	query := `INSERT INTO ` + r.table + ` (user_id, recipe_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, userID, recipeID); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Remove deletes the pair, returning ErrNotFound if it was not recorded.
func (r *MembershipRepository) Remove(ctx context.Context, userID, recipeID int) error {
	query := `DELETE FROM ` + r.table + ` WHERE user_id = $1 AND recipe_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, recipeID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
