package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/foodgram/apiserver/internal/db"
	"github.com/foodgram/apiserver/types"
	"github.com/lib/pq"
)

// IngredientRepository handles persistence for the ingredient catalog.
type IngredientRepository struct {
	db *sql.DB
}

func NewIngredientRepository(db *sql.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ingredientListQuery builds the catalog listing. Both sides of the prefix
// match are lowered, and LIKE metacharacters in prefix match literally.
func ingredientListQuery(prefix string) (string, []any) {
	query := `SELECT id, name, measurement_unit FROM ingredients`
	var args []any
	if prefix != "" {
		query += ` WHERE lower(name) LIKE lower($1) || '%'`
		args = append(args, escapeLike(prefix))
	}
	return query + ` ORDER BY name, measurement_unit`, args
}

// List returns the catalog ordered by name. A non-empty prefix restricts the
// result to names starting with it, compared case-insensitively.
func (r *IngredientRepository) List(ctx context.Context, prefix string) ([]types.Ingredient, error) {
	query, args := ingredientListQuery(prefix)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := make([]types.Ingredient, 0)
	for rows.Next() {
		var ingredient types.Ingredient
		if err := rows.Scan(&ingredient.ID, &ingredient.Name, &ingredient.MeasurementUnit); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ingredient)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *IngredientRepository) Get(ctx context.Context, id int) (types.Ingredient, error) {
	const query = `SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`
	var ingredient types.Ingredient
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ingredient.ID, &ingredient.Name, &ingredient.MeasurementUnit)
	if err != nil {
		return types.Ingredient{}, mapReadError(err)
	}
	return ingredient, nil
}

// MissingIDs returns the subset of ids that are not in the catalog.
func (r *IngredientRepository) MissingIDs(ctx context.Context, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT requested.id
		FROM unnest($1::int[]) AS requested(id)
		LEFT JOIN ingredients i ON i.id = requested.id
		WHERE i.id IS NULL`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(int64s(ids)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}

// Import inserts ingredients, leaving existing (name, unit) pairs untouched.
// It returns the number of rows actually inserted.
func (r *IngredientRepository) Import(ctx context.Context, ingredients []types.Ingredient) (int, error) {
	const query = `
		INSERT INTO ingredients (name, measurement_unit)
		VALUES ($1, $2)
		ON CONFLICT (name, measurement_unit) DO NOTHING`

	inserted := 0
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, ingredient := range ingredients {
			result, err := stmt.ExecContext(ctx, ingredient.Name, ingredient.MeasurementUnit)
			if err != nil {
				return err
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return err
			}
			inserted += int(affected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
