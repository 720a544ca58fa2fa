package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/foodgram/apiserver/internal/db"
	"github.com/foodgram/apiserver/types"
	"github.com/lib/pq"
)

// RecipeRepository handles persistence for recipes and their ingredient lines.
type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

const recipeViewSelect = `
	SELECT r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.created_at,
		` + userColumns + `,
		EXISTS (SELECT 1 FROM subscriptions s WHERE s.user_id = $1 AND s.author_id = u.id),
		EXISTS (SELECT 1 FROM favorites f WHERE f.user_id = $1 AND f.recipe_id = r.id),
		EXISTS (SELECT 1 FROM shopping_cart c WHERE c.user_id = $1 AND c.recipe_id = r.id)
	FROM recipes r
	JOIN users u ON u.id = r.author_id`

func scanRecipeView(row rowScanner) (types.RecipeView, error) {
	var view types.RecipeView
	var (
		userID                       int
		email, username, first, last string
		avatar                       sql.NullString
		passwordHash                 string
		userCreatedAt, userUpdatedAt time.Time
	)
	err := row.Scan(
		&view.ID,
		&view.AuthorID,
		&view.Name,
		&view.Text,
		&view.Image,
		&view.CookingTime,
		&view.CreatedAt,
		&userID,
		&email,
		&username,
		&first,
		&last,
		&avatar,
		&passwordHash,
		&userCreatedAt,
		&userUpdatedAt,
		&view.Author.IsSubscribed,
		&view.IsFavorited,
		&view.IsInShoppingCart,
	)
	if err != nil {
		return types.RecipeView{}, err
	}
	view.Author.User = types.User{
		ID:        userID,
		Email:     email,
		Username:  username,
		FirstName: first,
		LastName:  last,
		CreatedAt: userCreatedAt,
		UpdatedAt: userUpdatedAt,
	}
	if avatar.Valid && avatar.String != "" {
		view.Author.Avatar = &avatar.String
	}
	return view, nil
}

// recipeFilterClause renders filter predicates with placeholders numbered from next.
func recipeFilterClause(filter types.RecipeFilter, next int) (string, []any) {
	var conds []string
	var args []any
	if filter.AuthorID != nil {
		conds = append(conds, fmt.Sprintf("r.author_id = $%d", next))
		args = append(args, *filter.AuthorID)
		next++
	}
	if filter.FavoritedBy != 0 {
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM favorites ff WHERE ff.user_id = $%d AND ff.recipe_id = r.id)", next))
		args = append(args, filter.FavoritedBy)
		next++
	}
	if filter.InCartOf != 0 {
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM shopping_cart fc WHERE fc.user_id = $%d AND fc.recipe_id = r.id)", next))
		args = append(args, filter.InCartOf)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of recipes, newest first, as seen by viewerID.
func (r *RecipeRepository) List(ctx context.Context, viewerID int, filter types.RecipeFilter, offset, limit int) ([]types.RecipeView, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 6
	}

	countWhere, countArgs := recipeFilterClause(filter, 1)
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM recipes r`+countWhere, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	where, filterArgs := recipeFilterClause(filter, 2)
	args := append([]any{viewerID}, filterArgs...)
	query := recipeViewSelect + where + fmt.Sprintf(
		" ORDER BY r.created_at DESC, r.id DESC OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2,
	)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	recipes := make([]types.RecipeView, 0, limit)
	ids := make([]int, 0, limit)
	for rows.Next() {
		view, err := scanRecipeView(rows)
		if err != nil {
			return nil, 0, err
		}
		recipes = append(recipes, view)
		ids = append(ids, view.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	lines, err := loadLines(ctx, r.db, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range recipes {
		recipes[i].Ingredients = lines[recipes[i].ID]
	}

	return recipes, total, nil
}

// GetView loads one recipe as seen by viewerID.
func (r *RecipeRepository) GetView(ctx context.Context, viewerID, id int) (types.RecipeView, error) {
	view, err := scanRecipeView(r.db.QueryRowContext(ctx, recipeViewSelect+" WHERE r.id = $2", viewerID, id))
	if err != nil {
		return types.RecipeView{}, mapReadError(err)
	}
	lines, err := loadLines(ctx, r.db, []int{id})
	if err != nil {
		return types.RecipeView{}, err
	}
	view.Ingredients = lines[id]
	return view, nil
}

// Get loads a recipe without its lines or caller-relative flags.
func (r *RecipeRepository) Get(ctx context.Context, id int) (types.Recipe, error) {
	const query = `
		SELECT id, author_id, name, text, image, cooking_time, created_at
		FROM recipes
		WHERE id = $1`
	var recipe types.Recipe
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&recipe.ID,
		&recipe.AuthorID,
		&recipe.Name,
		&recipe.Text,
		&recipe.Image,
		&recipe.CookingTime,
		&recipe.CreatedAt,
	)
	if err != nil {
		return types.Recipe{}, mapReadError(err)
	}
	return recipe, nil
}

// Create persists the recipe and its ingredient lines in one transaction.
func (r *RecipeRepository) Create(ctx context.Context, recipe types.Recipe, lines []types.IngredientAmount) (types.Recipe, error) {
	recipe.CreatedAt = time.Now()

	const query = `
		INSERT INTO recipes (author_id, name, text, image, cooking_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(
			ctx,
			query,
			recipe.AuthorID,
			recipe.Name,
			recipe.Text,
			recipe.Image,
			recipe.CookingTime,
			recipe.CreatedAt,
		).Scan(&recipe.ID); err != nil {
			return mapWriteError(err)
		}
		return insertLines(ctx, tx, recipe.ID, lines)
	})
	if err != nil {
		return types.Recipe{}, err
	}
	return recipe, nil
}

// Update rewrites the recipe fields and replaces its whole ingredient-line
// set in one transaction. The author and creation time are never changed.
func (r *RecipeRepository) Update(ctx context.Context, recipe types.Recipe, lines []types.IngredientAmount) (types.Recipe, error) {
	const query = `
		UPDATE recipes
		SET name = $1,
			text = $2,
			image = $3,
			cooking_time = $4
		WHERE id = $5`
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, recipe.Name, recipe.Text, recipe.Image, recipe.CookingTime, recipe.ID)
		if err != nil {
			return mapWriteError(err)
		}
		if err := expectAffected(result); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipe.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, recipe.ID, lines)
	})
	if err != nil {
		return types.Recipe{}, err
	}
	return recipe, nil
}

func (r *RecipeRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM recipes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// ListSummariesByAuthor returns an author's recipes newest first. A limit
// of zero returns all of them.
func (r *RecipeRepository) ListSummariesByAuthor(ctx context.Context, authorID, limit int) ([]types.RecipeSummary, error) {
	query := `
		SELECT id, name, image, cooking_time
		FROM recipes
		WHERE author_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{authorID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]types.RecipeSummary, 0)
	for rows.Next() {
		var summary types.RecipeSummary
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.Image, &summary.CookingTime); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// CartContents returns the names of every recipe in the user's cart and
// every ingredient line belonging to those recipes.
func (r *RecipeRepository) CartContents(ctx context.Context, userID int) ([]string, []types.ShoppingLine, error) {
	var names []string
	var lines []types.ShoppingLine

	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const namesQuery = `
			SELECT r.name
			FROM shopping_cart c
			JOIN recipes r ON r.id = c.recipe_id
			WHERE c.user_id = $1`
		rows, err := tx.QueryContext(ctx, namesQuery, userID)
		if err != nil {
			return err
		}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return err
			}
			names = append(names, name)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		const linesQuery = `
			SELECT ri.recipe_id, i.name, i.measurement_unit, ri.amount
			FROM shopping_cart c
			JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
			JOIN ingredients i ON i.id = ri.ingredient_id
			WHERE c.user_id = $1`
		rows, err = tx.QueryContext(ctx, linesQuery, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var line types.ShoppingLine
			if err := rows.Scan(&line.RecipeID, &line.Name, &line.MeasurementUnit, &line.Amount); err != nil {
				return err
			}
			lines = append(lines, line)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}
	return names, lines, nil
}

func insertLines(ctx context.Context, q queryer, recipeID int, lines []types.IngredientAmount) error {
	if len(lines) == 0 {
		return nil
	}
	ingredientIDs := make([]int, len(lines))
	amounts := make([]int, len(lines))
	for i, line := range lines {
		ingredientIDs[i] = line.ID
		amounts[i] = line.Amount
	}

	const query = `
		INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount)
		SELECT $1, line.ingredient_id, line.amount
		FROM unnest($2::int[], $3::int[]) AS line(ingredient_id, amount)`
	if _, err := q.ExecContext(ctx, query, recipeID, pq.Array(int64s(ingredientIDs)), pq.Array(int64s(amounts))); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func loadLines(ctx context.Context, q queryer, recipeIDs []int) (map[int][]types.RecipeIngredient, error) {
	lines := make(map[int][]types.RecipeIngredient, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return lines, nil
	}

	const query = `
		SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY ri.recipe_id, ri.id`
	rows, err := q.QueryContext(ctx, query, pq.Array(int64s(recipeIDs)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int
		var line types.RecipeIngredient
		if err := rows.Scan(&recipeID, &line.ID, &line.Name, &line.MeasurementUnit, &line.Amount); err != nil {
			return nil, err
		}
		lines[recipeID] = append(lines[recipeID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func int64s(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
