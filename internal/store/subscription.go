package store

import (
	"context"
	"database/sql"

	"github.com/foodgram/apiserver/types"
)

// SubscriptionRepository persists follow edges between users.
type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Add records that userID follows authorID. A repeated edge yields
// ErrAlreadyExists and an unknown author yields ErrNotFound.
func (r *SubscriptionRepository) Add(ctx context.Context, userID, authorID int) (types.Subscription, error) {
	sub := types.Subscription{UserID: userID, AuthorID: authorID}
	const query = `
		INSERT INTO subscriptions (user_id, author_id)
		VALUES ($1, $2)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, userID, authorID).Scan(&sub.ID); err != nil {
		return types.Subscription{}, mapWriteError(err)
	}
	return sub, nil
}

func (r *SubscriptionRepository) Remove(ctx context.Context, userID, authorID int) error {
	const query = `DELETE FROM subscriptions WHERE user_id = $1 AND author_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, authorID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// ListAuthors returns one page of the authors userID follows, ordered by
// username, with each author's total recipe count. Recipes are not loaded.
func (r *SubscriptionRepository) ListAuthors(ctx context.Context, userID, offset, limit int) ([]types.AuthorView, int, error) {
	const countQuery = `SELECT COUNT(1) FROM subscriptions WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + userColumns + `,
			(SELECT COUNT(1) FROM recipes r WHERE r.author_id = u.id)
		FROM subscriptions s
		JOIN users u ON u.id = s.author_id
		WHERE s.user_id = $1
		ORDER BY u.username
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	authors := make([]types.AuthorView, 0, limit)
	for rows.Next() {
		var author types.AuthorView
		user, err := scanUser(rows, &author.RecipesCount)
		if err != nil {
			return nil, 0, err
		}
		author.User = user
		author.IsSubscribed = true
		authors = append(authors, author)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}

// CountRecipes returns how many recipes authorID has published.
func (r *SubscriptionRepository) CountRecipes(ctx context.Context, authorID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM recipes WHERE author_id = $1`, authorID).Scan(&count)
	return count, err
}

// SubscriberIDs returns the ids of every user following authorID.
func (r *SubscriptionRepository) SubscriberIDs(ctx context.Context, authorID int) ([]int, error) {
	const query = `SELECT user_id FROM subscriptions WHERE author_id = $1 ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
