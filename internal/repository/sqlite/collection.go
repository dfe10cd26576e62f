package sqlite

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.CollectionRepository = (*DB)(nil)

// collectionTable maps a collection to its join table.
func collectionTable(c model.Collection) (string, error) {
	switch c {
	case model.Favorites:
		return "favorites", nil
	case model.ShoppingCart:
		return "purchases", nil
	}
	return "", fmt.Errorf("sqlite: unknown collection %q", c)
}

// AddToCollection inserts the (user, recipe) row. A repeated insert violates
// the table's UNIQUE (user_id, recipe_id) and is reported as a conflict.
func (db *DB) AddToCollection(ctx context.Context, c model.Collection, userID model.UserID, recipeID model.RecipeID) error {
	table, err := collectionTable(c)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (user_id, recipe_id) VALUES (?, ?)`, table),
		int64(userID), int64(recipeID),
	)
	if err != nil {
		switch kind, _ := constraintViolation(err); kind {
		case uniqueViolation:
			return apperror.Duplicate("recipe", fmt.Sprintf("recipe is already in %s", collectionLabel(c)))
		case foreignKeyViolation:
			if gone := accountGone(ctx, db.conn, userID); gone != nil {
				return gone
			}
			return apperror.NotFound("recipe", strconv.FormatInt(int64(recipeID), 10))
		}
		return fmt.Errorf("sqlite: adding recipe %d to %s of user %d: %w", recipeID, table, userID, err)
	}
	return nil
}

func (db *DB) RemoveFromCollection(ctx context.Context, c model.Collection, userID model.UserID, recipeID model.RecipeID) error {
	table, err := collectionTable(c)
	if err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND recipe_id = ?`, table),
		int64(userID), int64(recipeID),
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing recipe %d from %s of user %d: %w", recipeID, table, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("recipe %d is not in %s", recipeID, collectionLabel(c)),
		}
	}
	return nil
}

func (db *DB) InCollection(ctx context.Context, c model.Collection, userID model.UserID, recipeIDs []model.RecipeID) (map[model.RecipeID]bool, error) {
	table, err := collectionTable(c)
	if err != nil {
		return nil, err
	}

	in := make(map[model.RecipeID]bool)
	if userID == 0 || len(recipeIDs) == 0 {
		return in, nil
	}

	args := append([]any{int64(userID)}, idArgs(recipeIDs)...)
	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT recipe_id FROM %s WHERE user_id = ? AND recipe_id IN (%s)`,
			table, placeholders(len(recipeIDs))),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading %s of user %d: %w", table, userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id model.RecipeID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", table, err)
		}
		in[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s: %w", table, err)
	}
	return in, nil
}

// CartIngredients returns raw (name, unit, amount) rows; summing is left to
// the shoppinglist package.
func (db *DB) CartIngredients(ctx context.Context, userID model.UserID) ([]model.CartIngredient, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT i.name, i.measurement_unit, ri.amount
		 FROM purchases p
		 JOIN recipe_ingredients ri ON ri.recipe_id = p.recipe_id
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE p.user_id = ?
		 ORDER BY p.id, ri.id`,
		int64(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading shopping cart of user %d: %w", userID, err)
	}
	defer rows.Close()

	items := []model.CartIngredient{}
	for rows.Next() {
		var it model.CartIngredient
		if err := rows.Scan(&it.Name, &it.MeasurementUnit, &it.Amount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning cart ingredient: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating cart ingredients: %w", err)
	}
	return items, nil
}

func collectionLabel(c model.Collection) string {
	if c == model.ShoppingCart {
		return "the shopping cart"
	}
	return "favorites"
}
