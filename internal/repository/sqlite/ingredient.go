package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.IngredientRepository = (*DB)(nil)

func (db *DB) CreateIngredient(ctx context.Context, ing *model.Ingredient) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)`,
		ing.Name, ing.MeasurementUnit,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting ingredient %q: %w", ing.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading ingredient id: %w", err)
	}
	ing.ID = model.IngredientID(id)
	return nil
}

func (db *DB) GetIngredientByID(ctx context.Context, id model.IngredientID) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ?`, int64(id),
	).Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("ingredient", strconv.FormatInt(int64(id), 10))
		}
		return nil, fmt.Errorf("sqlite: getting ingredient %d: %w", id, err)
	}
	return &ing, nil
}

// ListIngredients filters by prefix and orders by name in Go rather than
// with LIKE and COLLATE NOCASE: SQLite only folds ASCII case, and ingredient
// names are often Cyrillic.
func (db *DB) ListIngredients(ctx context.Context, prefix string) ([]model.Ingredient, error) {
	prefix = strings.ToLower(prefix)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := []model.Ingredient{}
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ingredient row: %w", err)
		}
		if prefix != "" && !strings.HasPrefix(strings.ToLower(ing.Name), prefix) {
			continue
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ingredients: %w", err)
	}

	// Stable, so equal names keep id order.
	slices.SortStableFunc(ingredients, func(a, b model.Ingredient) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return ingredients, nil
}

func (db *DB) MissingIngredients(ctx context.Context, ids []model.IngredientID) ([]model.IngredientID, error) {
	found, err := existingIDs(ctx, db.conn, "ingredients", idArgs(ids))
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking ingredients: %w", err)
	}
	var missing []model.IngredientID
	for _, id := range ids {
		if !found[int64(id)] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
