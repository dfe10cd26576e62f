package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.RecipeRepository = (*DB)(nil)

const recipeSelect = `
	SELECT r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.pub_date,
	       u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.is_admin, u.created_at
	FROM recipes r
	JOIN users u ON u.id = r.author_id`

// CreateRecipe inserts the recipe row, its ingredient amounts and its tags
// in a single transaction. ID and PubDate are set on success.
func (db *DB) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	pubDate := time.Now().UTC()

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (author_id, name, text, image, cooking_time, pub_date)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			int64(recipe.AuthorID),
			recipe.Name,
			recipe.Text,
			recipe.Image,
			recipe.CookingTime,
			pubDate,
		)
		if err != nil {
			// author_id is the only reference on the recipes row.
			if kind, _ := constraintViolation(err); kind == foreignKeyViolation {
				return apperror.Unauthorized("account no longer exists")
			}
			return recipeWriteError("inserting recipe", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading recipe id: %w", err)
		}

		if err := insertAssociations(ctx, tx, model.RecipeID(id), recipe); err != nil {
			return err
		}
		recipe.ID = model.RecipeID(id)
		return nil
	})
	if err != nil {
		return err
	}

	recipe.PubDate = pubDate
	return nil
}

// UpdateRecipe rewrites name, text, image and cooking time, then replaces
// the ingredient and tag rows wholesale. Passing empty Ingredients removes
// every ingredient association.
func (db *DB) UpdateRecipe(ctx context.Context, recipe *model.Recipe) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE recipes SET name = ?, text = ?, image = ?, cooking_time = ? WHERE id = ?`,
			recipe.Name,
			recipe.Text,
			recipe.Image,
			recipe.CookingTime,
			int64(recipe.ID),
		)
		if err != nil {
			return recipeWriteError(fmt.Sprintf("updating recipe %d", recipe.ID), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("recipe", strconv.FormatInt(int64(recipe.ID), 10))
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, int64(recipe.ID)); err != nil {
			return fmt.Errorf("sqlite: clearing ingredients of recipe %d: %w", recipe.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recipe_tags WHERE recipe_id = ?`, int64(recipe.ID)); err != nil {
			return fmt.Errorf("sqlite: clearing tags of recipe %d: %w", recipe.ID, err)
		}

		return insertAssociations(ctx, tx, recipe.ID, recipe)
	})
}

func insertAssociations(ctx context.Context, tx *sql.Tx, id model.RecipeID, recipe *model.Recipe) error {
	for _, ri := range recipe.Ingredients {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)`,
			int64(id), int64(ri.IngredientID), ri.Amount,
		); err != nil {
			return recipeWriteError(fmt.Sprintf("adding ingredient %d to recipe %d", ri.IngredientID, id), err)
		}
	}

	// Repeated tag ids collapse into one association.
	for _, tag := range recipe.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`,
			int64(id), int64(tag.ID),
		); err != nil {
			return recipeWriteError(fmt.Sprintf("adding tag %d to recipe %d", tag.ID, id), err)
		}
	}
	return nil
}

// recipeWriteError turns constraint failures on the recipe tables into
// field-level validation errors.
func recipeWriteError(op string, err error) error {
	kind, msg := constraintViolation(err)
	switch kind {
	case uniqueViolation:
		return apperror.ValidationFailed("ingredients", "an ingredient may appear only once per recipe")
	case checkViolation:
		if strings.Contains(msg, "cooking_time") {
			return apperror.ValidationFailed("cooking_time", "cooking time must be at least 1 minute")
		}
		return apperror.ValidationFailed("ingredients",
			fmt.Sprintf("ingredient amount must be between 1 and %d", model.MaxAmount))
	case foreignKeyViolation:
		return apperror.ValidationFailed("ingredients", "recipe references an unknown ingredient or tag")
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}

// GetRecipeByID returns the recipe with its author, tags and ingredients.
func (db *DB) GetRecipeByID(ctx context.Context, id model.RecipeID) (*model.Recipe, error) {
	row := db.conn.QueryRowContext(ctx, recipeSelect+` WHERE r.id = ?`, int64(id))

	r, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("recipe", strconv.FormatInt(int64(id), 10))
		}
		return nil, fmt.Errorf("sqlite: getting recipe %d: %w", id, err)
	}

	recipes := []model.Recipe{*r}
	if err := db.hydrate(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// ListRecipes returns recipes newest first. The favorite and cart filters
// are evaluated against filter.Viewer; for an anonymous viewer nothing is
// favorited, so Favorited=true yields no rows and Favorited=false keeps all.
func (db *DB) ListRecipes(ctx context.Context, filter repository.RecipeFilter) ([]model.Recipe, error) {
	var (
		where []string
		args  []any
	)

	if filter.AuthorID != 0 {
		where = append(where, `r.author_id = ?`)
		args = append(args, int64(filter.AuthorID))
	}
	if len(filter.TagSlugs) > 0 {
		where = append(where, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			         WHERE rt.recipe_id = r.id AND t.slug IN (%s))`,
			placeholders(len(filter.TagSlugs))))
		for _, s := range filter.TagSlugs {
			args = append(args, s)
		}
	}
	if filter.Favorited != nil {
		where = append(where, membershipClause("favorites", *filter.Favorited))
		args = append(args, int64(filter.Viewer))
	}
	if filter.InShoppingCart != nil {
		where = append(where, membershipClause("purchases", *filter.InShoppingCart))
		args = append(args, int64(filter.Viewer))
	}

	query := recipeSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY r.pub_date DESC, r.id DESC`
	// The name search runs in Go, so the limit has to wait for it.
	search := strings.ToLower(filter.Search)
	if filter.Limit > 0 && search == "" {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	defer rows.Close()

	recipes := []model.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		// SQLite's LIKE folds ASCII only; names are often Cyrillic.
		if search != "" && !strings.Contains(strings.ToLower(r.Name), search) {
			continue
		}
		recipes = append(recipes, *r)
		if search != "" && filter.Limit > 0 && len(recipes) == filter.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}
	// Release the only connection before hydrate queries again.
	rows.Close()

	if err := db.hydrate(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// membershipClause builds an [NOT] EXISTS test against favorites or
// purchases for the viewer bound as the next argument.
func membershipClause(table string, in bool) string {
	clause := fmt.Sprintf(`EXISTS (SELECT 1 FROM %s m WHERE m.recipe_id = r.id AND m.user_id = ?)`, table)
	if !in {
		return `NOT ` + clause
	}
	return clause
}

func (db *DB) CountRecipesByAuthor(ctx context.Context, authorID model.UserID) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE author_id = ?`, int64(authorID),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting recipes of user %d: %w", authorID, err)
	}
	return n, nil
}

// DeleteRecipe removes the recipe; ingredient amounts, tag links, favorites
// and purchases referencing it are removed by ON DELETE CASCADE.
func (db *DB) DeleteRecipe(ctx context.Context, id model.RecipeID) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("recipe", strconv.FormatInt(int64(id), 10))
	}
	return nil
}

// hydrate fills Tags and Ingredients for each recipe with two IN queries.
func (db *DB) hydrate(ctx context.Context, recipes []model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	index := make(map[int64]int, len(recipes))
	args := make([]any, len(recipes))
	for i := range recipes {
		recipes[i].Tags = []model.Tag{}
		recipes[i].Ingredients = []model.RecipeIngredient{}
		index[int64(recipes[i].ID)] = i
		args[i] = int64(recipes[i].ID)
	}
	in := placeholders(len(recipes))

	tagRows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id IN (%s)
		 ORDER BY t.id`, in), args...)
	if err != nil {
		return fmt.Errorf("sqlite: loading recipe tags: %w", err)
	}
	for tagRows.Next() {
		var (
			recipeID int64
			t        model.Tag
		)
		if err := tagRows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			tagRows.Close()
			return fmt.Errorf("sqlite: scanning recipe tag: %w", err)
		}
		i := index[recipeID]
		recipes[i].Tags = append(recipes[i].Tags, t)
	}
	if err := tagRows.Err(); err != nil {
		tagRows.Close()
		return fmt.Errorf("sqlite: iterating recipe tags: %w", err)
	}
	tagRows.Close()

	ingRows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id IN (%s)
		 ORDER BY ri.id`, in), args...)
	if err != nil {
		return fmt.Errorf("sqlite: loading recipe ingredients: %w", err)
	}
	defer ingRows.Close()
	for ingRows.Next() {
		var (
			recipeID int64
			ri       model.RecipeIngredient
		)
		if err := ingRows.Scan(&recipeID, &ri.IngredientID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return fmt.Errorf("sqlite: scanning recipe ingredient: %w", err)
		}
		i := index[recipeID]
		recipes[i].Ingredients = append(recipes[i].Ingredients, ri)
	}
	if err := ingRows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating recipe ingredients: %w", err)
	}
	return nil
}

func scanRecipe(s rowScanner) (*model.Recipe, error) {
	var (
		r model.Recipe
		u model.User
	)
	if err := s.Scan(
		&r.ID, &r.AuthorID, &r.Name, &r.Text, &r.Image, &r.CookingTime, &r.PubDate,
		&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.Author = &u
	return &r, nil
}
