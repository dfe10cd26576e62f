package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/shoppinglist"
)

// CollectionService toggles recipes in a user's favorites and shopping
// cart, and renders the cart as a shopping list.
type CollectionService struct {
	recipes     repository.RecipeRepository
	collections repository.CollectionRepository
	logger      *slog.Logger
}

func NewCollectionService(
	recipes repository.RecipeRepository,
	collections repository.CollectionRepository,
	logger *slog.Logger,
) *CollectionService {
	return &CollectionService{recipes: recipes, collections: collections, logger: logger}
}

// Add puts recipeID into the user's collection c and returns the recipe.
// An unknown recipe is not found; a repeat is a conflict.
func (s *CollectionService) Add(ctx context.Context, userID model.UserID, c model.Collection, recipeID model.RecipeID) (*model.Recipe, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	recipe, err := s.recipes.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if err := s.collections.AddToCollection(ctx, c, userID, recipeID); err != nil {
		logFailure(s.logger, "failed to add recipe to collection", err,
			slog.String("collection", string(c)),
			slog.Int64("user_id", int64(userID)),
			slog.Int64("recipe_id", int64(recipeID)),
		)
		return nil, fmt.Errorf("adding recipe %d to %s: %w", recipeID, c, err)
	}

	s.logger.Info("recipe added",
		slog.String("collection", string(c)),
		slog.Int64("user_id", int64(userID)),
		slog.Int64("recipe_id", int64(recipeID)),
	)
	return recipe, nil
}

// Remove takes recipeID out of the collection; absent rows are not found.
func (s *CollectionService) Remove(ctx context.Context, userID model.UserID, c model.Collection, recipeID model.RecipeID) error {
	if !c.Valid() {
		return fmt.Errorf("unknown collection %q", c)
	}
	if _, err := s.recipes.GetRecipeByID(ctx, recipeID); err != nil {
		return err
	}

	if err := s.collections.RemoveFromCollection(ctx, c, userID, recipeID); err != nil {
		logFailure(s.logger, "failed to remove recipe from collection", err,
			slog.String("collection", string(c)),
			slog.Int64("user_id", int64(userID)),
			slog.Int64("recipe_id", int64(recipeID)),
		)
		return fmt.Errorf("removing recipe %d from %s: %w", recipeID, c, err)
	}

	s.logger.Info("recipe removed",
		slog.String("collection", string(c)),
		slog.Int64("user_id", int64(userID)),
		slog.Int64("recipe_id", int64(recipeID)),
	)
	return nil
}

// ShoppingList sums the ingredients of every recipe in the user's cart by
// (name, unit). An empty cart gives an empty list.
func (s *CollectionService) ShoppingList(ctx context.Context, userID model.UserID) ([]shoppinglist.Line, error) {
	items, err := s.collections.CartIngredients(ctx, userID)
	if err != nil {
		logFailure(s.logger, "failed to load shopping cart", err, slog.Int64("user_id", int64(userID)))
		return nil, fmt.Errorf("loading shopping cart: %w", err)
	}
	lines, err := shoppinglist.Aggregate(items)
	if err != nil {
		logFailure(s.logger, "failed to build shopping list", err, slog.Int64("user_id", int64(userID)))
		return nil, fmt.Errorf("building shopping list: %w", err)
	}

	s.logger.Debug("shopping list built",
		slog.Int64("user_id", int64(userID)),
		slog.Int("rows", len(items)),
		slog.Int("lines", len(lines)),
	)
	return lines, nil
}
