// Package repository declares the storage contracts the services depend on.
//
// Implementations translate missing rows into apperror.ErrNotFound and
// uniqueness or check-constraint violations into apperror.ErrConflict or
// apperror.ErrValidation, so services never see driver errors for expected
// conditions.
package repository

import (
	"context"

	"github.com/sakif/foodgram/internal/model"
)

// RecipeFilter narrows ListRecipes. Zero values mean "no filter".
type RecipeFilter struct {
	// TagSlugs keeps recipes carrying at least one of the slugs.
	TagSlugs []string
	AuthorID model.UserID
	// Viewer is the user the Favorited / InShoppingCart filters refer to.
	Viewer         model.UserID
	Favorited      *bool
	InShoppingCart *bool
	// Search keeps recipes whose name contains it, ignoring case.
	Search string
	// Limit caps the number of rows; 0 means unlimited.
	Limit int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id model.UserID) error
}

type TagRepository interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	GetTagByID(ctx context.Context, id model.TagID) (*model.Tag, error)
	ListTags(ctx context.Context) ([]model.Tag, error)
	// MissingTags returns the ids from the input that have no row.
	MissingTags(ctx context.Context, ids []model.TagID) ([]model.TagID, error)
}

type IngredientRepository interface {
	CreateIngredient(ctx context.Context, ing *model.Ingredient) error
	GetIngredientByID(ctx context.Context, id model.IngredientID) (*model.Ingredient, error)
	// ListIngredients returns ingredients whose name starts with prefix,
	// ignoring case. An empty prefix lists everything.
	ListIngredients(ctx context.Context, prefix string) ([]model.Ingredient, error)
	MissingIngredients(ctx context.Context, ids []model.IngredientID) ([]model.IngredientID, error)
}

type RecipeRepository interface {
	// CreateRecipe stores the recipe with its ingredient amounts and tags
	// in one transaction and sets ID and PubDate.
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	// UpdateRecipe rewrites the scalar columns and replaces the ingredient
	// and tag associations by delete-then-insert, in one transaction.
	UpdateRecipe(ctx context.Context, recipe *model.Recipe) error
	GetRecipeByID(ctx context.Context, id model.RecipeID) (*model.Recipe, error)
	ListRecipes(ctx context.Context, filter RecipeFilter) ([]model.Recipe, error)
	CountRecipesByAuthor(ctx context.Context, authorID model.UserID) (int, error)
	DeleteRecipe(ctx context.Context, id model.RecipeID) error
}

// CollectionRepository stores favorites and shopping-cart membership.
type CollectionRepository interface {
	AddToCollection(ctx context.Context, c model.Collection, userID model.UserID, recipeID model.RecipeID) error
	RemoveFromCollection(ctx context.Context, c model.Collection, userID model.UserID, recipeID model.RecipeID) error
	// InCollection reports, for each given recipe, whether it is in the
	// user's collection. Recipes not in it are absent from the map.
	InCollection(ctx context.Context, c model.Collection, userID model.UserID, recipeIDs []model.RecipeID) (map[model.RecipeID]bool, error)
	// CartIngredients returns one row per (recipe, ingredient) occurrence
	// across every recipe in the user's shopping cart.
	CartIngredients(ctx context.Context, userID model.UserID) ([]model.CartIngredient, error)
}

type FollowRepository interface {
	Follow(ctx context.Context, userID, authorID model.UserID) error
	Unfollow(ctx context.Context, userID, authorID model.UserID) error
	// Following lists the authors the user follows, oldest follow first.
	Following(ctx context.Context, userID model.UserID) ([]model.User, error)
	FollowedAmong(ctx context.Context, userID model.UserID, authorIDs []model.UserID) (map[model.UserID]bool, error)
}
