package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// IngredientAmount is one {id, amount} pair of a recipe write.
type IngredientAmount struct {
	ID     model.IngredientID
	Amount int
}

// RecipeInput carries a recipe write. Create requires every field. Update
// leaves nil fields unchanged; note that an empty non-nil Ingredients or
// Tags slice clears the list.
type RecipeInput struct {
	Name        *string
	Text        *string
	Image       *string
	CookingTime *int
	Ingredients []IngredientAmount
	Tags        []model.TagID
}

// RecipeQuery holds the list filters. Nil flags are not applied.
type RecipeQuery struct {
	TagSlugs       []string
	Author         model.UserID
	Favorited      *bool
	InShoppingCart *bool
	Search         string
}

type RecipeService struct {
	recipes     repository.RecipeRepository
	users       repository.UserRepository
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	collections repository.CollectionRepository
	follows     repository.FollowRepository
	logger      *slog.Logger
}

func NewRecipeService(
	recipes repository.RecipeRepository,
	users repository.UserRepository,
	tags repository.TagRepository,
	ingredients repository.IngredientRepository,
	collections repository.CollectionRepository,
	follows repository.FollowRepository,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		users:       users,
		tags:        tags,
		ingredients: ingredients,
		collections: collections,
		follows:     follows,
		logger:      logger,
	}
}

// Create publishes a recipe by authorID and returns it as the author sees it.
func (s *RecipeService) Create(ctx context.Context, authorID model.UserID, in RecipeInput) (*model.RecipeView, error) {
	if authorID == 0 {
		return nil, apperror.Unauthorized("authentication required")
	}

	errs := fieldErrors{}
	for field, missing := range map[string]bool{
		"name":         in.Name == nil,
		"text":         in.Text == nil,
		"image":        in.Image == nil,
		"cooking_time": in.CookingTime == nil,
		"ingredients":  in.Ingredients == nil,
		"tags":         in.Tags == nil,
	} {
		if missing {
			errs.add(field, "this field is required")
		}
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	recipe := &model.Recipe{AuthorID: authorID}
	if err := s.apply(ctx, recipe, in); err != nil {
		return nil, err
	}

	if err := s.recipes.CreateRecipe(ctx, recipe); err != nil {
		logFailure(s.logger, "failed to create recipe", err, slog.Int64("author_id", int64(authorID)))
		return nil, fmt.Errorf("creating recipe: %w", err)
	}

	s.logger.Info("recipe created",
		slog.Int64("recipe_id", int64(recipe.ID)),
		slog.Int64("author_id", int64(authorID)),
		slog.String("name", recipe.Name),
	)
	return s.Get(ctx, authorID, recipe.ID)
}

// Update changes the fields present in in. Only the author or an admin may
// update; the ingredient and tag lists are replaced wholesale when given.
func (s *RecipeService) Update(ctx context.Context, callerID model.UserID, id model.RecipeID, in RecipeInput) (*model.RecipeView, error) {
	recipe, err := s.recipes.GetRecipeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, callerID, recipe); err != nil {
		return nil, err
	}

	if err := s.apply(ctx, recipe, in); err != nil {
		return nil, err
	}

	if err := s.recipes.UpdateRecipe(ctx, recipe); err != nil {
		logFailure(s.logger, "failed to update recipe", err, slog.Int64("recipe_id", int64(id)))
		return nil, fmt.Errorf("updating recipe %d: %w", id, err)
	}

	s.logger.Info("recipe updated",
		slog.Int64("recipe_id", int64(id)),
		slog.Int64("by", int64(callerID)),
	)
	return s.Get(ctx, callerID, id)
}

// Delete removes a recipe. Only the author or an admin may delete.
func (s *RecipeService) Delete(ctx context.Context, callerID model.UserID, id model.RecipeID) error {
	recipe, err := s.recipes.GetRecipeByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, callerID, recipe); err != nil {
		return err
	}

	if err := s.recipes.DeleteRecipe(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete recipe", err, slog.Int64("recipe_id", int64(id)))
		return fmt.Errorf("deleting recipe %d: %w", id, err)
	}

	s.logger.Info("recipe deleted",
		slog.Int64("recipe_id", int64(id)),
		slog.Int64("by", int64(callerID)),
	)
	return nil
}

func (s *RecipeService) Get(ctx context.Context, viewer model.UserID, id model.RecipeID) (*model.RecipeView, error) {
	recipe, err := s.recipes.GetRecipeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, viewer, []model.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns recipes newest first, filtered by q. The favorite and cart
// filters refer to viewer's own collections.
func (s *RecipeService) List(ctx context.Context, viewer model.UserID, q RecipeQuery) ([]model.RecipeView, error) {
	recipes, err := s.recipes.ListRecipes(ctx, repository.RecipeFilter{
		TagSlugs:       q.TagSlugs,
		AuthorID:       q.Author,
		Viewer:         viewer,
		Favorited:      q.Favorited,
		InShoppingCart: q.InShoppingCart,
		Search:         strings.TrimSpace(q.Search),
	})
	if err != nil {
		logFailure(s.logger, "failed to list recipes", err)
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	return s.views(ctx, viewer, recipes)
}

// views attaches the viewer's favorite, cart and subscription flags.
func (s *RecipeService) views(ctx context.Context, viewer model.UserID, recipes []model.Recipe) ([]model.RecipeView, error) {
	views := make([]model.RecipeView, len(recipes))
	for i := range recipes {
		views[i].Recipe = recipes[i]
	}
	if viewer == 0 || len(recipes) == 0 {
		return views, nil
	}

	ids := make([]model.RecipeID, len(recipes))
	authors := make([]model.UserID, 0, len(recipes))
	seen := make(map[model.UserID]bool)
	for i, r := range recipes {
		ids[i] = r.ID
		if !seen[r.AuthorID] {
			seen[r.AuthorID] = true
			authors = append(authors, r.AuthorID)
		}
	}

	favorited, err := s.collections.InCollection(ctx, model.Favorites, viewer, ids)
	if err != nil {
		return nil, fmt.Errorf("loading favorites: %w", err)
	}
	inCart, err := s.collections.InCollection(ctx, model.ShoppingCart, viewer, ids)
	if err != nil {
		return nil, fmt.Errorf("loading shopping cart: %w", err)
	}
	followed, err := s.follows.FollowedAmong(ctx, viewer, authors)
	if err != nil {
		return nil, fmt.Errorf("loading follows: %w", err)
	}

	for i := range views {
		r := &views[i].Recipe
		views[i].IsFavorited = favorited[r.ID]
		views[i].IsInShoppingCart = inCart[r.ID]
		views[i].AuthorSubscribed = followed[r.AuthorID]
	}
	return views, nil
}

// authorize allows the recipe's author and admins.
func (s *RecipeService) authorize(ctx context.Context, callerID model.UserID, recipe *model.Recipe) error {
	if callerID == 0 {
		return apperror.Unauthorized("authentication required")
	}
	if recipe.AuthorID == callerID {
		return nil
	}

	caller, err := s.users.GetUserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Unauthorized("account no longer exists")
		}
		return fmt.Errorf("loading caller %d: %w", callerID, err)
	}
	if caller.IsAdmin {
		return nil
	}
	return apperror.Forbidden("only the author can change this recipe")
}

// apply validates the fields present in in and copies them onto recipe.
// Ingredient and tag ids are checked against the store.
func (s *RecipeService) apply(ctx context.Context, recipe *model.Recipe, in RecipeInput) error {
	errs := fieldErrors{}

	if in.Name != nil {
		recipe.Name = requireText(errs, "name", *in.Name, MaxNameLength)
	}
	if in.Text != nil {
		recipe.Text = requireText(errs, "text", *in.Text, 0)
	}
	if in.Image != nil {
		recipe.Image = requireText(errs, "image", *in.Image, 0)
	}
	if in.CookingTime != nil {
		if *in.CookingTime < 1 {
			errs.add("cooking_time", "cooking time must be at least 1 minute")
		}
		recipe.CookingTime = *in.CookingTime
	}

	if in.Ingredients != nil {
		items, msg, err := s.checkIngredients(ctx, in.Ingredients)
		if err != nil {
			return err
		}
		if msg != "" {
			errs.add("ingredients", msg)
		} else {
			recipe.Ingredients = items
		}
	}

	if in.Tags != nil {
		tags, msg, err := s.checkTags(ctx, in.Tags)
		if err != nil {
			return err
		}
		if msg != "" {
			errs.add("tags", msg)
		} else {
			recipe.Tags = tags
		}
	}

	return errs.err()
}

// checkIngredients returns the recipe rows for in, or a message for
// amounts outside [1, model.MaxAmount], repeated ids or unknown ids.
func (s *RecipeService) checkIngredients(ctx context.Context, in []IngredientAmount) ([]model.RecipeIngredient, string, error) {
	seen := make(map[model.IngredientID]bool, len(in))
	var dups []model.IngredientID
	for _, a := range in {
		if a.Amount < 1 || a.Amount > model.MaxAmount {
			return nil, fmt.Sprintf("amount of ingredient %d must be between 1 and %d", a.ID, model.MaxAmount), nil
		}
		if seen[a.ID] {
			dups = append(dups, a.ID)
		}
		seen[a.ID] = true
	}
	if len(dups) > 0 {
		return nil, fmt.Sprintf("ingredients must not repeat: %s", joinIDs(dups)), nil
	}

	ids := make([]model.IngredientID, len(in))
	items := make([]model.RecipeIngredient, len(in))
	for i, a := range in {
		ids[i] = a.ID
		items[i] = model.RecipeIngredient{IngredientID: a.ID, Amount: a.Amount}
	}

	missing, err := s.ingredients.MissingIngredients(ctx, ids)
	if err != nil {
		return nil, "", fmt.Errorf("checking ingredients: %w", err)
	}
	if len(missing) > 0 {
		return nil, fmt.Sprintf("unknown ingredient ids: %s", joinIDs(missing)), nil
	}
	return items, "", nil
}

// checkTags returns the tags for ids, or a message for repeated or
// unknown ids.
func (s *RecipeService) checkTags(ctx context.Context, ids []model.TagID) ([]model.Tag, string, error) {
	seen := make(map[model.TagID]bool, len(ids))
	var dups []model.TagID
	for _, id := range ids {
		if seen[id] {
			dups = append(dups, id)
		}
		seen[id] = true
	}
	if len(dups) > 0 {
		return nil, fmt.Sprintf("tags must not repeat: %s", joinIDs(dups)), nil
	}

	missing, err := s.tags.MissingTags(ctx, ids)
	if err != nil {
		return nil, "", fmt.Errorf("checking tags: %w", err)
	}
	if len(missing) > 0 {
		return nil, fmt.Sprintf("unknown tag ids: %s", joinIDs(missing)), nil
	}

	tags := make([]model.Tag, len(ids))
	for i, id := range ids {
		tags[i] = model.Tag{ID: id}
	}
	return tags, "", nil
}
