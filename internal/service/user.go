package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// UserService serves user profiles and subscriptions.
type UserService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	recipes repository.RecipeRepository
	logger  *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	recipes repository.RecipeRepository,
	logger *slog.Logger,
) *UserService {
	return &UserService{users: users, follows: follows, recipes: recipes, logger: logger}
}

// List returns every user with IsSubscribed set for viewer.
func (s *UserService) List(ctx context.Context, viewer model.UserID) ([]model.UserView, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		logFailure(s.logger, "failed to list users", err)
		return nil, fmt.Errorf("listing users: %w", err)
	}

	ids := make([]model.UserID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	followed, err := s.follows.FollowedAmong(ctx, viewer, ids)
	if err != nil {
		return nil, fmt.Errorf("loading follows: %w", err)
	}

	views := make([]model.UserView, len(users))
	for i, u := range users {
		views[i] = model.UserView{User: u, IsSubscribed: followed[u.ID]}
	}
	return views, nil
}

func (s *UserService) Get(ctx context.Context, viewer, id model.UserID) (*model.UserView, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewer, *user)
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, viewer model.UserID) (*model.UserView, error) {
	if viewer == 0 {
		return nil, apperror.Unauthorized("authentication required")
	}
	return s.Get(ctx, viewer, viewer)
}

func (s *UserService) view(ctx context.Context, viewer model.UserID, u model.User) (*model.UserView, error) {
	followed, err := s.follows.FollowedAmong(ctx, viewer, []model.UserID{u.ID})
	if err != nil {
		return nil, fmt.Errorf("loading follows: %w", err)
	}
	return &model.UserView{User: u, IsSubscribed: followed[u.ID]}, nil
}

// Subscribe makes viewer follow authorID and returns the new subscription.
// Self-follows and repeats are rejected by the store.
//
// recipesLimit caps the embedded recipe list; nil means no cap.
func (s *UserService) Subscribe(ctx context.Context, viewer, authorID model.UserID, recipesLimit *int) (*model.Subscription, error) {
	if err := checkRecipesLimit(recipesLimit); err != nil {
		return nil, err
	}
	author, err := s.users.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	if err := s.follows.Follow(ctx, viewer, authorID); err != nil {
		logFailure(s.logger, "failed to follow", err,
			slog.Int64("user_id", int64(viewer)), slog.Int64("author_id", int64(authorID)))
		return nil, fmt.Errorf("subscribing to user %d: %w", authorID, err)
	}

	s.logger.Info("subscribed",
		slog.Int64("user_id", int64(viewer)),
		slog.Int64("author_id", int64(authorID)),
	)

	sub, err := s.subscription(ctx, *author, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *UserService) Unsubscribe(ctx context.Context, viewer, authorID model.UserID) error {
	if _, err := s.users.GetUserByID(ctx, authorID); err != nil {
		return err
	}
	if err := s.follows.Unfollow(ctx, viewer, authorID); err != nil {
		logFailure(s.logger, "failed to unfollow", err,
			slog.Int64("user_id", int64(viewer)), slog.Int64("author_id", int64(authorID)))
		return fmt.Errorf("unsubscribing from user %d: %w", authorID, err)
	}
	s.logger.Info("unsubscribed",
		slog.Int64("user_id", int64(viewer)),
		slog.Int64("author_id", int64(authorID)),
	)
	return nil
}

// Subscriptions lists the authors viewer follows, oldest subscription first.
func (s *UserService) Subscriptions(ctx context.Context, viewer model.UserID, recipesLimit *int) ([]model.Subscription, error) {
	if err := checkRecipesLimit(recipesLimit); err != nil {
		return nil, err
	}
	authors, err := s.follows.Following(ctx, viewer)
	if err != nil {
		logFailure(s.logger, "failed to list subscriptions", err, slog.Int64("user_id", int64(viewer)))
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}

	subs := make([]model.Subscription, 0, len(authors))
	for _, a := range authors {
		sub, err := s.subscription(ctx, a, recipesLimit)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// subscription builds the projection of a followed author. The viewer
// follows them by definition, so IsSubscribed is always true.
func (s *UserService) subscription(ctx context.Context, author model.User, recipesLimit *int) (model.Subscription, error) {
	count, err := s.recipes.CountRecipesByAuthor(ctx, author.ID)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("counting recipes of user %d: %w", author.ID, err)
	}

	recipes := []model.Recipe{}
	if recipesLimit == nil || *recipesLimit > 0 {
		filter := repository.RecipeFilter{AuthorID: author.ID}
		if recipesLimit != nil {
			filter.Limit = *recipesLimit
		}
		recipes, err = s.recipes.ListRecipes(ctx, filter)
		if err != nil {
			return model.Subscription{}, fmt.Errorf("listing recipes of user %d: %w", author.ID, err)
		}
	}

	return model.Subscription{
		Author:       model.UserView{User: author, IsSubscribed: true},
		Recipes:      recipes,
		RecipesCount: count,
	}, nil
}

func checkRecipesLimit(limit *int) error {
	if limit != nil && *limit < 0 {
		return apperror.ValidationFailed("recipes_limit", "must be a non-negative integer")
	}
	return nil
}
