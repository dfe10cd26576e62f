package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

type IngredientService struct {
	ingredients repository.IngredientRepository
	logger      *slog.Logger
}

func NewIngredientService(ingredients repository.IngredientRepository, logger *slog.Logger) *IngredientService {
	return &IngredientService{ingredients: ingredients, logger: logger}
}

// List returns ingredients whose name starts with prefix, case-insensitively.
func (s *IngredientService) List(ctx context.Context, prefix string) ([]model.Ingredient, error) {
	ings, err := s.ingredients.ListIngredients(ctx, strings.TrimSpace(prefix))
	if err != nil {
		logFailure(s.logger, "failed to list ingredients", err, slog.String("prefix", prefix))
		return nil, fmt.Errorf("listing ingredients: %w", err)
	}
	return ings, nil
}

func (s *IngredientService) Get(ctx context.Context, id model.IngredientID) (*model.Ingredient, error) {
	return s.ingredients.GetIngredientByID(ctx, id)
}

// Create stores an ingredient. Name/unit pairs need not be unique.
func (s *IngredientService) Create(ctx context.Context, name, unit string) (*model.Ingredient, error) {
	errs := fieldErrors{}
	name = requireText(errs, "name", name, MaxNameLength)
	unit = requireText(errs, "measurement_unit", unit, MaxUnitLength)
	if err := errs.err(); err != nil {
		return nil, err
	}

	ing := &model.Ingredient{Name: name, MeasurementUnit: unit}
	if err := s.ingredients.CreateIngredient(ctx, ing); err != nil {
		logFailure(s.logger, "failed to create ingredient", err, slog.String("name", name))
		return nil, fmt.Errorf("creating ingredient: %w", err)
	}

	s.logger.Info("ingredient created",
		slog.Int64("ingredient_id", int64(ing.ID)),
		slog.String("name", ing.Name),
		slog.String("unit", ing.MeasurementUnit),
	)
	return ing, nil
}
