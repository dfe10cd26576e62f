// Package dto holds the JSON shapes of the HTTP API and the mapping between
// them and the service layer.
//
// Request structs carry validator tags for shape checks (presence, lengths,
// ranges). Rules that need the store, such as unknown ids or ownership, are
// the services' job.
package dto

import (
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/service"
)

// TagRequest is the body of POST /api/tags/. Slug may be omitted.
type TagRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor,len=7"`
	Slug  string `json:"slug" validate:"omitempty,max=50"`
}

func (r TagRequest) ToInput() service.NewTag {
	return service.NewTag{Name: r.Name, Color: r.Color, Slug: r.Slug}
}

// IngredientRequest is the body of POST /api/ingredients/.
type IngredientRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=10"`
}

// IngredientAmountRequest is one element of a recipe's "ingredients".
type IngredientAmountRequest struct {
	ID     int64 `json:"id" validate:"required,gt=0"`
	Amount int   `json:"amount" validate:"gte=1,lte=32767"`
}

// RecipeRequest is the body of POST and PUT /api/recipes/. Every field is
// required; an empty ingredients or tags list is allowed and clears it.
type RecipeRequest struct {
	Ingredients []IngredientAmountRequest `json:"ingredients" validate:"required,dive"`
	Tags        []int64                   `json:"tags" validate:"required,dive,gt=0"`
	Image       *string                   `json:"image" validate:"required"`
	Name        *string                   `json:"name" validate:"required,max=200"`
	Text        *string                   `json:"text" validate:"required"`
	CookingTime *int                      `json:"cooking_time" validate:"required,gte=1"`
}

func (r RecipeRequest) ToInput() service.RecipeInput {
	return service.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		Image:       r.Image,
		CookingTime: r.CookingTime,
		Ingredients: ingredientAmounts(r.Ingredients),
		Tags:        tagIDs(r.Tags),
	}
}

// RecipePatchRequest is the body of PATCH /api/recipes/{id}/. Omitted
// fields keep their stored value.
type RecipePatchRequest struct {
	Ingredients []IngredientAmountRequest `json:"ingredients" validate:"omitempty,dive"`
	Tags        []int64                   `json:"tags" validate:"omitempty,dive,gt=0"`
	Image       *string                   `json:"image"`
	Name        *string                   `json:"name" validate:"omitempty,max=200"`
	Text        *string                   `json:"text"`
	CookingTime *int                      `json:"cooking_time" validate:"omitempty,gte=1"`
}

func (r RecipePatchRequest) ToInput() service.RecipeInput {
	return service.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		Image:       r.Image,
		CookingTime: r.CookingTime,
		Ingredients: ingredientAmounts(r.Ingredients),
		Tags:        tagIDs(r.Tags),
	}
}

// ingredientAmounts keeps nil as nil so "absent" and "[]" stay distinct.
func ingredientAmounts(in []IngredientAmountRequest) []service.IngredientAmount {
	if in == nil {
		return nil
	}
	out := make([]service.IngredientAmount, len(in))
	for i, a := range in {
		out[i] = service.IngredientAmount{ID: model.IngredientID(a.ID), Amount: a.Amount}
	}
	return out
}

func tagIDs(in []int64) []model.TagID {
	if in == nil {
		return nil
	}
	out := make([]model.TagID, len(in))
	for i, id := range in {
		out[i] = model.TagID(id)
	}
	return out
}
