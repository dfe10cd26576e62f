package dto

import (
	"time"

	"github.com/sakif/foodgram/internal/model"
)

type UserResponse struct {
	Email        string `json:"email"`
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type TagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// RecipeIngredientResponse is an ingredient with the amount one recipe uses.
type RecipeIngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeResponse struct {
	ID               int64                      `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
	PubDate          time.Time                  `json:"pub_date"`
}

// ShortRecipeResponse is the compact recipe used by favorites, the
// shopping cart and subscriptions.
type ShortRecipeResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionResponse is a followed author with their newest recipes.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []ShortRecipeResponse `json:"recipes"`
	RecipesCount int                   `json:"recipes_count"`
}

func NewUserResponse(v model.UserView) UserResponse {
	return UserResponse{
		Email:        v.User.Email,
		ID:           int64(v.User.ID),
		Username:     v.User.Username,
		FirstName:    v.User.FirstName,
		LastName:     v.User.LastName,
		IsSubscribed: v.IsSubscribed,
	}
}

func NewUserResponses(views []model.UserView) []UserResponse {
	out := make([]UserResponse, len(views))
	for i, v := range views {
		out[i] = NewUserResponse(v)
	}
	return out
}

func NewTagResponse(t model.Tag) TagResponse {
	return TagResponse{ID: int64(t.ID), Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func NewTagResponses(tags []model.Tag) []TagResponse {
	out := make([]TagResponse, len(tags))
	for i, t := range tags {
		out[i] = NewTagResponse(t)
	}
	return out
}

func NewIngredientResponse(ing model.Ingredient) IngredientResponse {
	return IngredientResponse{ID: int64(ing.ID), Name: ing.Name, MeasurementUnit: ing.MeasurementUnit}
}

func NewIngredientResponses(ings []model.Ingredient) []IngredientResponse {
	out := make([]IngredientResponse, len(ings))
	for i, ing := range ings {
		out[i] = NewIngredientResponse(ing)
	}
	return out
}

// NewRecipeResponse flattens a view. A recipe whose author was not loaded
// gets an author holding only the id.
func NewRecipeResponse(v model.RecipeView) RecipeResponse {
	r := v.Recipe
	author := model.User{ID: r.AuthorID}
	if r.Author != nil {
		author = *r.Author
	}

	items := make([]RecipeIngredientResponse, len(r.Ingredients))
	for i, ri := range r.Ingredients {
		items[i] = RecipeIngredientResponse{
			ID:              int64(ri.IngredientID),
			Name:            ri.Name,
			MeasurementUnit: ri.MeasurementUnit,
			Amount:          ri.Amount,
		}
	}

	return RecipeResponse{
		ID:               int64(r.ID),
		Tags:             NewTagResponses(r.Tags),
		Author:           NewUserResponse(model.UserView{User: author, IsSubscribed: v.AuthorSubscribed}),
		Ingredients:      items,
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		PubDate:          r.PubDate,
	}
}

func NewRecipeResponses(views []model.RecipeView) []RecipeResponse {
	out := make([]RecipeResponse, len(views))
	for i, v := range views {
		out[i] = NewRecipeResponse(v)
	}
	return out
}

func NewShortRecipeResponse(r model.Recipe) ShortRecipeResponse {
	return ShortRecipeResponse{ID: int64(r.ID), Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

func NewSubscriptionResponse(s model.Subscription) SubscriptionResponse {
	recipes := make([]ShortRecipeResponse, len(s.Recipes))
	for i, r := range s.Recipes {
		recipes[i] = NewShortRecipeResponse(r)
	}
	return SubscriptionResponse{
		UserResponse: NewUserResponse(s.Author),
		Recipes:      recipes,
		RecipesCount: s.RecipesCount,
	}
}

func NewSubscriptionResponses(subs []model.Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, len(subs))
	for i, s := range subs {
		out[i] = NewSubscriptionResponse(s)
	}
	return out
}
