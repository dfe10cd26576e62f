package model

import "time"

// RecipeID identifies a recipe.
type RecipeID int64

// Recipe is a dish published by an author.
//
// Author, Tags and Ingredients are hydrated by the repository on reads. On
// writes only AuthorID, Tags[].ID and Ingredients[].IngredientID/Amount are
// consulted.
type Recipe struct {
	ID          RecipeID           `json:"id"`
	AuthorID    UserID             `json:"authorId"`
	Author      *User              `json:"author,omitempty"`
	Name        string             `json:"name"`
	Text        string             `json:"text"`
	Image       string             `json:"image"`
	CookingTime int                `json:"cookingTime"`
	PubDate     time.Time          `json:"pubDate"`
	Tags        []Tag              `json:"tags"`
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// MaxAmount caps a single ingredient amount. It matches the schema's CHECK
// and keeps shopping-list sums far from integer overflow.
const MaxAmount = 32767

// RecipeIngredient is the amount of one ingredient used by one recipe.
// (recipe, ingredient) is unique and Amount is in [1, MaxAmount].
type RecipeIngredient struct {
	IngredientID    IngredientID `json:"id"`
	Name            string       `json:"name"`
	MeasurementUnit string       `json:"measurementUnit"`
	Amount          int          `json:"amount"`
}

// TagIDs returns the ids of the recipe's tags in order.
func (r *Recipe) TagIDs() []TagID {
	ids := make([]TagID, 0, len(r.Tags))
	for _, t := range r.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}
