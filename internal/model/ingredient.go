package model

// IngredientID identifies an ingredient.
type IngredientID int64

// Ingredient is a catalogue entry. Name and unit are not unique: two rows may
// share both, and the shopping list merges them.
type Ingredient struct {
	ID              IngredientID `json:"id"`
	Name            string       `json:"name"`
	MeasurementUnit string       `json:"measurementUnit"`
}
