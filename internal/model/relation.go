package model

// Collection names a per-user set of recipes. A recipe is either in a
// user's collection or not; there is no other state.
type Collection string

const (
	// Favorites holds recipes the user bookmarked.
	Favorites Collection = "favorites"
	// ShoppingCart holds recipes the user plans to buy ingredients for.
	ShoppingCart Collection = "shopping_cart"
)

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	return c == Favorites || c == ShoppingCart
}

// CartIngredient is one (recipe, ingredient) occurrence contributed by a
// recipe in a user's shopping cart.
type CartIngredient struct {
	Name            string
	MeasurementUnit string
	Amount          int
}
