package model

// Read views. They pair stored entities with flags that depend on who is
// looking; an anonymous viewer always gets false flags.

// UserView is a user as seen by a particular viewer.
type UserView struct {
	User         User
	IsSubscribed bool
}

// RecipeView is a recipe as seen by a particular viewer.
type RecipeView struct {
	Recipe           Recipe
	AuthorSubscribed bool
	IsFavorited      bool
	IsInShoppingCart bool
}

// Subscription is a followed author with a (possibly truncated) list of
// their recipes, newest first, and their total recipe count.
type Subscription struct {
	Author       UserView
	Recipes      []Recipe
	RecipesCount int
}
