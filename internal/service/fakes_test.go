package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// =========================================================================
// IN-MEMORY STORE
// =========================================================================
//
// fakeStore implements every repository interface on plain maps, with the
// same error contract as the SQLite implementation. Set failWith to make
// every call return that error, simulating a broken database.

var errStoreDown = errors.New("database is locked")

type pair struct{ a, b int64 }

type fakeStore struct {
	users       map[model.UserID]model.User
	tags        map[model.TagID]model.Tag
	ingredients map[model.IngredientID]model.Ingredient
	recipes     map[model.RecipeID]model.Recipe
	collections map[model.Collection]map[pair]int // (user, recipe) -> insertion seq
	follows     map[pair]int                      // (user, author) -> insertion seq

	seq      int
	clock    time.Time
	failWith error
}

var (
	_ repository.UserRepository       = (*fakeStore)(nil)
	_ repository.TagRepository        = (*fakeStore)(nil)
	_ repository.IngredientRepository = (*fakeStore)(nil)
	_ repository.RecipeRepository     = (*fakeStore)(nil)
	_ repository.CollectionRepository = (*fakeStore)(nil)
	_ repository.FollowRepository     = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[model.UserID]model.User),
		tags:        make(map[model.TagID]model.Tag),
		ingredients: make(map[model.IngredientID]model.Ingredient),
		recipes:     make(map[model.RecipeID]model.Recipe),
		collections: map[model.Collection]map[pair]int{
			model.Favorites:    {},
			model.ShoppingCart: {},
		},
		follows: make(map[pair]int),
		clock:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) next() int64 {
	f.seq++
	return int64(f.seq)
}

func idStr[T ~int64](id T) string { return strconv.FormatInt(int64(id), 10) }

// ---- users ----

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperror.Duplicate("email", "a user with this email already exists")
		}
	}
	u.ID = model.UserID(f.next())
	u.CreatedAt = f.clock
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id model.UserID) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", idStr(id))
	}
	return &u, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "no user with this email"}
}

func (f *fakeStore) ListUsers(_ context.Context) ([]model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.User{}
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id model.UserID) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", idStr(id))
	}
	delete(f.users, id)
	for rid, r := range f.recipes {
		if r.AuthorID == id {
			f.dropRecipe(rid)
		}
	}
	for _, rows := range f.collections {
		for k := range rows {
			if k.a == int64(id) {
				delete(rows, k)
			}
		}
	}
	for k := range f.follows {
		if k.a == int64(id) || k.b == int64(id) {
			delete(f.follows, k)
		}
	}
	return nil
}

// ---- tags ----

func (f *fakeStore) CreateTag(_ context.Context, t *model.Tag) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.tags {
		switch {
		case existing.Name == t.Name:
			return apperror.Duplicate("name", "a tag with this name already exists")
		case existing.Color == t.Color:
			return apperror.Duplicate("color", "a tag with this color already exists")
		case existing.Slug == t.Slug:
			return apperror.Duplicate("slug", "a tag with this slug already exists")
		}
	}
	t.ID = model.TagID(f.next())
	f.tags[t.ID] = *t
	return nil
}

func (f *fakeStore) GetTagByID(_ context.Context, id model.TagID) (*model.Tag, error) {
	t, ok := f.tags[id]
	if !ok {
		return nil, apperror.NotFound("tag", idStr(id))
	}
	return &t, nil
}

func (f *fakeStore) ListTags(_ context.Context) ([]model.Tag, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Tag{}
	for _, t := range f.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) MissingTags(_ context.Context, ids []model.TagID) ([]model.TagID, error) {
	var missing []model.TagID
	for _, id := range ids {
		if _, ok := f.tags[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// ---- ingredients ----

func (f *fakeStore) CreateIngredient(_ context.Context, ing *model.Ingredient) error {
	if f.failWith != nil {
		return f.failWith
	}
	ing.ID = model.IngredientID(f.next())
	f.ingredients[ing.ID] = *ing
	return nil
}

func (f *fakeStore) GetIngredientByID(_ context.Context, id model.IngredientID) (*model.Ingredient, error) {
	ing, ok := f.ingredients[id]
	if !ok {
		return nil, apperror.NotFound("ingredient", idStr(id))
	}
	return &ing, nil
}

func (f *fakeStore) ListIngredients(_ context.Context, prefix string) ([]model.Ingredient, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Ingredient{}
	for _, ing := range f.ingredients {
		if strings.HasPrefix(strings.ToLower(ing.Name), strings.ToLower(prefix)) {
			out = append(out, ing)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (f *fakeStore) MissingIngredients(_ context.Context, ids []model.IngredientID) ([]model.IngredientID, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var missing []model.IngredientID
	for _, id := range ids {
		if _, ok := f.ingredients[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// ---- recipes ----

// hydrate fills names the way the SQL joins would.
func (f *fakeStore) hydrate(r model.Recipe) model.Recipe {
	if u, ok := f.users[r.AuthorID]; ok {
		r.Author = &u
	}
	tags := make([]model.Tag, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, f.tags[t.ID])
	}
	r.Tags = tags
	items := make([]model.RecipeIngredient, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		ing := f.ingredients[ri.IngredientID]
		ri.Name, ri.MeasurementUnit = ing.Name, ing.MeasurementUnit
		items = append(items, ri)
	}
	r.Ingredients = items
	return r
}

func (f *fakeStore) CreateRecipe(_ context.Context, r *model.Recipe) error {
	if f.failWith != nil {
		return f.failWith
	}
	r.ID = model.RecipeID(f.next())
	f.clock = f.clock.Add(time.Minute)
	r.PubDate = f.clock
	stored := *r
	stored.Ingredients = append([]model.RecipeIngredient(nil), r.Ingredients...)
	stored.Tags = append([]model.Tag(nil), r.Tags...)
	f.recipes[r.ID] = stored
	return nil
}

func (f *fakeStore) UpdateRecipe(_ context.Context, r *model.Recipe) error {
	if f.failWith != nil {
		return f.failWith
	}
	old, ok := f.recipes[r.ID]
	if !ok {
		return apperror.NotFound("recipe", idStr(r.ID))
	}
	stored := *r
	stored.PubDate = old.PubDate
	stored.AuthorID = old.AuthorID
	stored.Ingredients = append([]model.RecipeIngredient(nil), r.Ingredients...)
	stored.Tags = append([]model.Tag(nil), r.Tags...)
	f.recipes[r.ID] = stored
	return nil
}

func (f *fakeStore) GetRecipeByID(_ context.Context, id model.RecipeID) (*model.Recipe, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	r, ok := f.recipes[id]
	if !ok {
		return nil, apperror.NotFound("recipe", idStr(id))
	}
	r = f.hydrate(r)
	return &r, nil
}

func (f *fakeStore) ListRecipes(_ context.Context, filter repository.RecipeFilter) ([]model.Recipe, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Recipe{}
	for _, r := range f.recipes {
		if filter.AuthorID != 0 && r.AuthorID != filter.AuthorID {
			continue
		}
		if len(filter.TagSlugs) > 0 && !f.hasAnyTag(r, filter.TagSlugs) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
			continue
		}
		key := pair{int64(filter.Viewer), int64(r.ID)}
		if filter.Favorited != nil {
			_, in := f.collections[model.Favorites][key]
			if in != *filter.Favorited {
				continue
			}
		}
		if filter.InShoppingCart != nil {
			_, in := f.collections[model.ShoppingCart][key]
			if in != *filter.InShoppingCart {
				continue
			}
		}
		out = append(out, f.hydrate(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeStore) hasAnyTag(r model.Recipe, slugs []string) bool {
	for _, t := range r.Tags {
		for _, s := range slugs {
			if f.tags[t.ID].Slug == s {
				return true
			}
		}
	}
	return false
}

func (f *fakeStore) CountRecipesByAuthor(_ context.Context, authorID model.UserID) (int, error) {
	n := 0
	for _, r := range f.recipes {
		if r.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteRecipe(_ context.Context, id model.RecipeID) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.recipes[id]; !ok {
		return apperror.NotFound("recipe", idStr(id))
	}
	f.dropRecipe(id)
	return nil
}

func (f *fakeStore) dropRecipe(id model.RecipeID) {
	delete(f.recipes, id)
	for _, rows := range f.collections {
		for k := range rows {
			if k.b == int64(id) {
				delete(rows, k)
			}
		}
	}
}

// ---- collections ----

func (f *fakeStore) AddToCollection(_ context.Context, c model.Collection, userID model.UserID, recipeID model.RecipeID) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.recipes[recipeID]; !ok {
		return apperror.NotFound("recipe", idStr(recipeID))
	}
	key := pair{int64(userID), int64(recipeID)}
	if _, ok := f.collections[c][key]; ok {
		return apperror.Duplicate("recipe", fmt.Sprintf("recipe is already in %s", c))
	}
	f.collections[c][key] = int(f.next())
	return nil
}

func (f *fakeStore) RemoveFromCollection(_ context.Context, c model.Collection, userID model.UserID, recipeID model.RecipeID) error {
	if f.failWith != nil {
		return f.failWith
	}
	key := pair{int64(userID), int64(recipeID)}
	if _, ok := f.collections[c][key]; !ok {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "recipe is not in " + string(c)}
	}
	delete(f.collections[c], key)
	return nil
}

func (f *fakeStore) InCollection(_ context.Context, c model.Collection, userID model.UserID, ids []model.RecipeID) (map[model.RecipeID]bool, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make(map[model.RecipeID]bool)
	for _, id := range ids {
		if _, ok := f.collections[c][pair{int64(userID), int64(id)}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeStore) CartIngredients(_ context.Context, userID model.UserID) ([]model.CartIngredient, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	type entry struct {
		seq int
		id  model.RecipeID
	}
	var entries []entry
	for k, seq := range f.collections[model.ShoppingCart] {
		if k.a == int64(userID) {
			entries = append(entries, entry{seq, model.RecipeID(k.b)})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	items := []model.CartIngredient{}
	for _, e := range entries {
		for _, ri := range f.hydrate(f.recipes[e.id]).Ingredients {
			items = append(items, model.CartIngredient{Name: ri.Name, MeasurementUnit: ri.MeasurementUnit, Amount: ri.Amount})
		}
	}
	return items, nil
}

// ---- follows ----

func (f *fakeStore) Follow(_ context.Context, userID, authorID model.UserID) error {
	if f.failWith != nil {
		return f.failWith
	}
	if userID == authorID {
		return apperror.ValidationFailed("author", "you cannot subscribe to yourself")
	}
	if _, ok := f.users[authorID]; !ok {
		return apperror.NotFound("user", idStr(authorID))
	}
	key := pair{int64(userID), int64(authorID)}
	if _, ok := f.follows[key]; ok {
		return apperror.Duplicate("author", "you are already subscribed to this author")
	}
	f.follows[key] = int(f.next())
	return nil
}

func (f *fakeStore) Unfollow(_ context.Context, userID, authorID model.UserID) error {
	if f.failWith != nil {
		return f.failWith
	}
	key := pair{int64(userID), int64(authorID)}
	if _, ok := f.follows[key]; !ok {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "not subscribed"}
	}
	delete(f.follows, key)
	return nil
}

func (f *fakeStore) Following(_ context.Context, userID model.UserID) ([]model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	type entry struct {
		seq int
		id  model.UserID
	}
	var entries []entry
	for k, seq := range f.follows {
		if k.a == int64(userID) {
			entries = append(entries, entry{seq, model.UserID(k.b)})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := []model.User{}
	for _, e := range entries {
		out = append(out, f.users[e.id])
	}
	return out, nil
}

func (f *fakeStore) FollowedAmong(_ context.Context, userID model.UserID, ids []model.UserID) (map[model.UserID]bool, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make(map[model.UserID]bool)
	for _, id := range ids {
		if _, ok := f.follows[pair{int64(userID), int64(id)}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// =========================================================================
// HELPERS
// =========================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fakeStore) addUser(username string, admin bool) model.User {
	u := model.User{Email: username + "@example.com", Username: username, IsAdmin: admin}
	if err := f.CreateUser(context.Background(), &u); err != nil {
		panic(err)
	}
	return u
}

func (f *fakeStore) addIngredient(name, unit string) model.Ingredient {
	ing := model.Ingredient{Name: name, MeasurementUnit: unit}
	if err := f.CreateIngredient(context.Background(), &ing); err != nil {
		panic(err)
	}
	return ing
}

func (f *fakeStore) addTag(name, color, slug string) model.Tag {
	t := model.Tag{Name: name, Color: color, Slug: slug}
	if err := f.CreateTag(context.Background(), &t); err != nil {
		panic(err)
	}
	return t
}

func (f *fakeStore) addRecipe(author model.User, name string, items ...model.RecipeIngredient) model.Recipe {
	r := model.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "text",
		Image:       "img",
		CookingTime: 5,
		Ingredients: items,
		Tags:        []model.Tag{},
	}
	if err := f.CreateRecipe(context.Background(), &r); err != nil {
		panic(err)
	}
	return r
}

func ptr[T any](v T) *T { return &v }

func appErrField(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
