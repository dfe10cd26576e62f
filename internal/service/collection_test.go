package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/shoppinglist"
)

func newTestCollectionService(t *testing.T) (*CollectionService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewCollectionService(store, store, discardLogger()), store
}

func TestCollectionToggle(t *testing.T) {
	for _, c := range []model.Collection{model.Favorites, model.ShoppingCart} {
		t.Run(string(c), func(t *testing.T) {
			svc, store := newTestCollectionService(t)
			ctx := context.Background()
			author := store.addUser("chef", false)
			reader := store.addUser("reader", false)
			r := store.addRecipe(author, "soup")

			got, err := svc.Add(ctx, reader.ID, c, r.ID)
			if err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			if got.ID != r.ID || got.Name != "soup" {
				t.Errorf("Add() returned %+v", got)
			}

			if _, err := svc.Add(ctx, reader.ID, c, r.ID); !errors.Is(err, apperror.ErrConflict) {
				t.Errorf("second Add() error = %v, want ErrConflict", err)
			}

			if err := svc.Remove(ctx, reader.ID, c, r.ID); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			if err := svc.Remove(ctx, reader.ID, c, r.ID); !errors.Is(err, apperror.ErrNotFound) {
				t.Errorf("second Remove() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestCollectionAdd_UnknownRecipe(t *testing.T) {
	svc, store := newTestCollectionService(t)
	reader := store.addUser("reader", false)

	if _, err := svc.Add(context.Background(), reader.ID, model.Favorites, 77); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Add() error = %v, want ErrNotFound", err)
	}
	if err := svc.Remove(context.Background(), reader.ID, model.Favorites, 77); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Remove() error = %v, want ErrNotFound", err)
	}
}

func TestCollectionAdd_UnknownCollection(t *testing.T) {
	svc, store := newTestCollectionService(t)
	author := store.addUser("chef", false)
	r := store.addRecipe(author, "soup")

	if _, err := svc.Add(context.Background(), author.ID, model.Collection("wishlist"), r.ID); err == nil {
		t.Error("Add() accepted an unknown collection")
	}
}

func TestShoppingList(t *testing.T) {
	svc, store := newTestCollectionService(t)
	ctx := context.Background()
	author := store.addUser("chef", false)
	buyer := store.addUser("buyer", false)

	salt := store.addIngredient("Salt", "g")
	// A second catalogue row with the same name and unit merges with the first.
	saltAgain := store.addIngredient("Salt", "g")
	eggs := store.addIngredient("Eggs", "pcs")

	soup := store.addRecipe(author, "soup", model.RecipeIngredient{IngredientID: salt.ID, Amount: 5})
	omelette := store.addRecipe(author, "omelette",
		model.RecipeIngredient{IngredientID: eggs.ID, Amount: 3},
		model.RecipeIngredient{IngredientID: saltAgain.ID, Amount: 10},
	)
	for _, r := range []model.Recipe{soup, omelette} {
		if _, err := svc.Add(ctx, buyer.ID, model.ShoppingCart, r.ID); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	lines, err := svc.ShoppingList(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("ShoppingList() error = %v", err)
	}
	want := []shoppinglist.Line{
		{Name: "Eggs", Unit: "pcs", Total: 3},
		{Name: "Salt", Unit: "g", Total: 15},
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("ShoppingList() = %+v, want %+v", lines, want)
	}
	if got := shoppinglist.Render(lines); got != "Eggs (pcs) — 3\nSalt (g) — 15" {
		t.Errorf("Render() = %q", got)
	}
}

func TestShoppingList_EmptyCart(t *testing.T) {
	svc, store := newTestCollectionService(t)
	buyer := store.addUser("buyer", false)

	lines, err := svc.ShoppingList(context.Background(), buyer.ID)
	if err != nil {
		t.Fatalf("ShoppingList() error = %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("ShoppingList() = %v, want empty", lines)
	}
	if got := shoppinglist.Render(lines); got != "" {
		t.Errorf("Render() = %q, want empty", got)
	}
}

func TestShoppingList_StoreFailure(t *testing.T) {
	svc, store := newTestCollectionService(t)
	store.failWith = errStoreDown

	if _, err := svc.ShoppingList(context.Background(), 1); !errors.Is(err, errStoreDown) {
		t.Errorf("ShoppingList() error = %v, want wrapped store error", err)
	}
}

func TestShoppingList_OverflowingTotal(t *testing.T) {
	svc, store := newTestCollectionService(t)
	ctx := context.Background()
	author := store.addUser("chef", false)
	buyer := store.addUser("buyer", false)
	salt := store.addIngredient("Salt", "g")

	// Rows written before amounts were capped can still hold huge values.
	big := store.addRecipe(author, "brine", model.RecipeIngredient{IngredientID: salt.ID, Amount: math.MaxInt})
	pinch := store.addRecipe(author, "soup", model.RecipeIngredient{IngredientID: salt.ID, Amount: 1})
	for _, r := range []model.Recipe{big, pinch} {
		if _, err := svc.Add(ctx, buyer.ID, model.ShoppingCart, r.ID); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	lines, err := svc.ShoppingList(ctx, buyer.ID)
	if !errors.Is(err, shoppinglist.ErrOverflow) {
		t.Fatalf("ShoppingList() = (%v, %v), want ErrOverflow", lines, err)
	}
}
