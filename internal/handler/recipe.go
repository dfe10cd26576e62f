package handler

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/dto"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/service"
	"github.com/sakif/foodgram/internal/shoppinglist"
)

// RecipeHandler serves recipes, the two per-user collections and the
// shopping list download.
//
//	GET    /api/recipes/                          → HandleList
//	POST   /api/recipes/                          → HandleCreate  (auth)
//	GET    /api/recipes/download_shopping_cart/   → HandleDownloadShoppingCart (auth)
//	GET    /api/recipes/{id}/                     → HandleGet
//	PUT    /api/recipes/{id}/                     → HandleReplace (auth, author or admin)
//	PATCH  /api/recipes/{id}/                     → HandlePatch   (auth, author or admin)
//	DELETE /api/recipes/{id}/                     → HandleDelete  (auth, author or admin)
//	POST   /api/recipes/{id}/favorite/            → HandleAdd(model.Favorites)
//	DELETE /api/recipes/{id}/favorite/            → HandleRemove(model.Favorites)
//	POST   /api/recipes/{id}/shopping_cart/       → HandleAdd(model.ShoppingCart)
//	DELETE /api/recipes/{id}/shopping_cart/       → HandleRemove(model.ShoppingCart)
type RecipeHandler struct {
	recipes     *service.RecipeService
	collections *service.CollectionService
	validate    *validator.Validate
	logger      *slog.Logger
	fileName    string
}

// NewRecipeHandler creates a RecipeHandler. fileName is the attachment
// name offered for the shopping list download.
func NewRecipeHandler(
	recipes *service.RecipeService,
	collections *service.CollectionService,
	validate *validator.Validate,
	logger *slog.Logger,
	fileName string,
) *RecipeHandler {
	if fileName == "" {
		fileName = shoppinglist.DefaultFileName
	}
	return &RecipeHandler{
		recipes:     recipes,
		collections: collections,
		validate:    validate,
		logger:      logger,
		fileName:    fileName,
	}
}

// HandleList returns recipes, newest first.
//
// QUERY PARAMETERS:
//
//	tags=lunch&tags=dinner   recipes carrying any of the slugs
//	author=3                 recipes by user 3
//	is_favorited=1|0         in / not in the viewer's favorites
//	is_in_shopping_cart=1|0  in / not in the viewer's cart
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q, err := recipeQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	views, err := h.recipes.List(r.Context(), viewer(r), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewRecipeResponses(views))
}

func recipeQuery(r *http.Request) (service.RecipeQuery, error) {
	var q service.RecipeQuery
	params := r.URL.Query()

	for _, s := range params["tags"] {
		if s != "" {
			q.TagSlugs = append(q.TagSlugs, s)
		}
	}

	if raw := params.Get("author"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return q, apperror.ValidationFailed("author", "must be a user id")
		}
		q.Author = model.UserID(id)
	}

	q.Search = params.Get("search")

	var err error
	if q.Favorited, err = boolParam(r, "is_favorited"); err != nil {
		return q, err
	}
	if q.InShoppingCart, err = boolParam(r, "is_in_shopping_cart"); err != nil {
		return q, err
	}
	return q, nil
}

func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "recipe")
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.recipes.Get(r.Context(), viewer(r), model.RecipeID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewRecipeResponse(*view))
}

// HandleCreate publishes a recipe authored by the caller.
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.RecipeRequest
	if err := decodeBody(w, r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.recipes.Create(r.Context(), viewer(r), req.ToInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewRecipeResponse(*view))
}

// HandleReplace is PUT: every field must be present.
func (h *RecipeHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var req dto.RecipeRequest
	h.update(w, r, &req, func() service.RecipeInput { return req.ToInput() })
}

// HandlePatch is PATCH: omitted fields are left unchanged.
func (h *RecipeHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var req dto.RecipePatchRequest
	h.update(w, r, &req, func() service.RecipeInput { return req.ToInput() })
}

func (h *RecipeHandler) update(w http.ResponseWriter, r *http.Request, req any, input func() service.RecipeInput) {
	id, err := pathID(r, "id", "recipe")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(w, r, h.validate, req); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.recipes.Update(r.Context(), viewer(r), model.RecipeID(id), input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewRecipeResponse(*view))
}

func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "recipe")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.recipes.Delete(r.Context(), viewer(r), model.RecipeID(id)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAdd returns the POST handler for collection c. It answers 201 with
// the short recipe.
func (h *RecipeHandler) HandleAdd(c model.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id", "recipe")
		if err != nil {
			writeError(w, err)
			return
		}
		recipe, err := h.collections.Add(r.Context(), viewer(r), c, model.RecipeID(id))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, dto.NewShortRecipeResponse(*recipe))
	}
}

// HandleRemove returns the DELETE handler for collection c.
func (h *RecipeHandler) HandleRemove(c model.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id", "recipe")
		if err != nil {
			writeError(w, err)
			return
		}
		if err := h.collections.Remove(r.Context(), viewer(r), c, model.RecipeID(id)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleDownloadShoppingCart sends the caller's shopping list as a UTF-8
// text attachment. An empty cart is an empty file, still 200.
func (h *RecipeHandler) HandleDownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.collections.ShoppingList(r.Context(), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}

	// FormatMediaType switches to RFC 2231 (filename*=utf-8''...) for
	// non-ASCII names.
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": h.fileName})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)

	if _, err := io.WriteString(w, shoppinglist.Render(lines)); err != nil {
		h.logger.Warn("failed to write shopping list", slog.String("error", err.Error()))
	}
}
