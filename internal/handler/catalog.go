package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/foodgram/internal/dto"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/service"
)

// TagHandler serves /api/tags/.
type TagHandler struct {
	tags     *service.TagService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewTagHandler(tags *service.TagService, validate *validator.Validate, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: tags, validate: validate, logger: logger}
}

func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTagResponses(tags))
}

func (h *TagHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "tag")
	if err != nil {
		writeError(w, err)
		return
	}
	tag, err := h.tags.Get(r.Context(), model.TagID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTagResponse(*tag))
}

func (h *TagHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.TagRequest
	if err := decodeBody(w, r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	tag, err := h.tags.Create(r.Context(), req.ToInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewTagResponse(*tag))
}

// IngredientHandler serves /api/ingredients/. ?name=<prefix> narrows the
// list by a case-insensitive name prefix.
type IngredientHandler struct {
	ingredients *service.IngredientService
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewIngredientHandler(ingredients *service.IngredientService, validate *validator.Validate, logger *slog.Logger) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients, validate: validate, logger: logger}
}

func (h *IngredientHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ings, err := h.ingredients.List(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewIngredientResponses(ings))
}

func (h *IngredientHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "ingredient")
	if err != nil {
		writeError(w, err)
		return
	}
	ing, err := h.ingredients.Get(r.Context(), model.IngredientID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewIngredientResponse(*ing))
}

func (h *IngredientHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.IngredientRequest
	if err := decodeBody(w, r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	ing, err := h.ingredients.Create(r.Context(), req.Name, req.MeasurementUnit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewIngredientResponse(*ing))
}
