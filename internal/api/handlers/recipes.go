package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/hugh/go-recipes/internal/activity"
	"github.com/hugh/go-recipes/internal/api/dto"
	"github.com/hugh/go-recipes/internal/api/middleware"
	"github.com/hugh/go-recipes/internal/database/models"
	"github.com/hugh/go-recipes/internal/recipe"
	"github.com/hugh/go-recipes/internal/store"
	"github.com/hugh/go-recipes/internal/validation"
	"github.com/shopspring/decimal"
)

type RecipeHandler struct {
	repo     *recipe.RecipeRepository
	activity activity.Recorder
	logger   *slog.Logger
}

func NewRecipeHandler(repo *recipe.RecipeRepository, recorder activity.Recorder, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{repo: repo, activity: recorder, logger: logger}
}

// RecipeRequest is the body of POST, PUT and PATCH. Absent fields are left
// unchanged on update; tags and ingredients are lists of ids.
type RecipeRequest struct {
	Title       *string          `json:"title" validate:"omitempty,notblank,max=255"`
	TimeMinutes *int             `json:"time_minutes"`
	Price       *decimal.Decimal `json:"price"`
	Link        *string          `json:"link" validate:"omitempty,max=255"`
	Tags        []uint           `json:"tags"`
	Ingredients []uint           `json:"ingredients"`

	hasTags, hasIngredients bool
}

func (r RecipeRequest) Validate(partial bool) error {
	errs := validation.Errors{}
	if err := validation.Struct(r); err != nil {
		verrs, ok := validation.As(err)
		if !ok {
			return err
		}
		errs = verrs
	}
	if !partial {
		if r.Title == nil {
			errs.Add("title", "This field is required.")
		}
		if r.TimeMinutes == nil {
			errs.Add("time_minutes", "This field is required.")
		}
		if r.Price == nil {
			errs.Add("price", "This field is required.")
		}
	}
	return errs.Err()
}

// apply copies the supplied fields onto rec. Validation of the values happens
// in the model.
func (r RecipeRequest) apply(rec *models.Recipe) {
	if r.Title != nil {
		rec.Title = *r.Title
	}
	if r.TimeMinutes != nil {
		rec.TimeMinutes = *r.TimeMinutes
	}
	if r.Price != nil {
		rec.Price = *r.Price
	}
	if r.Link != nil {
		rec.Link = *r.Link
	}
	if r.hasTags {
		rec.Tags = make([]models.Tag, len(r.Tags))
		for i, id := range r.Tags {
			rec.Tags[i].ID = id
		}
	}
	if r.hasIngredients {
		rec.Ingredients = make([]models.Ingredient, len(r.Ingredients))
		for i, id := range r.Ingredients {
			rec.Ingredients[i].ID = id
		}
	}
}

// RecipeResponse is a recipe in list and write responses
type RecipeResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	TimeMinutes int    `json:"time_minutes"`
	Price       string `json:"price"`
	Link        string `json:"link"`
	Tags        []uint `json:"tags"`
	Ingredients []uint `json:"ingredients"`
}

// RecipeDetailResponse nests the full tags and ingredients
type RecipeDetailResponse struct {
	ID          uint                    `json:"id"`
	Title       string                  `json:"title"`
	TimeMinutes int                     `json:"time_minutes"`
	Price       string                  `json:"price"`
	Link        string                  `json:"link"`
	Tags        []dto.AttributeResponse `json:"tags"`
	Ingredients []dto.AttributeResponse `json:"ingredients"`
}

func sortedIDs(ids []uint) []uint {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func recipeToResponse(rec *models.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          rec.ID,
		Title:       rec.Title,
		TimeMinutes: rec.TimeMinutes,
		Price:       rec.Price.StringFixed(2),
		Link:        rec.Link,
		Tags:        sortedIDs(rec.TagIDs()),
		Ingredients: sortedIDs(rec.IngredientIDs()),
	}
}

func recipeToDetail(rec *models.Recipe) RecipeDetailResponse {
	tags := make([]dto.AttributeResponse, len(rec.Tags))
	for i, t := range rec.Tags {
		tags[i] = dto.AttributeResponse{ID: t.ID, Name: t.Name}
	}
	ingredients := make([]dto.AttributeResponse, len(rec.Ingredients))
	for i, in := range rec.Ingredients {
		ingredients[i] = dto.AttributeResponse{ID: in.ID, Name: in.Name}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	sort.Slice(ingredients, func(i, j int) bool { return ingredients[i].ID < ingredients[j].ID })

	return RecipeDetailResponse{
		ID:          rec.ID,
		Title:       rec.Title,
		TimeMinutes: rec.TimeMinutes,
		Price:       rec.Price.StringFixed(2),
		Link:        rec.Link,
		Tags:        tags,
		Ingredients: ingredients,
	}
}

// List handles GET /api/recipe/recipes
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var opts store.ListOptions
	query := r.URL.Query()
	if raw := query.Get("tags"); raw != "" {
		ids, err := recipe.ParseIDs("tags", raw)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		opts.Scopes = append(opts.Scopes, recipe.WithTags(ids))
	}
	if raw := query.Get("ingredients"); raw != "" {
		ids, err := recipe.ParseIDs("ingredients", raw)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		opts.Scopes = append(opts.Scopes, recipe.WithIngredients(ids))
	}

	recipes, err := h.repo.List(r.Context(), userID, opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response := make([]RecipeResponse, len(recipes))
	for i := range recipes {
		response[i] = recipeToResponse(&recipes[i])
	}
	writeJSON(w, http.StatusOK, response)
}

// Create handles POST /api/recipe/recipes
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := h.decode(r, false)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rec := &models.Recipe{}
	req.apply(rec)

	created, err := h.repo.Create(r.Context(), middleware.GetUserID(r.Context()), rec)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.record(r, activity.VerbCreate, created.ID)
	writeJSON(w, http.StatusCreated, recipeToResponse(created))
}

// Get handles GET /api/recipe/recipes/{id}
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rec, err := h.repo.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recipeToDetail(rec))
}

// Update handles PUT (partial=false) and PATCH (partial=true)
func (h *RecipeHandler) Update(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		req, err := h.decode(r, partial)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		updated, err := h.repo.Update(r.Context(), middleware.GetUserID(r.Context()), id, func(rec *models.Recipe) error {
			req.apply(rec)
			return nil
		})
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		h.record(r, activity.VerbUpdate, id)
		writeJSON(w, http.StatusOK, recipeToResponse(updated))
	}
}

// Delete handles DELETE /api/recipe/recipes/{id}
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.repo.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.record(r, activity.VerbDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) decode(r *http.Request, partial bool) (RecipeRequest, error) {
	var body struct {
		RecipeRequest
		Tags        *[]uint `json:"tags"`
		Ingredients *[]uint `json:"ingredients"`
	}
	if err := decodeJSON(r, &body); err != nil {
		return RecipeRequest{}, err
	}

	req := body.RecipeRequest
	if body.Tags != nil {
		req.Tags, req.hasTags = *body.Tags, true
	}
	if body.Ingredients != nil {
		req.Ingredients, req.hasIngredients = *body.Ingredients, true
	}

	if err := req.Validate(partial); err != nil {
		return RecipeRequest{}, err
	}
	return req, nil
}

func (h *RecipeHandler) record(r *http.Request, verb string, id uint) {
	userID := middleware.GetUserID(r.Context())
	h.activity.Record(r.Context(), activity.EntityEvent(userID, "recipe", verb, id, middleware.ClientIP(r)))
}
