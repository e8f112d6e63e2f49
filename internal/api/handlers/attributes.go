package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hugh/go-recipes/internal/activity"
	"github.com/hugh/go-recipes/internal/api/dto"
	"github.com/hugh/go-recipes/internal/api/middleware"
	"github.com/hugh/go-recipes/internal/store"
	"github.com/hugh/go-recipes/internal/validation"
)

// Attribute is a named, user-owned label that recipes refer to: a tag or an
// ingredient.
type Attribute[T any] interface {
	*T
	store.Owned
	fmt.Stringer
	Rename(name string)
}

type AttributeRequest struct {
	Name *string `json:"name" validate:"omitempty,notblank,max=255"`
}

func (r AttributeRequest) Validate(partial bool) error {
	errs := validation.Errors{}
	if err := validation.Struct(r); err != nil {
		verrs, ok := validation.As(err)
		if !ok {
			return err
		}
		errs = verrs
	}
	if !partial && r.Name == nil {
		errs.Add("name", "This field is required.")
	}
	return errs.Err()
}

// AttributeHandler serves the CRUD endpoints shared by tags and ingredients.
type AttributeHandler[T any, P Attribute[T]] struct {
	repo     *store.Repository[T, P]
	entity   string
	activity activity.Recorder
	logger   *slog.Logger
}

func NewAttributeHandler[T any, P Attribute[T]](repo *store.Repository[T, P], entity string, recorder activity.Recorder, logger *slog.Logger) *AttributeHandler[T, P] {
	return &AttributeHandler[T, P]{repo: repo, entity: entity, activity: recorder, logger: logger}
}

func attributeResponse[T any, P Attribute[T]](item P) dto.AttributeResponse {
	return dto.AttributeResponse{ID: item.PrimaryKey(), Name: item.String()}
}

// List handles GET /api/recipe/{tags,ingredients}
func (h *AttributeHandler[T, P]) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	assignedOnly, err := parseFlag("assigned_only", r.URL.Query().Get("assigned_only"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items, err := h.repo.List(r.Context(), userID, store.ListOptions{AssignedOnly: assignedOnly})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response := make([]dto.AttributeResponse, len(items))
	for i := range items {
		response[i] = attributeResponse[T, P](P(&items[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

// Create handles POST /api/recipe/{tags,ingredients}
func (h *AttributeHandler[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req AttributeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := req.Validate(false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	item := P(new(T))
	item.Rename(*req.Name)

	created, err := h.repo.Create(r.Context(), userID, item)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.record(r, activity.VerbCreate, created.PrimaryKey())
	writeJSON(w, http.StatusCreated, attributeResponse[T, P](created))
}

// Get handles GET /api/recipe/{tags,ingredients}/{id}
func (h *AttributeHandler[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	item, err := h.repo.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, attributeResponse[T, P](item))
}

// Update handles PUT (partial=false) and PATCH (partial=true)
func (h *AttributeHandler[T, P]) Update(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		var req AttributeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if err := req.Validate(partial); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		updated, err := h.repo.Update(r.Context(), middleware.GetUserID(r.Context()), id, func(item P) error {
			if req.Name != nil {
				item.Rename(*req.Name)
			}
			return nil
		})
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		h.record(r, activity.VerbUpdate, id)
		writeJSON(w, http.StatusOK, attributeResponse[T, P](updated))
	}
}

// Delete handles DELETE /api/recipe/{tags,ingredients}/{id}
func (h *AttributeHandler[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *AttributeHandler[T, P]) record(r *http.Request, verb string, id uint) {
	userID := middleware.GetUserID(r.Context())
	h.activity.Record(r.Context(), activity.EntityEvent(userID, h.entity, verb, id, middleware.ClientIP(r)))
}
