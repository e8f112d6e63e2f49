package recipe

import (
	"strconv"
	"strings"

	"github.com/hugh/go-recipes/internal/store"
	"github.com/hugh/go-recipes/internal/validation"
	"gorm.io/gorm"
)

// WithTags keeps recipes carrying any of the given tags.
func WithTags(ids []uint) store.Scope {
	return usingAny("recipe_tags", "tag_id", ids)
}

// WithIngredients keeps recipes using any of the given ingredients.
func WithIngredients(ids []uint) store.Scope {
	return usingAny("recipe_ingredients", "ingredient_id", ids)
}

func usingAny(joinTable, column string, ids []uint) store.Scope {
	return func(q *gorm.DB) *gorm.DB {
		matching := q.Session(&gorm.Session{NewDB: true}).
			Table(joinTable).
			Select("recipe_id").
			Where(column+" IN ?", ids)
		return q.Where("id IN (?)", matching)
	}
}

// ParseIDs reads a comma separated id list such as "1,2,3".
func ParseIDs(field, raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			return nil, validation.Errors{field: "Enter a comma separated list of ids."}
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
