package recipe

import (
	"fmt"

	"github.com/hugh/go-recipes/internal/database/models"
	"github.com/hugh/go-recipes/internal/store"
	"github.com/hugh/go-recipes/internal/validation"
	"gorm.io/gorm"
)

type (
	TagRepository        = store.Repository[models.Tag, *models.Tag]
	IngredientRepository = store.Repository[models.Ingredient, *models.Ingredient]
	RecipeRepository     = store.Repository[models.Recipe, *models.Recipe]
)

const attributeOrder = "name DESC, id DESC"

func NewTagRepository(db *gorm.DB) *TagRepository {
	return store.NewRepository[models.Tag](db, store.Options[*models.Tag]{
		Order:    attributeOrder,
		Assigned: assignedVia("recipe_tags", "tag_id"),
		BeforeDelete: func(tx *gorm.DB, tag *models.Tag) error {
			return tx.Exec("DELETE FROM recipe_tags WHERE tag_id = ?", tag.ID).Error
		},
	})
}

func NewIngredientRepository(db *gorm.DB) *IngredientRepository {
	return store.NewRepository[models.Ingredient](db, store.Options[*models.Ingredient]{
		Order:    attributeOrder,
		Assigned: assignedVia("recipe_ingredients", "ingredient_id"),
		BeforeDelete: func(tx *gorm.DB, ingredient *models.Ingredient) error {
			return tx.Exec("DELETE FROM recipe_ingredients WHERE ingredient_id = ?", ingredient.ID).Error
		},
	})
}

func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return store.NewRepository[models.Recipe](db, store.Options[*models.Recipe]{
		Order:        "id DESC",
		Preload:      []string{"Tags", "Ingredients"},
		Prepare:      resolveAssociations,
		AfterSave:    replaceAssociations,
		BeforeDelete: clearAssociations,
	})
}

// assignedVia keeps rows referenced from joinTable by at least one of the
// owner's recipes. The IN subquery yields each row once no matter how many
// recipes use it.
func assignedVia(joinTable, column string) func(ownerID uint) store.Scope {
	return func(ownerID uint) store.Scope {
		return func(q *gorm.DB) *gorm.DB {
			used := q.Session(&gorm.Session{NewDB: true}).
				Table(joinTable).
				Select(joinTable+"."+column).
				Joins("JOIN recipes ON recipes.id = "+joinTable+".recipe_id").
				Where("recipes.user_id = ?", ownerID)
			return q.Where("id IN (?)", used)
		}
	}
}

// resolveAssociations swaps the id-only tags and ingredients on r for the
// owner's stored rows.
func resolveAssociations(tx *gorm.DB, ownerID uint, r *models.Recipe) error {
	tags, err := loadOwned[models.Tag](tx, ownerID, r.TagIDs(), "tags")
	if err != nil {
		return err
	}
	ingredients, err := loadOwned[models.Ingredient](tx, ownerID, r.IngredientIDs(), "ingredients")
	if err != nil {
		return err
	}

	r.Tags = tags
	r.Ingredients = ingredients
	return nil
}

func loadOwned[T interface{ PrimaryKey() uint }](tx *gorm.DB, ownerID uint, ids []uint, field string) ([]T, error) {
	wanted := uniqueIDs(ids)
	rows := []T{}
	if len(wanted) == 0 {
		return rows, nil
	}

	if err := tx.Where("user_id = ? AND id IN ?", ownerID, wanted).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading %s: %w", field, err)
	}
	if len(rows) == len(wanted) {
		return rows, nil
	}

	found := make(map[uint]bool, len(rows))
	for _, row := range rows {
		found[row.PrimaryKey()] = true
	}
	for _, id := range wanted {
		if !found[id] {
			return nil, validation.Errors{field: fmt.Sprintf("Invalid pk %q - object does not exist.", fmt.Sprint(id))}
		}
	}
	return rows, nil
}

func replaceAssociations(tx *gorm.DB, r *models.Recipe) error {
	if err := replace(tx, r, "Tags", r.Tags); err != nil {
		return err
	}
	return replace(tx, r, "Ingredients", r.Ingredients)
}

func replace[T any](tx *gorm.DB, r *models.Recipe, name string, values []T) error {
	assoc := tx.Model(r).Association(name)
	var err error
	if len(values) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(values)
	}
	if err != nil {
		return fmt.Errorf("replacing recipe %s: %w", name, err)
	}
	return nil
}

func clearAssociations(tx *gorm.DB, r *models.Recipe) error {
	for _, name := range []string{"Tags", "Ingredients"} {
		if err := tx.Model(r).Association(name).Clear(); err != nil {
			return fmt.Errorf("clearing recipe %s: %w", name, err)
		}
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
