package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("not found")

// Owned is implemented by every row that belongs to a single user.
type Owned interface {
	PrimaryKey() uint
	OwnerID() uint
	SetOwnerID(id uint)
	Validate() error
}

// Scope narrows a query.
type Scope = func(*gorm.DB) *gorm.DB

// Options configures a Repository for one model.
type Options[P any] struct {
	// Order is applied to List, e.g. "name DESC, id DESC".
	Order string
	// Preload names associations loaded by every read.
	Preload []string
	// Assigned restricts a list to rows referenced by the owner's recipes.
	Assigned func(ownerID uint) Scope
	// Prepare runs inside the write transaction after validation.
	Prepare func(tx *gorm.DB, ownerID uint, entity P) error
	// AfterSave runs inside the write transaction after the row is stored.
	AfterSave func(tx *gorm.DB, entity P) error
	// BeforeDelete runs inside the delete transaction.
	BeforeDelete func(tx *gorm.DB, entity P) error
}

type ListOptions struct {
	AssignedOnly bool
	Scopes       []Scope
}

// Repository gives a user access to their own rows of T and nothing else.
type Repository[T any, P interface {
	*T
	Owned
}] struct {
	db   *gorm.DB
	opts Options[P]
}

func NewRepository[T any, P interface {
	*T
	Owned
}](db *gorm.DB, opts Options[P]) *Repository[T, P] {
	return &Repository[T, P]{db: db, opts: opts}
}

func (r *Repository[T, P]) owned(tx *gorm.DB, ownerID uint) *gorm.DB {
	q := tx.Where("user_id = ?", ownerID)
	for _, assoc := range r.opts.Preload {
		q = q.Preload(assoc)
	}
	return q
}

func (r *Repository[T, P]) List(ctx context.Context, ownerID uint, opts ListOptions) ([]T, error) {
	query := r.owned(r.db.WithContext(ctx), ownerID)

	if opts.AssignedOnly && r.opts.Assigned != nil {
		query = query.Scopes(r.opts.Assigned(ownerID))
	}
	if len(opts.Scopes) > 0 {
		query = query.Scopes(opts.Scopes...)
	}
	if r.opts.Order != "" {
		query = query.Order(r.opts.Order)
	}

	items := []T{}
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing %T: %w", *new(T), err)
	}
	return items, nil
}

func (r *Repository[T, P]) Get(ctx context.Context, ownerID, id uint) (P, error) {
	return r.get(r.db.WithContext(ctx), ownerID, id)
}

func (r *Repository[T, P]) get(tx *gorm.DB, ownerID, id uint) (P, error) {
	entity := P(new(T))
	err := r.owned(tx, ownerID).Where("id = ?", id).First(entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading %T: %w", entity, err)
	}
	return entity, nil
}

// Create stores entity as a row of ownerID, whatever owner it carried before.
func (r *Repository[T, P]) Create(ctx context.Context, ownerID uint, entity P) (P, error) {
	entity.SetOwnerID(ownerID)
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	var created P
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.save(tx, ownerID, entity, true); err != nil {
			return err
		}

		var err error
		created, err = r.get(tx, ownerID, entity.PrimaryKey())
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update loads the owner's row, lets apply change it and stores the result.
func (r *Repository[T, P]) Update(ctx context.Context, ownerID, id uint, apply func(P) error) (P, error) {
	var updated P
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entity, err := r.get(tx, ownerID, id)
		if err != nil {
			return err
		}

		if err := apply(entity); err != nil {
			return err
		}
		entity.SetOwnerID(ownerID)
		if err := entity.Validate(); err != nil {
			return err
		}

		if err := r.save(tx, ownerID, entity, false); err != nil {
			return err
		}

		updated, err = r.get(tx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository[T, P]) Delete(ctx context.Context, ownerID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entity, err := r.get(tx, ownerID, id)
		if err != nil {
			return err
		}

		if r.opts.BeforeDelete != nil {
			if err := r.opts.BeforeDelete(tx, entity); err != nil {
				return err
			}
		}

		if err := tx.Delete(entity).Error; err != nil {
			return fmt.Errorf("deleting %T: %w", entity, err)
		}
		return nil
	})
}

func (r *Repository[T, P]) save(tx *gorm.DB, ownerID uint, entity P, create bool) error {
	if r.opts.Prepare != nil {
		if err := r.opts.Prepare(tx, ownerID, entity); err != nil {
			return err
		}
	}

	// Associations are written by AfterSave so that gorm never upserts rows
	// the caller does not own.
	q := tx.Omit(clause.Associations)
	var err error
	if create {
		err = q.Create(entity).Error
	} else {
		err = q.Save(entity).Error
	}
	if err != nil {
		return fmt.Errorf("saving %T: %w", entity, err)
	}

	if r.opts.AfterSave != nil {
		if err := r.opts.AfterSave(tx, entity); err != nil {
			return err
		}
	}
	return nil
}
