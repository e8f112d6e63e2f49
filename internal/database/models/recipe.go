package models

import (
	"strings"
	"unicode/utf8"

	"github.com/hugh/go-recipes/internal/validation"
	"github.com/shopspring/decimal"
)

// maxPrice mirrors a decimal(5,2) column.
var maxPrice = decimal.NewFromInt(1000)

type Recipe struct {
	Base
	UserID      uint            `gorm:"index;not null" json:"-"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	TimeMinutes int             `gorm:"not null" json:"time_minutes"`
	Price       decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"price"`
	Link        string          `gorm:"size:255" json:"link"`

	Tags        []Tag        `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Ingredients []Ingredient `gorm:"many2many:recipe_ingredients;constraint:OnDelete:CASCADE" json:"ingredients"`
	User        *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Recipe) TableName() string {
	return "recipes"
}

func (r Recipe) String() string {
	return r.Title
}

func (r *Recipe) OwnerID() uint      { return r.UserID }
func (r *Recipe) SetOwnerID(id uint) { r.UserID = id }

func (r *Recipe) Validate() error {
	errs := validation.Errors{}

	if msg := checkName(&r.Title); msg != "" {
		errs.Add("title", msg)
	}
	if r.TimeMinutes < 0 {
		errs.Add("time_minutes", "Ensure this value is greater than or equal to 0.")
	}

	switch {
	case r.Price.IsNegative():
		errs.Add("price", "Ensure this value is greater than or equal to 0.")
	case !r.Price.Equal(r.Price.Round(2)):
		errs.Add("price", "Ensure that there are no more than 2 decimal places.")
	case r.Price.GreaterThanOrEqual(maxPrice):
		errs.Add("price", "Ensure that there are no more than 5 digits in total.")
	}

	r.Link = strings.TrimSpace(r.Link)
	if utf8.RuneCountInString(r.Link) > maxNameLength {
		errs.Add("link", "Ensure this field has no more than 255 characters.")
	}

	return errs.Err()
}

// TagIDs lists the ids of the associated tags in their loaded order.
func (r *Recipe) TagIDs() []uint {
	ids := make([]uint, len(r.Tags))
	for i, t := range r.Tags {
		ids[i] = t.ID
	}
	return ids
}

// IngredientIDs lists the ids of the associated ingredients in their loaded order.
func (r *Recipe) IngredientIDs() []uint {
	ids := make([]uint, len(r.Ingredients))
	for i, in := range r.Ingredients {
		ids[i] = in.ID
	}
	return ids
}
