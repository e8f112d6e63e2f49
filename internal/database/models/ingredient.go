package models

import "github.com/hugh/go-recipes/internal/validation"

type Ingredient struct {
	Base
	UserID uint   `gorm:"index;not null" json:"-"`
	Name   string `gorm:"size:255;not null" json:"name"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}

func (i Ingredient) String() string {
	return i.Name
}

func (i *Ingredient) OwnerID() uint      { return i.UserID }
func (i *Ingredient) SetOwnerID(id uint) { i.UserID = id }
func (i *Ingredient) Rename(name string) { i.Name = name }

func (i *Ingredient) Validate() error {
	errs := validation.Errors{}
	if msg := checkName(&i.Name); msg != "" {
		errs.Add("name", msg)
	}
	return errs.Err()
}
