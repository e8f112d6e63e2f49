package models

import "github.com/hugh/go-recipes/internal/validation"

type Tag struct {
	Base
	UserID uint   `gorm:"index;not null" json:"-"`
	Name   string `gorm:"size:255;not null" json:"name"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Tag) TableName() string {
	return "tags"
}

func (t Tag) String() string {
	return t.Name
}

func (t *Tag) OwnerID() uint      { return t.UserID }
func (t *Tag) SetOwnerID(id uint) { t.UserID = id }
func (t *Tag) Rename(name string) { t.Name = name }

func (t *Tag) Validate() error {
	errs := validation.Errors{}
	if msg := checkName(&t.Name); msg != "" {
		errs.Add("name", msg)
	}
	return errs.Err()
}
