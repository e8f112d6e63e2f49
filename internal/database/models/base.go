package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hugh/go-recipes/internal/validation"
	"gorm.io/gorm"
)

const maxNameLength = 255

// Base model with an auto-increment primary key and timestamps
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b Base) PrimaryKey() uint {
	return b.ID
}

// UUIDBase is used by append-only tables written from background workers.
type UUIDBase struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func (b *UUIDBase) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// checkName trims value in place and reports why it is unacceptable, if it is.
// Length is counted in characters, as varchar(255) does.
func checkName(value *string) string {
	if validation.IsBlank(*value) {
		*value = ""
		return "This field may not be blank."
	}
	*value = strings.TrimSpace(*value)
	if utf8.RuneCountInString(*value) > maxNameLength {
		return "Ensure this field has no more than 255 characters."
	}
	return ""
}
