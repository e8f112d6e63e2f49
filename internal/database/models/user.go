package models

type User struct {
	Base
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `gorm:"size:255" json:"name"`
	IsActive     bool   `gorm:"not null" json:"is_active"`
	IsStaff      bool   `gorm:"default:false" json:"is_staff"`
	IsSuperuser  bool   `gorm:"default:false" json:"is_superuser"`
}

func (User) TableName() string {
	return "users"
}

func (u User) String() string {
	return u.Email
}
