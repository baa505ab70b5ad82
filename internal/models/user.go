package models

type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null;size:150"`
	Email    string `gorm:"uniqueIndex;not null;size:254"`
	Name     string
}
