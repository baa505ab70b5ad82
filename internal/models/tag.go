package models

type Tag struct {
	BaseModel

	Name  string `gorm:"uniqueIndex;not null;size:50"`
	Color string `gorm:"size:7;default:#6c757d"`
}
