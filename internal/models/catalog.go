// internal/models/catalog.go
package models

type Category struct {
	BaseModel
	Slug  string `json:"slug" gorm:"size:100;not null;uniqueIndex"`
	Name  string `json:"name" gorm:"size:100;not null"`
	Image string `json:"image,omitempty" gorm:"size:1024"`
}

type Brand struct {
	BaseModel
	Slug  string `json:"slug" gorm:"size:100;not null;uniqueIndex"`
	Name  string `json:"name" gorm:"size:100;not null"`
	Image string `json:"image,omitempty" gorm:"size:1024"`
}

type Blog struct {
	BaseModel
	Title  string `json:"title" gorm:"size:255;not null"`
	Body   string `json:"body" gorm:"type:text"`
	Author string `json:"author" gorm:"size:255"`
	Image  string `json:"image,omitempty" gorm:"size:1024"`
}
