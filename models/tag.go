package models

const DefaultTagColor = "#FF0000"

// Tag labels recipes, e.g. breakfast or dinner
type Tag struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"type:varchar(256);not null;uniqueIndex:idx_tag_name"`
	Color string `json:"color" gorm:"type:varchar(7);not null;default:'#FF0000'"`
	Slug  string `json:"slug" gorm:"type:varchar(50);not null;uniqueIndex:idx_tag_slug"`
}
