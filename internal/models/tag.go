package models

import "time"

// Tag labels posts; attached many-to-many via post_tags.
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	Posts       []Post    `gorm:"many2many:post_tags" json:"-"`
}
