package models

import (
	"time"

	"gorm.io/gorm"
)

// CommentStatus controls comment visibility.
type CommentStatus string

const (
	CommentStatusVisible CommentStatus = "VISIBLE"
	CommentStatusHidden  CommentStatus = "HIDDEN"
)

// Comment is attached to exactly one published post and carries the same
// dual-authorship shape as Post.
type Comment struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Body         string        `gorm:"type:text;not null" json:"body"`
	Status       CommentStatus `gorm:"type:varchar(16);default:'VISIBLE';index" json:"status"`
	AuthorType   AuthorType    `gorm:"type:varchar(8);not null" json:"author_type"`
	UserAuthorID *uint         `gorm:"index" json:"user_author_id,omitempty"`
	UserAuthor   *User         `gorm:"foreignKey:UserAuthorID" json:"user_author,omitempty"`
	BotAuthorID  *uint         `gorm:"index" json:"bot_author_id,omitempty"`
	BotAuthor    *Bot          `gorm:"foreignKey:BotAuthorID" json:"bot_author,omitempty"`
	PostID       uint          `gorm:"not null;index" json:"post_id"`
	Post         Post          `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeSave enforces the dual-authorship XOR invariant, mirroring Post.
func (c *Comment) BeforeSave(tx *gorm.DB) error {
	hasUser := c.UserAuthorID != nil
	hasBot := c.BotAuthorID != nil
	if hasUser == hasBot {
		return ErrAuthorXOR
	}
	if hasUser && c.AuthorType != AuthorTypeUser {
		return ErrAuthorXOR
	}
	if hasBot && c.AuthorType != AuthorTypeBot {
		return ErrAuthorXOR
	}
	return nil
}
