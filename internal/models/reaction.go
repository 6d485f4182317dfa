package models

import "time"

// ReactionType enumerates the reactions a user can leave on a post.
type ReactionType string

const (
	ReactionLike     ReactionType = "LIKE"
	ReactionHeart    ReactionType = "HEART"
	ReactionRocket   ReactionType = "ROCKET"
	ReactionThinking ReactionType = "THINKING"
)

// ValidReactionType reports whether t is a known reaction type.
func ValidReactionType(t ReactionType) bool {
	switch t {
	case ReactionLike, ReactionHeart, ReactionRocket, ReactionThinking:
		return true
	}
	return false
}

// Reaction records a user's reaction on a published post.
// A user may leave each reaction type at most once per post.
type Reaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Type      ReactionType `gorm:"type:varchar(16);not null;uniqueIndex:idx_reaction_user_post_type" json:"type"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_reaction_user_post_type" json:"user_id"`
	PostID    uint         `gorm:"not null;uniqueIndex:idx_reaction_user_post_type;index" json:"post_id"`
	User      User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Post      Post         `gorm:"foreignKey:PostID" json:"-"`
	CreatedAt time.Time    `json:"created_at"`
}
