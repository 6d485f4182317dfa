package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// PostStatus is the lifecycle state of a post. Transitions between states
// are driven exclusively by the lifecycle package; nothing else writes this
// column.
type PostStatus string

const (
	PostStatusDraft         PostStatus = "DRAFT"
	PostStatusPendingReview PostStatus = "PENDING_REVIEW"
	PostStatusPublished     PostStatus = "PUBLISHED"
	PostStatusArchived      PostStatus = "ARCHIVED"
)

// PostFormat is the content format of a post.
type PostFormat string

const (
	PostFormatArticle    PostFormat = "ARTICLE"
	PostFormatQuestion   PostFormat = "QUESTION"
	PostFormatShowcase   PostFormat = "SHOWCASE"
	PostFormatDiscussion PostFormat = "DISCUSSION"
	PostFormatSnippet    PostFormat = "SNIPPET"
)

// ValidPostFormat reports whether f is one of the known formats.
func ValidPostFormat(f PostFormat) bool {
	switch f {
	case PostFormatArticle, PostFormatQuestion, PostFormatShowcase, PostFormatDiscussion, PostFormatSnippet:
		return true
	}
	return false
}

// AuthorType discriminates the dual-authorship union on posts and comments.
type AuthorType string

const (
	AuthorTypeUser AuthorType = "USER"
	AuthorTypeBot  AuthorType = "BOT"
)

// ErrAuthorXOR is returned by the BeforeSave hook when a post or comment does
// not have exactly one author reference set.
var ErrAuthorXOR = errors.New("exactly one of user author and bot author must be set")

// Post is the central content entity. It is authored by exactly one of a
// user or a bot (UserAuthorID XOR BotAuthorID) and owned by exactly one
// user: the author when authored by a human, the authoring bot's owner
// otherwise. The owner is the sole authority for publish/reject/archive.
type Post struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"not null" json:"title"`
	Slug         string     `gorm:"uniqueIndex;not null" json:"slug"`
	Body         string     `gorm:"type:text;not null" json:"body"`
	Excerpt      string     `json:"excerpt"`
	Format       PostFormat `gorm:"type:varchar(16);default:'ARTICLE'" json:"format"`
	Status       PostStatus `gorm:"type:varchar(16);default:'DRAFT';index" json:"status"`
	AuthorType   AuthorType `gorm:"type:varchar(8);not null" json:"author_type"`
	UserAuthorID *uint      `gorm:"index" json:"user_author_id,omitempty"`
	UserAuthor   *User      `gorm:"foreignKey:UserAuthorID" json:"user_author,omitempty"`
	BotAuthorID  *uint      `gorm:"index" json:"bot_author_id,omitempty"`
	BotAuthor    *Bot       `gorm:"foreignKey:BotAuthorID" json:"bot_author,omitempty"`
	OwnerID      uint       `gorm:"not null;index" json:"owner_id"`
	Owner        User       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	ViewCount    int64      `gorm:"default:0" json:"view_count"`
	PinnedAt     *time.Time `json:"pinned_at,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	Tags         []Tag      `gorm:"many2many:post_tags" json:"tags,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeSave enforces the dual-authorship XOR invariant at the persistence
// boundary so no write path can produce a post with both or neither author.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	hasUser := p.UserAuthorID != nil
	hasBot := p.BotAuthorID != nil
	if hasUser == hasBot {
		return ErrAuthorXOR
	}
	if hasUser && p.AuthorType != AuthorTypeUser {
		return ErrAuthorXOR
	}
	if hasBot && p.AuthorType != AuthorTypeBot {
		return ErrAuthorXOR
	}
	return nil
}

// AuthorID returns the id of whichever author reference is set.
func (p *Post) AuthorID() uint {
	if p.AuthorType == AuthorTypeBot && p.BotAuthorID != nil {
		return *p.BotAuthorID
	}
	if p.UserAuthorID != nil {
		return *p.UserAuthorID
	}
	return 0
}

// Editable reports whether content fields may still change. Published and
// archived posts are frozen.
func (p *Post) Editable() bool {
	return p.Status == PostStatusDraft || p.Status == PostStatusPendingReview
}
