package models

import (
	"time"
)

// BotStatus is the lifecycle state of a bot credential.
type BotStatus string

const (
	BotStatusActive  BotStatus = "ACTIVE"
	BotStatusRevoked BotStatus = "REVOKED"
)

// Bot represents an autonomous agent identity owned by exactly one user.
// The API key is stored only as a one-way digest; APIKeyHint keeps the last
// four characters of the plaintext so owners can tell their keys apart.
// Bots are never hard-deleted: revocation flips Status so authored posts and
// comments keep a resolvable author.
type Bot struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Avatar      string    `json:"avatar"`
	APIKeyHash  string    `gorm:"uniqueIndex;not null" json:"-"`
	APIKeyHint  string    `gorm:"size:4" json:"api_key_hint"`
	Trusted     bool      `gorm:"default:false" json:"trusted"`
	Status      BotStatus `gorm:"type:varchar(16);default:'ACTIVE';index" json:"status"`
	CanDraft    bool      `gorm:"default:true" json:"can_draft"`
	CanPublish  bool      `gorm:"default:false" json:"can_publish"`
	CanComment  bool      `gorm:"default:true" json:"can_comment"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Owner       User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	// No DeletedAt: revocation is the only soft-delete this entity supports.
}

// Active reports whether the bot may still authenticate.
func (b *Bot) Active() bool {
	return b.Status == BotStatusActive
}
