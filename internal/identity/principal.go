package identity

import "inkwell/internal/models"

// Kind discriminates the principal union.
type Kind int

const (
	KindAnonymous Kind = iota
	KindUser
	KindBot
)

// Principal is the resolved identity making a request. Exactly one variant
// is populated: nothing for anonymous, UserID for a session user, Bot for a
// bot credential.
type Principal struct {
	Kind   Kind
	UserID uint
	Bot    *models.Bot
}

// Anonymous returns the anonymous principal.
func Anonymous() Principal {
	return Principal{Kind: KindAnonymous}
}

// ForUser returns a principal for a session-authenticated user.
func ForUser(userID uint) Principal {
	return Principal{Kind: KindUser, UserID: userID}
}

// ForBot returns a principal for a bot credential.
func ForBot(bot *models.Bot) Principal {
	return Principal{Kind: KindBot, Bot: bot}
}

// IsAnonymous reports whether no identity was resolved.
func (p Principal) IsAnonymous() bool { return p.Kind == KindAnonymous }

// IsUser reports whether the principal is a session user.
func (p Principal) IsUser() bool { return p.Kind == KindUser }

// IsBot reports whether the principal is a bot.
func (p Principal) IsBot() bool { return p.Kind == KindBot }

// BotID returns the bot's id, or 0 for non-bot principals.
func (p Principal) BotID() uint {
	if p.Kind == KindBot && p.Bot != nil {
		return p.Bot.ID
	}
	return 0
}

// ResolvedOwnerID returns the human the principal ultimately acts for: the
// user itself, or the owning user of a bot credential. Ownership decisions
// (publish, reject, archive) compare against this, so an owner can act
// either directly via session or indirectly by presenting their bot's key.
func (p Principal) ResolvedOwnerID() (uint, bool) {
	switch p.Kind {
	case KindUser:
		return p.UserID, true
	case KindBot:
		if p.Bot != nil {
			return p.Bot.OwnerID, true
		}
	}
	return 0, false
}
