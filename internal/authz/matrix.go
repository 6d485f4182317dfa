// Package authz is the authorization matrix: pure decision functions that
// determine whether a principal may perform an action on a post. It does no
// I/O; every check works from the already-resolved principal and the loaded
// post, which keeps the whole permission surface unit-testable without a
// transport or database.
package authz

import (
	"inkwell/internal/identity"
	"inkwell/internal/models"
)

// Action enumerates everything the matrix gates.
type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionSubmit  Action = "submit"
	ActionPublish Action = "publish"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionArchive Action = "archive"
	ActionComment Action = "comment"
)

// Decision is the outcome of an authorization check. Hidden marks denials
// that must be surfaced as "not found" so unauthorized callers cannot learn
// that unpublished content exists.
type Decision struct {
	Allowed bool
	Reason  string
	Hidden  bool
}

// Allow is the positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny is a plain denial, surfaced as 403 at the transport.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// DenyHidden is a denial that must be indistinguishable from a missing
// record, surfaced as 404 at the transport.
func DenyHidden(reason string) Decision {
	return Decision{Reason: reason, Hidden: true}
}

// CanCreate decides post creation: any user may create; a bot needs the
// draft permission. Anonymous principals may not create.
func CanCreate(p identity.Principal) Decision {
	switch p.Kind {
	case identity.KindUser:
		return Allow()
	case identity.KindBot:
		if p.Bot.CanDraft {
			return Allow()
		}
		return Deny("Bot does not have draft permission")
	}
	return Deny("Authentication required")
}

// CanComment decides commenting on a post: any user, or a bot with the
// comment permission, and only against a published post. The unpublished
// case is hidden so commenting cannot be used to probe for drafts.
func CanComment(p identity.Principal, post *models.Post) Decision {
	if post.Status != models.PostStatusPublished {
		return DenyHidden("Post is not published")
	}
	switch p.Kind {
	case identity.KindUser:
		return Allow()
	case identity.KindBot:
		if p.Bot.CanComment {
			return Allow()
		}
		return Deny("Bot does not have comment permission")
	}
	return Deny("Authentication required")
}

// Authorize evaluates an action against a post. Rules are checked in the
// documented precedence order; the first matching rule wins.
func Authorize(p identity.Principal, post *models.Post, action Action) Decision {
	switch action {
	case ActionCreate:
		return CanCreate(p)
	case ActionComment:
		return CanComment(p, post)
	case ActionRead:
		return canRead(p, post)
	case ActionEdit:
		return canEdit(p, post)
	case ActionSubmit:
		return canSubmit(p, post)
	case ActionPublish, ActionApprove, ActionReject, ActionArchive:
		return ownerOnly(p, post, action)
	}
	return Deny("Unknown action")
}

// canRead: published posts are world-readable; everything else is visible
// only to the owning user or the authoring bot, and denied-as-missing to
// everyone else.
func canRead(p identity.Principal, post *models.Post) Decision {
	if post.Status == models.PostStatusPublished {
		return Allow()
	}
	if p.IsUser() && p.UserID == post.OwnerID {
		return Allow()
	}
	if p.IsBot() && post.AuthorType == models.AuthorTypeBot &&
		post.BotAuthorID != nil && *post.BotAuthorID == p.BotID() {
		return Allow()
	}
	return DenyHidden("Post is not visible to this principal")
}

// canEdit: content edits belong to the exact author, and only while the
// post is still mutable. Ownership alone does not grant editing; an owner
// who is not the author cannot rewrite a bot's words.
func canEdit(p identity.Principal, post *models.Post) Decision {
	if !post.Editable() {
		return Deny("Published and archived posts cannot be edited")
	}
	switch post.AuthorType {
	case models.AuthorTypeUser:
		if p.IsUser() && post.UserAuthorID != nil && *post.UserAuthorID == p.UserID {
			return Allow()
		}
	case models.AuthorTypeBot:
		if p.IsBot() && post.BotAuthorID != nil && *post.BotAuthorID == p.BotID() {
			return Allow()
		}
	}
	return Deny("Only the author can edit this post")
}

// IsAuthor reports whether the principal is the exact author of the post:
// the authoring user for user posts, the authoring bot for bot posts.
func IsAuthor(p identity.Principal, post *models.Post) bool {
	switch post.AuthorType {
	case models.AuthorTypeUser:
		return p.IsUser() && post.UserAuthorID != nil && *post.UserAuthorID == p.UserID
	case models.AuthorTypeBot:
		return p.IsBot() && post.BotAuthorID != nil && *post.BotAuthorID == p.BotID()
	}
	return false
}

// canSubmit: only the authoring bot submits for review, and only drafts.
func canSubmit(p identity.Principal, post *models.Post) Decision {
	if !p.IsBot() {
		return Deny("Only bots submit posts for review")
	}
	if post.AuthorType != models.AuthorTypeBot || post.BotAuthorID == nil || *post.BotAuthorID != p.BotID() {
		return Deny("Only the authoring bot can submit this post")
	}
	if post.Status != models.PostStatusDraft {
		return Deny("Only draft posts can be submitted for review")
	}
	return Allow()
}

// ownerOnly: publish, approve, reject, and archive are owner decisions.
// The owner may act via session or by presenting a bot credential whose
// owner matches. Authorship never matters here, ownership always does.
func ownerOnly(p identity.Principal, post *models.Post, action Action) Decision {
	ownerID, ok := p.ResolvedOwnerID()
	if !ok {
		return Deny("Authentication required")
	}
	if ownerID != post.OwnerID {
		if action == ActionArchive {
			// Archive denial must not reveal the post exists.
			return DenyHidden("Not the owner of this post")
		}
		return Deny("Only the owner can " + string(action) + " this post")
	}
	return Allow()
}
