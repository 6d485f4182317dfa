// Package lifecycle is the post state machine. Every status change in the
// system flows through Apply; nothing writes the status column from a raw
// request field. The functions are pure so every transition, guard, and
// idempotent edge can be tested without persistence.
package lifecycle

import (
	"inkwell/internal/models"
)

// Event is a lifecycle trigger.
type Event string

const (
	EventSubmit  Event = "submit"
	EventPublish Event = "publish"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventArchive Event = "archive"
)

// Outcome describes the result of applying an event.
//
// Idempotent outcomes are successes that change nothing: re-approving a
// published post or re-rejecting an archived one. They exist so retried
// requests from unreliable bot clients return 200 instead of an error, and
// SetPublishedAt stays false so the original publication timestamp is
// never overwritten.
type Outcome struct {
	To             models.PostStatus
	SetPublishedAt bool
	Idempotent     bool
}

// BotFlags carries the bot permission bits that influence the submit
// transition. Zero value is correct for human-initiated events.
type BotFlags struct {
	Trusted    bool
	CanPublish bool
}

// Apply computes the transition for an event from the current status.
// Authorization has already happened by the time Apply runs; this layer
// only answers "is this move legal from here, and where does it land".
func Apply(current models.PostStatus, ev Event, flags BotFlags) (Outcome, error) {
	// Archived posts are terminal for every event except the idempotent
	// re-reject and re-archive below.
	if current == models.PostStatusArchived && ev != EventReject && ev != EventArchive {
		return Outcome{}, models.NewInvalidTransitionError("Post is archived and cannot change state")
	}

	switch ev {
	case EventSubmit:
		if current != models.PostStatusDraft {
			return Outcome{}, models.NewInvalidTransitionError("Only draft posts can be submitted for review")
		}
		if flags.Trusted && flags.CanPublish {
			return Outcome{To: models.PostStatusPublished, SetPublishedAt: true}, nil
		}
		return Outcome{To: models.PostStatusPendingReview}, nil

	case EventPublish, EventApprove:
		switch current {
		case models.PostStatusPublished:
			return Outcome{To: models.PostStatusPublished, Idempotent: true}, nil
		case models.PostStatusDraft, models.PostStatusPendingReview:
			return Outcome{To: models.PostStatusPublished, SetPublishedAt: true}, nil
		}
		return Outcome{}, models.NewInvalidTransitionError("Post cannot be published from its current state")

	case EventReject:
		switch current {
		case models.PostStatusArchived:
			return Outcome{To: models.PostStatusArchived, Idempotent: true}, nil
		case models.PostStatusDraft, models.PostStatusPendingReview:
			return Outcome{To: models.PostStatusArchived}, nil
		}
		return Outcome{}, models.NewInvalidTransitionError("Only draft and pending posts can be rejected")

	case EventArchive:
		// Reachable from any state, including published; re-archiving is
		// the idempotent no-op.
		if current == models.PostStatusArchived {
			return Outcome{To: models.PostStatusArchived, Idempotent: true}, nil
		}
		return Outcome{To: models.PostStatusArchived}, nil
	}

	return Outcome{}, models.NewInvalidTransitionError("Unknown lifecycle event")
}

// EditableIn reports whether content fields may change in the given status.
// Kept here with the rest of the state rules; the authorization matrix and
// services consult it rather than comparing statuses themselves.
func EditableIn(status models.PostStatus) bool {
	return status == models.PostStatusDraft || status == models.PostStatusPendingReview
}
