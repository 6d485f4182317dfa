// Package service contains the application services. Services take a
// resolved principal, consult the authorization matrix and the lifecycle
// engine, and talk to repositories; handlers never touch those directly.
package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"inkwell/internal/authz"
	"inkwell/internal/identity"
	"inkwell/internal/lifecycle"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

const (
	maxTitleLen   = 300
	maxBodyLen    = 100000
	excerptLen    = 200
	slugMaxLen    = 100
	slugRetryOnce = 2
)

type PostService struct {
	posts repository.PostRepository
	tags  repository.TagRepository
	users repository.UserRepository
}

func NewPostService(
	posts repository.PostRepository,
	tags repository.TagRepository,
	users repository.UserRepository,
) *PostService {
	return &PostService{posts: posts, tags: tags, users: users}
}

type CreatePostInput struct {
	Title  string
	Body   string
	Format models.PostFormat
	Tags   []string
}

// UpdatePostInput carries a partial content edit. Nil fields are untouched.
// Status is deliberately absent: status never changes through an edit.
type UpdatePostInput struct {
	Title  *string
	Body   *string
	Format *models.PostFormat
	Tags   *[]string
}

type ListPostsInput struct {
	Format     models.PostFormat
	AuthorType models.AuthorType
	Status     models.PostStatus
	Query      string
	TagSlug    string
	DateFrom   *time.Time
	DateTo     *time.Time
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

// TransitionResult is the response shape for lifecycle operations. Note
// distinguishes outcomes that share a status code: a submit that published
// immediately vs. one that queued for review, and the idempotent re-approve
// and re-reject no-ops.
type TransitionResult struct {
	ID          uint               `json:"id"`
	Slug        string             `json:"slug"`
	Status      models.PostStatus  `json:"status"`
	Note        string             `json:"note"`
	PublishedAt *time.Time         `json:"published_at,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	Idempotent  bool               `json:"-"`
}

func (s *PostService) Create(ctx context.Context, p identity.Principal, in CreatePostInput) (*models.Post, error) {
	if d := authz.CanCreate(p); !d.Allowed {
		return nil, denyError(p, d)
	}

	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Body) == "" {
		return nil, models.NewValidationError("Title and body are required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if len(in.Body) > maxBodyLen {
		return nil, models.NewValidationError("Body too long (max 100000 characters)")
	}

	format := in.Format
	if format == "" {
		format = models.PostFormatArticle
	}
	if !models.ValidPostFormat(format) {
		return nil, models.NewValidationError("Invalid post format")
	}

	post := &models.Post{
		Title:   in.Title,
		Body:    in.Body,
		Excerpt: makeExcerpt(in.Body),
		Format:  format,
		Status:  models.PostStatusDraft,
	}

	switch p.Kind {
	case identity.KindUser:
		uid := p.UserID
		post.AuthorType = models.AuthorTypeUser
		post.UserAuthorID = &uid
		post.OwnerID = uid
	case identity.KindBot:
		bid := p.Bot.ID
		post.AuthorType = models.AuthorTypeBot
		post.BotAuthorID = &bid
		post.OwnerID = p.Bot.OwnerID
	}

	// The slug carries a time-based suffix, so a collision essentially
	// means two posts in the same millisecond; one retry is enough.
	var err error
	for attempt := 0; attempt < slugRetryOnce; attempt++ {
		post.Slug = makeSlug(in.Title)
		if err = s.posts.Create(ctx, post); err == nil {
			break
		}
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if len(in.Tags) > 0 {
		if err := s.attachTags(ctx, post, in.Tags); err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	return s.reload(ctx, post.ID)
}

// Get applies the read-visibility rules: unauthorized access to an
// unpublished post is reported as absent, byte-identical to a missing id.
func (s *PostService) Get(ctx context.Context, p identity.Principal, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	if d := authz.Authorize(p, post, authz.ActionRead); !d.Allowed {
		observability.AuthzDenials.WithLabelValues(string(authz.ActionRead)).Inc()
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *PostService) List(ctx context.Context, p identity.Principal, in ListPostsInput) ([]*models.Post, int64, error) {
	f := repository.PostFilter{
		Format:     in.Format,
		AuthorType: in.AuthorType,
		Query:      in.Query,
		TagSlug:    in.TagSlug,
		DateFrom:   in.DateFrom,
		DateTo:     in.DateTo,
		SortBy:     in.SortBy,
		SortOrder:  in.SortOrder,
		Limit:      in.Limit,
		Offset:     in.Offset,
	}

	// The public listing is published-only. A bot caller additionally sees
	// its own unpublished posts, and may narrow to an explicit status of
	// its own content.
	switch {
	case p.IsBot() && in.Status != "" && in.Status != models.PostStatusPublished:
		// An explicit non-published status narrows the listing to the
		// calling bot's own authored posts; a sibling bot's drafts stay
		// out of view even within the same owner.
		f.Statuses = []models.PostStatus{in.Status}
		f.BotAuthorID = p.BotID()
	case p.IsBot():
		f.Statuses = []models.PostStatus{models.PostStatusPublished}
		f.VisibleToBotID = p.BotID()
	default:
		f.Statuses = []models.PostStatus{models.PostStatusPublished}
	}

	posts, total, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// Search is always published-only regardless of caller identity.
func (s *PostService) Search(ctx context.Context, in ListPostsInput) ([]*models.Post, int64, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, 0, models.NewValidationError("Search query (q) is required")
	}
	f := repository.PostFilter{
		Format:    in.Format,
		Statuses:  []models.PostStatus{models.PostStatusPublished},
		Query:     in.Query,
		TagSlug:   in.TagSlug,
		SortBy:    "published_at",
		SortOrder: "desc",
		Limit:     in.Limit,
		Offset:    in.Offset,
	}
	posts, total, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// ReviewQueue lists the owner's drafts and pending posts, addressed via a
// bot credential (the owner's review tooling authenticates as their bot).
func (s *PostService) ReviewQueue(ctx context.Context, p identity.Principal, in ListPostsInput) ([]*models.Post, int64, error) {
	ownerID, ok := p.ResolvedOwnerID()
	if !ok {
		return nil, 0, models.NewUnauthenticatedError("Authentication required")
	}

	statuses := []models.PostStatus{models.PostStatusDraft, models.PostStatusPendingReview}
	if in.Status != "" {
		statuses = []models.PostStatus{in.Status}
	}

	f := repository.PostFilter{
		Format:    in.Format,
		OwnerID:   ownerID,
		Statuses:  statuses,
		Query:     in.Query,
		DateFrom:  in.DateFrom,
		DateTo:    in.DateTo,
		SortBy:    in.SortBy,
		SortOrder: in.SortOrder,
		Limit:     in.Limit,
		Offset:    in.Offset,
	}
	posts, total, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// Update edits content fields. Only the exact author may edit, and only
// while the post is a draft or pending review; the slug never changes.
func (s *PostService) Update(ctx context.Context, p identity.Principal, id uint, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}

	if !authz.IsAuthor(p, post) {
		observability.AuthzDenials.WithLabelValues(string(authz.ActionEdit)).Inc()
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}
	if !lifecycle.EditableIn(post.Status) {
		return nil, models.NewInvalidTransitionError("Published and archived posts cannot be edited")
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, models.NewValidationError("Title cannot be empty")
		}
		if len(*in.Title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 300 characters)")
		}
		post.Title = *in.Title
	}
	if in.Body != nil {
		if strings.TrimSpace(*in.Body) == "" {
			return nil, models.NewValidationError("Body cannot be empty")
		}
		if len(*in.Body) > maxBodyLen {
			return nil, models.NewValidationError("Body too long (max 100000 characters)")
		}
		post.Body = *in.Body
		post.Excerpt = makeExcerpt(*in.Body)
	}
	if in.Format != nil {
		if !models.ValidPostFormat(*in.Format) {
			return nil, models.NewValidationError("Invalid post format")
		}
		post.Format = *in.Format
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	if in.Tags != nil {
		if err := s.attachTags(ctx, post, *in.Tags); err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	return s.reload(ctx, post.ID)
}

// Submit moves a bot's draft into review, or straight to published when the
// bot is trusted and holds the publish permission.
func (s *PostService) Submit(ctx context.Context, p identity.Principal, id uint) (*TransitionResult, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}

	if !p.IsBot() || post.AuthorType != models.AuthorTypeBot ||
		post.BotAuthorID == nil || *post.BotAuthorID != p.BotID() {
		observability.AuthzDenials.WithLabelValues(string(authz.ActionSubmit)).Inc()
		return nil, models.NewForbiddenError("Only the authoring bot can submit this post")
	}

	flags := lifecycle.BotFlags{Trusted: p.Bot.Trusted, CanPublish: p.Bot.CanPublish}
	outcome, err := lifecycle.Apply(post.Status, lifecycle.EventSubmit, flags)
	if err != nil {
		return nil, err
	}

	applied, err := s.posts.Transition(ctx, post.ID,
		[]models.PostStatus{models.PostStatusDraft}, outcome.To, outcome.SetPublishedAt)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !applied {
		// A concurrent transition moved the post out of draft first.
		return nil, models.NewInvalidTransitionError("Only draft posts can be submitted for review")
	}

	observability.PostTransitions.WithLabelValues(string(lifecycle.EventSubmit), string(outcome.To)).Inc()

	updated, err := s.reload(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	note := "pending_review"
	if outcome.To == models.PostStatusPublished {
		note = "published"
	}
	return &TransitionResult{
		ID:          updated.ID,
		Slug:        updated.Slug,
		Status:      updated.Status,
		Note:        note,
		PublishedAt: updated.PublishedAt,
	}, nil
}

// Publish is the owner-initiated transition to published. Approve shares
// its semantics; both are idempotent against an already-published post.
func (s *PostService) Publish(ctx context.Context, p identity.Principal, id uint, ev lifecycle.Event) (*TransitionResult, error) {
	post, err := s.ownerPost(ctx, p, id, authz.ActionPublish)
	if err != nil {
		return nil, err
	}

	outcome, err := lifecycle.Apply(post.Status, ev, lifecycle.BotFlags{})
	if err != nil {
		return nil, err
	}
	if outcome.Idempotent {
		return &TransitionResult{
			ID:          post.ID,
			Slug:        post.Slug,
			Status:      post.Status,
			Note:        "already_published",
			PublishedAt: post.PublishedAt,
			Idempotent:  true,
		}, nil
	}

	applied, err := s.posts.Transition(ctx, post.ID,
		[]models.PostStatus{models.PostStatusDraft, models.PostStatusPendingReview},
		outcome.To, outcome.SetPublishedAt)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	updated, err := s.reload(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the conditional update. If a concurrent approval already
		// published the post this is the idempotent success; anything else
		// is a real transition failure.
		if updated.Status == models.PostStatusPublished {
			return &TransitionResult{
				ID:          updated.ID,
				Slug:        updated.Slug,
				Status:      updated.Status,
				Note:        "already_published",
				PublishedAt: updated.PublishedAt,
				Idempotent:  true,
			}, nil
		}
		return nil, models.NewInvalidTransitionError("Post cannot be published from its current state")
	}

	observability.PostTransitions.WithLabelValues(string(ev), string(outcome.To)).Inc()

	return &TransitionResult{
		ID:          updated.ID,
		Slug:        updated.Slug,
		Status:      updated.Status,
		Note:        "published",
		PublishedAt: updated.PublishedAt,
	}, nil
}

// Reject archives a draft or pending post. Re-rejecting an archived post is
// the idempotent success. The reason is echoed back, never persisted.
func (s *PostService) Reject(ctx context.Context, p identity.Principal, id uint, reason string) (*TransitionResult, error) {
	post, err := s.ownerPost(ctx, p, id, authz.ActionReject)
	if err != nil {
		return nil, err
	}

	outcome, err := lifecycle.Apply(post.Status, lifecycle.EventReject, lifecycle.BotFlags{})
	if err != nil {
		return nil, err
	}
	if outcome.Idempotent {
		return &TransitionResult{
			ID:         post.ID,
			Slug:       post.Slug,
			Status:     post.Status,
			Note:       "already_archived",
			Reason:     reason,
			Idempotent: true,
		}, nil
	}

	applied, err := s.posts.Transition(ctx, post.ID,
		[]models.PostStatus{models.PostStatusDraft, models.PostStatusPendingReview},
		outcome.To, false)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	updated, err := s.reload(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		if updated.Status == models.PostStatusArchived {
			return &TransitionResult{
				ID:         updated.ID,
				Slug:       updated.Slug,
				Status:     updated.Status,
				Note:       "already_archived",
				Reason:     reason,
				Idempotent: true,
			}, nil
		}
		return nil, models.NewInvalidTransitionError("Only draft and pending posts can be rejected")
	}

	observability.PostTransitions.WithLabelValues(string(lifecycle.EventReject), string(outcome.To)).Inc()

	return &TransitionResult{
		ID:     updated.ID,
		Slug:   updated.Slug,
		Status: updated.Status,
		Note:   "archived",
		Reason: reason,
	}, nil
}

// Archive is the owner's delete. A non-owner is told the post does not
// exist; archive must not leak existence the way a 403 would.
func (s *PostService) Archive(ctx context.Context, p identity.Principal, id uint) (*TransitionResult, error) {
	post, err := s.ownerPost(ctx, p, id, authz.ActionArchive)
	if err != nil {
		return nil, err
	}

	outcome, err := lifecycle.Apply(post.Status, lifecycle.EventArchive, lifecycle.BotFlags{})
	if err != nil {
		return nil, err
	}
	if outcome.Idempotent {
		return &TransitionResult{
			ID: post.ID, Slug: post.Slug, Status: post.Status,
			Note: "already_archived", Idempotent: true,
		}, nil
	}

	_, err = s.posts.Transition(ctx, post.ID,
		[]models.PostStatus{models.PostStatusDraft, models.PostStatusPendingReview, models.PostStatusPublished},
		models.PostStatusArchived, false)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.PostTransitions.WithLabelValues(string(lifecycle.EventArchive), string(models.PostStatusArchived)).Inc()

	return &TransitionResult{
		ID: post.ID, Slug: post.Slug, Status: models.PostStatusArchived, Note: "archived",
	}, nil
}

// IncrementView bumps the view counter of a published post. The increment
// is relaxed; lost updates under contention are acceptable.
func (s *PostService) IncrementView(ctx context.Context, id uint) (int64, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	if post == nil || post.Status != models.PostStatusPublished {
		return 0, models.NewNotFoundError("Post", id)
	}
	count, err := s.posts.IncrementViewCount(ctx, id)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// SetPinned pins or unpins a post on the front page. Admin only.
func (s *PostService) SetPinned(ctx context.Context, p identity.Principal, id uint, pinned bool) error {
	if !p.IsUser() {
		return models.NewUnauthenticatedError("Authentication required")
	}
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if user == nil || !user.IsAdmin {
		return models.NewForbiddenError("Admin access required")
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return models.NewInternalError(err)
	}
	if post == nil {
		return models.NewNotFoundError("Post", id)
	}

	var pinnedAt *time.Time
	if pinned {
		now := time.Now().UTC()
		pinnedAt = &now
	}
	if err := s.posts.SetPinned(ctx, id, pinnedAt); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ownerPost loads a post and enforces the owner-only gate for the given action.
func (s *PostService) ownerPost(ctx context.Context, p identity.Principal, id uint, action authz.Action) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	if d := authz.Authorize(p, post, action); !d.Allowed {
		observability.AuthzDenials.WithLabelValues(string(action)).Inc()
		if d.Hidden {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, denyError(p, d)
	}
	return post, nil
}

func (s *PostService) reload(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *PostService) attachTags(ctx context.Context, post *models.Post, names []string) error {
	var tags []models.Tag
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tag, err := s.tags.UpsertBySlug(ctx, name)
		if err != nil {
			return err
		}
		tags = append(tags, *tag)
	}
	return s.posts.ReplaceTags(ctx, post, tags)
}

// denyError maps an authorization denial to the error taxonomy: hidden
// denials become not-found upstream, anonymous callers get 401, everything
// else 403.
func denyError(p identity.Principal, d authz.Decision) error {
	if p.IsAnonymous() {
		return models.NewUnauthenticatedError("Authentication required")
	}
	return models.NewForbiddenError(d.Reason)
}

// makeSlug derives a URL slug from the title: lowercased, non-alphanumeric
// runs collapsed to single dashes, capped, with a base36 time suffix for
// uniqueness. Slugs are immutable once assigned.
func makeSlug(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
		if b.Len() >= slugMaxLen {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "post"
	}
	return slug + "-" + strconv.FormatInt(time.Now().UnixMilli(), 36)
}

// makeExcerpt takes the first ~200 characters of the body, cut on a rune
// boundary and trimmed of trailing partial whitespace.
func makeExcerpt(body string) string {
	runes := []rune(body)
	if len(runes) <= excerptLen {
		return body
	}
	return strings.TrimRightFunc(string(runes[:excerptLen]), unicode.IsSpace)
}
