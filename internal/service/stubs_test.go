package service

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint) (*models.Post, error)
	getBySlugFn     func(context.Context, string) (*models.Post, error)
	listFn          func(context.Context, repository.PostFilter) ([]*models.Post, int64, error)
	updateFn        func(context.Context, *models.Post) error
	replaceTagsFn   func(context.Context, *models.Post, []models.Tag) error
	transitionFn    func(context.Context, uint, []models.PostStatus, models.PostStatus, bool) (bool, error)
	incrementViewFn func(context.Context, uint) (int64, error)
	setPinnedFn     func(context.Context, uint, *time.Time) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *postRepoStub) List(ctx context.Context, f repository.PostFilter) ([]*models.Post, int64, error) {
	return s.listFn(ctx, f)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) ReplaceTags(ctx context.Context, post *models.Post, tags []models.Tag) error {
	return s.replaceTagsFn(ctx, post, tags)
}
func (s *postRepoStub) Transition(ctx context.Context, id uint, from []models.PostStatus, to models.PostStatus, setPublishedAt bool) (bool, error) {
	return s.transitionFn(ctx, id, from, to, setPublishedAt)
}
func (s *postRepoStub) IncrementViewCount(ctx context.Context, id uint) (int64, error) {
	return s.incrementViewFn(ctx, id)
}
func (s *postRepoStub) SetPinned(ctx context.Context, id uint, pinnedAt *time.Time) error {
	return s.setPinnedFn(ctx, id, pinnedAt)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:      func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		getByIDFn:     func(_ context.Context, _ uint) (*models.Post, error) { return nil, nil },
		getBySlugFn:   func(_ context.Context, _ string) (*models.Post, error) { return nil, nil },
		listFn:        func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) { return nil, 0, nil },
		updateFn:      func(_ context.Context, _ *models.Post) error { return nil },
		replaceTagsFn: func(_ context.Context, _ *models.Post, _ []models.Tag) error { return nil },
		transitionFn: func(_ context.Context, _ uint, _ []models.PostStatus, _ models.PostStatus, _ bool) (bool, error) {
			return true, nil
		},
		incrementViewFn: func(_ context.Context, _ uint) (int64, error) { return 1, nil },
		setPinnedFn:     func(_ context.Context, _ uint, _ *time.Time) error { return nil },
	}
}

// trackingPostRepo keeps one in-memory post and applies Transition calls to
// it the way the database would, including the COALESCE on published_at.
type trackingPostRepo struct {
	*postRepoStub
	post            *models.Post
	transitionCalls int
}

func newTrackingPostRepo(post *models.Post) *trackingPostRepo {
	r := &trackingPostRepo{postRepoStub: noopPostRepo(), post: post}
	r.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		if r.post != nil && r.post.ID == id {
			return r.post, nil
		}
		return nil, nil
	}
	r.transitionFn = func(_ context.Context, id uint, from []models.PostStatus, to models.PostStatus, setPublishedAt bool) (bool, error) {
		r.transitionCalls++
		if r.post == nil || r.post.ID != id {
			return false, nil
		}
		matched := false
		for _, f := range from {
			if r.post.Status == f {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
		r.post.Status = to
		if setPublishedAt && r.post.PublishedAt == nil {
			now := time.Now().UTC()
			r.post.PublishedAt = &now
		}
		return true, nil
	}
	return r
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	upsertFn func(context.Context, string) (*models.Tag, error)
	listFn   func(context.Context) ([]repository.TagWithCount, error)
}

func (s *tagRepoStub) UpsertBySlug(ctx context.Context, name string) (*models.Tag, error) {
	return s.upsertFn(ctx, name)
}
func (s *tagRepoStub) List(ctx context.Context) ([]repository.TagWithCount, error) {
	return s.listFn(ctx)
}

func noopTagRepo() *tagRepoStub {
	return &tagRepoStub{
		upsertFn: func(_ context.Context, name string) (*models.Tag, error) {
			return &models.Tag{ID: 1, Name: name, Slug: name}, nil
		},
		listFn: func(_ context.Context) ([]repository.TagWithCount, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn     func(context.Context, *models.User) error
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:     func(_ context.Context, u *models.User) error { u.ID = 1; return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
	}
}

// botRepoStub is a stub for repository.BotRepository.
type botRepoStub struct {
	createFn        func(context.Context, *models.Bot) error
	getByIDFn       func(context.Context, uint) (*models.Bot, error)
	getForOwnerFn   func(context.Context, uint, uint) (*models.Bot, error)
	listByOwnerFn   func(context.Context, uint) ([]*models.Bot, error)
	getActiveFn     func(context.Context, string) (*models.Bot, error)
	updateFn        func(context.Context, *models.Bot) error
	rotateKeyFn     func(context.Context, uint, string, string) error
	revokeFn        func(context.Context, uint) error
	contentCountsFn func(context.Context, uint) (int64, int64, error)
}

func (s *botRepoStub) Create(ctx context.Context, bot *models.Bot) error {
	return s.createFn(ctx, bot)
}
func (s *botRepoStub) GetByID(ctx context.Context, id uint) (*models.Bot, error) {
	return s.getByIDFn(ctx, id)
}
func (s *botRepoStub) GetByIDForOwner(ctx context.Context, id, ownerID uint) (*models.Bot, error) {
	return s.getForOwnerFn(ctx, id, ownerID)
}
func (s *botRepoStub) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Bot, error) {
	return s.listByOwnerFn(ctx, ownerID)
}
func (s *botRepoStub) GetActiveByKeyHash(ctx context.Context, hash string) (*models.Bot, error) {
	return s.getActiveFn(ctx, hash)
}
func (s *botRepoStub) Update(ctx context.Context, bot *models.Bot) error {
	return s.updateFn(ctx, bot)
}
func (s *botRepoStub) RotateKey(ctx context.Context, id uint, hash, hint string) error {
	return s.rotateKeyFn(ctx, id, hash, hint)
}
func (s *botRepoStub) Revoke(ctx context.Context, id uint) error {
	return s.revokeFn(ctx, id)
}
func (s *botRepoStub) ContentCounts(ctx context.Context, botID uint) (int64, int64, error) {
	return s.contentCountsFn(ctx, botID)
}

func noopBotRepo() *botRepoStub {
	return &botRepoStub{
		createFn:        func(_ context.Context, b *models.Bot) error { b.ID = 1; return nil },
		getByIDFn:       func(_ context.Context, _ uint) (*models.Bot, error) { return nil, nil },
		getForOwnerFn:   func(_ context.Context, _, _ uint) (*models.Bot, error) { return nil, nil },
		listByOwnerFn:   func(_ context.Context, _ uint) ([]*models.Bot, error) { return nil, nil },
		getActiveFn:     func(_ context.Context, _ string) (*models.Bot, error) { return nil, nil },
		updateFn:        func(_ context.Context, _ *models.Bot) error { return nil },
		rotateKeyFn:     func(_ context.Context, _ uint, _, _ string) error { return nil },
		revokeFn:        func(_ context.Context, _ uint) error { return nil },
		contentCountsFn: func(_ context.Context, _ uint) (int64, int64, error) { return 0, 0, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn func(context.Context, *models.Comment) error
	listFn   func(context.Context, uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListVisibleByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error { c.ID = 1; return nil },
		listFn:   func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
	}
}

// assertAppCode asserts that err is an AppError with the given code.
func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code, "message: %s", appErr.Message)
}
