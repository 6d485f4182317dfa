package service

import (
	"context"
	"strings"

	"inkwell/internal/identity"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const maxBotNameLen = 100

type BotService struct {
	bots  repository.BotRepository
	users repository.UserRepository
}

func NewBotService(bots repository.BotRepository, users repository.UserRepository) *BotService {
	return &BotService{bots: bots, users: users}
}

type CreateBotInput struct {
	Name        string
	Description string
	Avatar      string
	CanDraft    *bool
	CanPublish  *bool
	CanComment  *bool
}

// UpdateBotInput is a partial update of bot metadata and permission flags.
// Status is deliberately absent: revocation has its own endpoint and a
// revoked bot cannot be edited back to life through a field update.
type UpdateBotInput struct {
	Name        *string
	Description *string
	Avatar      *string
	Trusted     *bool
	CanDraft    *bool
	CanPublish  *bool
	CanComment  *bool
}

// BotWithKey pairs a bot with the plaintext API key. The key exists only in
// this response; afterwards the server holds nothing but the digest.
type BotWithKey struct {
	Bot *models.Bot `json:"bot"`
	Key string      `json:"api_key"`
}

// BotProfile is a bot plus its owner and authored-content counts, the
// response shape for the credential self-inspection endpoint.
type BotProfile struct {
	Bot          *models.Bot  `json:"bot"`
	Owner        *models.User `json:"owner,omitempty"`
	PostCount    int64        `json:"post_count"`
	CommentCount int64        `json:"comment_count"`
}

// Create mints a bot with a fresh credential. This is the only time the
// plaintext key crosses the wire.
func (s *BotService) Create(ctx context.Context, ownerID uint, in CreateBotInput) (*BotWithKey, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewValidationError("Bot name is required")
	}
	if len(in.Name) > maxBotNameLen {
		return nil, models.NewValidationError("Bot name too long (max 100 characters)")
	}

	key, hash, hint, err := identity.GenerateAPIKey()
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	bot := &models.Bot{
		Name:        in.Name,
		Description: in.Description,
		Avatar:      in.Avatar,
		APIKeyHash:  hash,
		APIKeyHint:  hint,
		Status:      models.BotStatusActive,
		CanDraft:    true,
		CanPublish:  false,
		CanComment:  true,
		OwnerID:     ownerID,
	}
	if in.CanDraft != nil {
		bot.CanDraft = *in.CanDraft
	}
	if in.CanPublish != nil {
		bot.CanPublish = *in.CanPublish
	}
	if in.CanComment != nil {
		bot.CanComment = *in.CanComment
	}

	if err := s.bots.Create(ctx, bot); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &BotWithKey{Bot: bot, Key: key}, nil
}

func (s *BotService) List(ctx context.Context, ownerID uint) ([]*models.Bot, error) {
	bots, err := s.bots.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bots, nil
}

// Get returns one of the owner's bots with its content counts. A bot owned
// by someone else is reported as absent.
func (s *BotService) Get(ctx context.Context, ownerID, id uint) (*BotProfile, error) {
	bot, err := s.bots.GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if bot == nil {
		return nil, models.NewNotFoundError("Bot", id)
	}
	posts, comments, err := s.bots.ContentCounts(ctx, bot.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &BotProfile{Bot: bot, PostCount: posts, CommentCount: comments}, nil
}

func (s *BotService) Update(ctx context.Context, ownerID, id uint, in UpdateBotInput) (*models.Bot, error) {
	bot, err := s.bots.GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if bot == nil {
		return nil, models.NewNotFoundError("Bot", id)
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, models.NewValidationError("Bot name cannot be empty")
		}
		if len(*in.Name) > maxBotNameLen {
			return nil, models.NewValidationError("Bot name too long (max 100 characters)")
		}
		bot.Name = *in.Name
	}
	if in.Description != nil {
		bot.Description = *in.Description
	}
	if in.Avatar != nil {
		bot.Avatar = *in.Avatar
	}
	if in.Trusted != nil {
		bot.Trusted = *in.Trusted
	}
	if in.CanDraft != nil {
		bot.CanDraft = *in.CanDraft
	}
	if in.CanPublish != nil {
		bot.CanPublish = *in.CanPublish
	}
	if in.CanComment != nil {
		bot.CanComment = *in.CanComment
	}

	if err := s.bots.Update(ctx, bot); err != nil {
		return nil, models.NewInternalError(err)
	}
	return bot, nil
}

// Revoke kills the credential. In-flight requests that already resolved the
// bot finish; the very next lookup of the key fails. Revoking twice is a
// no-op success.
func (s *BotService) Revoke(ctx context.Context, ownerID, id uint) (*models.Bot, error) {
	bot, err := s.bots.GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if bot == nil {
		return nil, models.NewNotFoundError("Bot", id)
	}
	if err := s.bots.Revoke(ctx, bot.ID); err != nil {
		return nil, models.NewInternalError(err)
	}
	bot.Status = models.BotStatusRevoked
	return bot, nil
}

// RegenerateKey mints a fresh credential and swaps it in atomically; the old
// key stops working the moment the swap commits. Works on revoked bots too,
// though the new key will not authenticate until the bot is active again.
func (s *BotService) RegenerateKey(ctx context.Context, ownerID, id uint) (*BotWithKey, error) {
	bot, err := s.bots.GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if bot == nil {
		return nil, models.NewNotFoundError("Bot", id)
	}

	key, hash, hint, err := identity.GenerateAPIKey()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.bots.RotateKey(ctx, bot.ID, hash, hint); err != nil {
		return nil, models.NewInternalError(err)
	}
	bot.APIKeyHash = hash
	bot.APIKeyHint = hint
	return &BotWithKey{Bot: bot, Key: key}, nil
}

// Profile resolves the calling bot credential to its own record, owner, and
// content counts.
func (s *BotService) Profile(ctx context.Context, p identity.Principal) (*BotProfile, error) {
	if !p.IsBot() {
		return nil, models.NewUnauthenticatedError("Bot credential required")
	}
	bot := p.Bot

	owner, err := s.users.GetByID(ctx, bot.OwnerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	posts, comments, err := s.bots.ContentCounts(ctx, bot.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &BotProfile{Bot: bot, Owner: owner, PostCount: posts, CommentCount: comments}, nil
}
