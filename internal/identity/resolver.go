package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential is returned when a bot-shaped token is presented but
// does not resolve to an active bot. Malformed keys, unknown keys, and
// revoked bots all produce this same error so callers cannot distinguish
// them (a revoked bot must not be detectable from the outside).
var ErrInvalidCredential = errors.New("invalid or missing API key")

// BotSource looks up an active bot by its API key hash. Revoked bots must
// not be returned; the lookup failing is the revocation taking effect.
type BotSource interface {
	GetActiveByKeyHash(ctx context.Context, hash string) (*models.Bot, error)
}

// Resolver turns an Authorization header into a Principal. Bot-shaped
// bearer tokens are validated against the credential store; any other
// bearer token is treated as a session token and parsed as a JWT. Absence
// of both degrades to Anonymous, never an error.
type Resolver struct {
	bots      BotSource
	jwtSecret string
}

// NewResolver creates a resolver backed by the given bot source and session secret.
func NewResolver(bots BotSource, jwtSecret string) *Resolver {
	return &Resolver{bots: bots, jwtSecret: jwtSecret}
}

// Resolve determines the acting principal for a request.
// The only error it returns is ErrInvalidCredential, and only when the
// caller presented a bot-shaped token that failed validation; everything
// else degrades to Anonymous and leaves the response decision to the caller.
func (r *Resolver) Resolve(ctx context.Context, authHeader string) (Principal, error) {
	token, ok := bearerToken(authHeader)
	if !ok {
		return Anonymous(), nil
	}

	if IsBotToken(token) {
		return r.resolveBot(ctx, token)
	}

	if userID, ok := r.parseSessionToken(token); ok {
		return ForUser(userID), nil
	}
	return Anonymous(), nil
}

func (r *Resolver) resolveBot(ctx context.Context, token string) (Principal, error) {
	// Shape check first: malformed keys never reach the database.
	if !ValidKeyFormat(token) {
		observability.BotAuthFailures.WithLabelValues("malformed").Inc()
		return Anonymous(), ErrInvalidCredential
	}

	bot, err := r.bots.GetActiveByKeyHash(ctx, HashAPIKey(token))
	if err != nil {
		return Anonymous(), err
	}
	if bot == nil {
		observability.BotAuthFailures.WithLabelValues("unknown_or_revoked").Inc()
		return Anonymous(), ErrInvalidCredential
	}
	return ForBot(bot), nil
}

// parseSessionToken validates a JWT session token and extracts the user ID
// from the "sub" claim. Invalid tokens yield (0, false), not an error: the
// session collaborator owns the 401 decision.
func (r *Resolver) parseSessionToken(tokenString string) (uint, bool) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(r.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
