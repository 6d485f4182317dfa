package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"inkwell/internal/identity"
	"inkwell/internal/models"
)

const principalKey = "principal"

// Identity resolves the Authorization header into a principal and stores it
// in the request locals. A missing or non-credential header yields the
// anonymous principal; a malformed, unknown, or revoked bot key is rejected
// outright with 401 so a bot client learns immediately that its credential
// is dead.
func Identity(resolver *identity.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := resolver.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Invalid or revoked API key"))
		}
		c.Locals(principalKey, p)

		// Principal IDs go into the request context here, after resolution,
		// so the context-aware logger sees them in deep service layers.
		ctx := c.UserContext()
		if p.IsUser() {
			c.Locals("userID", p.UserID)
			ctx = context.WithValue(ctx, UserIDKey, p.UserID)
		}
		if p.IsBot() {
			c.Locals("botID", p.BotID())
			ctx = context.WithValue(ctx, BotIDKey, p.BotID())
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// Principal returns the resolved principal, or anonymous when the identity
// middleware has not run.
func Principal(c *fiber.Ctx) identity.Principal {
	if p, ok := c.Locals(principalKey).(identity.Principal); ok {
		return p
	}
	return identity.Anonymous()
}

// RequireUser gates session-only routes: bot credentials are not second-class
// sessions here, they are simply not sessions.
func RequireUser(c *fiber.Ctx) error {
	p := Principal(c)
	if !p.IsUser() {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("User session required"))
	}
	return c.Next()
}

// RequireBot gates routes addressed by bot credential.
func RequireBot(c *fiber.Ctx) error {
	p := Principal(c)
	if !p.IsBot() {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Bot credential required"))
	}
	return c.Next()
}

// RequireIdentity gates routes open to any authenticated principal.
func RequireIdentity(c *fiber.Ctx) error {
	p := Principal(c)
	if p.IsAnonymous() {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Authentication required"))
	}
	return c.Next()
}
