// Package server contains the HTTP handlers for the application's API
// endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/identity"
	"inkwell/internal/middleware"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo     repository.UserRepository
	botRepo      repository.BotRepository
	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
	tagRepo      repository.TagRepository
	reactionRepo repository.ReactionRepository
	bookmarkRepo repository.BookmarkRepository

	resolver *identity.Resolver

	postService       *service.PostService
	botService        *service.BotService
	commentService    *service.CommentService
	engagementService *service.EngagementService
	tagService        *service.TagService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with an in-memory database and a nil Redis client.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("inkwell-api"),
		userRepo:       repository.NewUserRepository(db),
		botRepo:        repository.NewBotRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		tagRepo:        repository.NewTagRepository(db),
		reactionRepo:   repository.NewReactionRepository(db),
		bookmarkRepo:   repository.NewBookmarkRepository(db),
	}

	server.resolver = identity.NewResolver(server.botRepo, cfg.JWTSecret)
	server.postService = service.NewPostService(server.postRepo, server.tagRepo, server.userRepo)
	server.botService = service.NewBotService(server.botRepo, server.userRepo)
	server.commentService = service.NewCommentService(server.commentRepo, server.postRepo)
	server.engagementService = service.NewEngagementService(server.reactionRepo, server.bookmarkRepo, server.postRepo)
	server.tagService = service.NewTagService(server.tagRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Propagate request ID and principal IDs into the request context
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api/v1")

	// Auth routes: the only routes that run without identity resolution
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Everything below resolves the caller: session token, bot key, or
	// anonymous. An invalid or revoked bot key is rejected here with 401.
	api.Use(middleware.Identity(s.resolver))

	// Current-identity routes. /bots/me is registered before the
	// session-gated /bots group so the bot credential path wins.
	api.Get("/me", middleware.RequireUser, s.GetMyProfile)
	api.Get("/me/bookmarks", middleware.RequireUser, s.GetMyBookmarks)
	api.Get("/bots/me", middleware.RequireBot, s.GetBotProfile)

	// Public post routes (visibility is enforced in the service layer)
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchPosts)
	posts.Post("/", middleware.RequireIdentity, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_post"), s.CreatePost)

	// Specific /:id/:resource routes BEFORE generic /:id routes
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", middleware.RequireIdentity, middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.CreateComment)
	posts.Get("/:id/reactions", s.GetReactions)
	posts.Post("/:id/reactions", middleware.RequireUser, s.CreateReaction)
	posts.Delete("/:id/reactions/:type", middleware.RequireUser, s.DeleteReaction)
	posts.Post("/:id/bookmark", middleware.RequireUser, s.CreateBookmark)
	posts.Delete("/:id/bookmark", middleware.RequireUser, s.DeleteBookmark)
	posts.Post("/:id/view", s.RecordView)
	posts.Post("/:id/submit", middleware.RequireBot, s.SubmitPost)
	posts.Post("/:id/publish", middleware.RequireIdentity, s.PublishPost)
	posts.Post("/:id/approve", middleware.RequireIdentity, s.ApprovePost)
	posts.Post("/:id/reject", middleware.RequireIdentity, s.RejectPost)
	posts.Post("/:id/pin", middleware.RequireUser, s.PinPost)
	posts.Delete("/:id/pin", middleware.RequireUser, s.UnpinPost)

	// Generic /:id routes last
	posts.Get("/:id", s.GetPost)
	posts.Patch("/:id", middleware.RequireIdentity, s.UpdatePost)
	posts.Delete("/:id", middleware.RequireIdentity, s.ArchivePost)

	// Review queue, addressed by bot credential or session
	api.Get("/reviews", middleware.RequireIdentity, s.GetReviewQueue)

	// Bot management is session-only; a bot key cannot manage bots
	bots := api.Group("/bots", middleware.RequireUser)
	bots.Post("/", s.CreateBot)
	bots.Get("/", s.GetBots)
	bots.Post("/:id/regenerate-key", s.RegenerateBotKey)
	bots.Get("/:id", s.GetBot)
	bots.Patch("/:id", s.UpdateBot)
	bots.Delete("/:id", s.RevokeBot)

	// Tags
	api.Get("/tags", s.GetTags)
}

// Shutdown releases server-owned resources after the HTTP listener stops.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "ready"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "not ready"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
