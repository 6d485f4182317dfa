// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/identity"
	"inkwell/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

var (
	firstNames = []string{
		"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Leslie", "Radia",
		"Ken", "Dennis", "Rob", "Russ", "Margaret", "Frances", "Niklaus", "Tony",
	}

	lastNames = []string{
		"Rivera", "Chen", "Okafor", "Lindqvist", "Moreau", "Tanaka", "Novak", "Haddad",
		"Silva", "Kowalski", "Berg", "Fontaine", "Ivanov", "Costa", "Nilsen", "Duarte",
	}

	botNames = []string{
		"digest-writer", "changelog-bot", "weekly-roundup", "link-curator",
		"release-notes", "paper-summarizer", "trend-watcher", "archive-scribe",
	}

	topics = []string{
		"distributed systems", "typography", "compilers", "urban gardening",
		"retro computing", "fermentation", "birdwatching", "static analysis",
		"mechanical keyboards", "cartography", "espresso", "orbital mechanics",
	}

	tagNames = []string{
		"engineering", "essays", "links", "notes", "announcements",
		"deep-dives", "tutorials", "opinion",
	}
)

// Seeder provides granular seeding operations around a single DB handle.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll removes seeded content in dependency order.
func (s *Seeder) ClearAll() error {
	log.Println("🧹 Clearing existing data...")
	tables := []interface{}{
		&models.Reaction{}, &models.Bookmark{}, &models.Comment{},
		&models.Post{}, &models.Tag{}, &models.Bot{}, &models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", table, err)
		}
	}
	// many2many join rows are not covered by model deletes
	return s.db.Exec("DELETE FROM post_tags").Error
}

// Seed populates the database with demo users, bots, and posts in every
// lifecycle state. Plaintext bot API keys are printed once; they are not
// recoverable afterwards.
func (s *Seeder) Seed(opts Options) error {
	log.Printf("🌱 Seeding %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	users, err := s.seedUsers(opts.NumUsers)
	if err != nil {
		return err
	}
	bots, err := s.seedBots(users)
	if err != nil {
		return err
	}
	tags, err := s.seedTags()
	if err != nil {
		return err
	}
	posts, err := s.seedPosts(users, bots, tags, opts.NumPosts)
	if err != nil {
		return err
	}
	if err := s.seedEngagement(users, bots, posts); err != nil {
		return err
	}

	log.Println("✨ Seeding complete.")
	return nil
}

func (s *Seeder) seedUsers(n int) ([]*models.User, error) {
	if n < 2 {
		n = 2
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		first := firstNames[rand.Intn(len(firstNames))]
		last := lastNames[rand.Intn(len(lastNames))]
		user := &models.User{
			Name:     first + " " + last,
			Email:    fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
			Password: string(hashed),
			Bio:      fmt.Sprintf("Writes about %s.", topics[rand.Intn(len(topics))]),
			IsAdmin:  i == 0,
		}
		if err := s.db.Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	log.Printf("👤 Created %d users (password: password123, first user is admin)", len(users))
	return users, nil
}

// seedBots gives each of the first few users a couple of bots with varied
// trust and permission shapes, including one trusted auto-publisher and one
// revoked credential.
func (s *Seeder) seedBots(users []*models.User) ([]*models.Bot, error) {
	var bots []*models.Bot

	owners := users
	if len(owners) > 4 {
		owners = owners[:4]
	}

	for i, owner := range owners {
		for j := 0; j < 2; j++ {
			key, hash, hint, err := identity.GenerateAPIKey()
			if err != nil {
				return nil, err
			}

			bot := &models.Bot{
				Name:        fmt.Sprintf("%s-%d", botNames[(i*2+j)%len(botNames)], i),
				Description: fmt.Sprintf("Automated writer covering %s.", topics[rand.Intn(len(topics))]),
				APIKeyHash:  hash,
				APIKeyHint:  hint,
				Status:      models.BotStatusActive,
				Trusted:     j == 0 && i == 0,
				CanDraft:    true,
				CanPublish:  j == 0,
				CanComment:  true,
				OwnerID:     owner.ID,
			}
			if i == len(owners)-1 && j == 1 {
				bot.Status = models.BotStatusRevoked
			}
			if err := s.db.Create(bot).Error; err != nil {
				return nil, err
			}
			bots = append(bots, bot)

			log.Printf("🤖 Bot %q (owner %s, trusted=%v, can_publish=%v, status=%s) key: %s",
				bot.Name, owner.Email, bot.Trusted, bot.CanPublish, bot.Status, key)
		}
	}
	return bots, nil
}

func (s *Seeder) seedTags() ([]*models.Tag, error) {
	tags := make([]*models.Tag, 0, len(tagNames))
	for _, name := range tagNames {
		tag := &models.Tag{Name: name, Slug: name}
		if err := s.db.Create(tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (s *Seeder) seedPosts(users []*models.User, bots []*models.Bot, tags []*models.Tag, n int) ([]*models.Post, error) {
	if n < 8 {
		n = 8
	}

	statuses := []models.PostStatus{
		models.PostStatusDraft,
		models.PostStatusPendingReview,
		models.PostStatusPublished,
		models.PostStatusPublished,
		models.PostStatusPublished,
		models.PostStatusArchived,
	}
	formats := []models.PostFormat{
		models.PostFormatArticle, models.PostFormatArticle,
		models.PostFormatQuestion, models.PostFormatSnippet,
	}

	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		topic := topics[rand.Intn(len(topics))]
		status := statuses[i%len(statuses)]
		title := fmt.Sprintf("Field notes on %s #%d", topic, i+1)
		body := fmt.Sprintf("Some observations on %s, collected over the last few weeks. %s",
			topic, strings.Repeat("More detail follows. ", 1+rand.Intn(12)))

		post := &models.Post{
			Title:   title,
			Slug:    fmt.Sprintf("field-notes-%d-%d", i, time.Now().UnixNano()%100000),
			Body:    body,
			Excerpt: body[:min(len(body), 200)],
			Format:  formats[i%len(formats)],
			Status:  status,
		}

		// Alternate authorship between users and bots.
		if i%2 == 0 || len(bots) == 0 {
			author := users[rand.Intn(len(users))]
			post.AuthorType = models.AuthorTypeUser
			post.UserAuthorID = &author.ID
			post.OwnerID = author.ID
		} else {
			bot := bots[rand.Intn(len(bots))]
			post.AuthorType = models.AuthorTypeBot
			post.BotAuthorID = &bot.ID
			post.OwnerID = bot.OwnerID
		}

		if status == models.PostStatusPublished {
			publishedAt := time.Now().UTC().Add(-time.Duration(rand.Intn(240)) * time.Hour)
			post.PublishedAt = &publishedAt
			post.ViewCount = int64(rand.Intn(500))
		}

		if err := s.db.Create(post).Error; err != nil {
			return nil, err
		}
		if len(tags) > 0 {
			picked := []models.Tag{*tags[rand.Intn(len(tags))]}
			if err := s.db.Model(post).Association("Tags").Replace(picked); err != nil {
				return nil, err
			}
		}
		posts = append(posts, post)
	}

	log.Printf("📝 Created %d posts across all lifecycle states", len(posts))
	return posts, nil
}

func (s *Seeder) seedEngagement(users []*models.User, bots []*models.Bot, posts []*models.Post) error {
	reactionTypes := []models.ReactionType{
		models.ReactionLike, models.ReactionHeart,
		models.ReactionRocket, models.ReactionThinking,
	}

	for _, post := range posts {
		if post.Status != models.PostStatusPublished {
			continue
		}

		for _, user := range users {
			if rand.Intn(3) != 0 {
				continue
			}
			uid := user.ID
			comment := &models.Comment{
				Body:         fmt.Sprintf("Good point about %s.", topics[rand.Intn(len(topics))]),
				Status:       models.CommentStatusVisible,
				AuthorType:   models.AuthorTypeUser,
				UserAuthorID: &uid,
				PostID:       post.ID,
			}
			if err := s.db.Create(comment).Error; err != nil {
				return err
			}

			if rand.Intn(2) == 0 {
				reaction := &models.Reaction{
					UserID: user.ID,
					PostID: post.ID,
					Type:   reactionTypes[rand.Intn(len(reactionTypes))],
				}
				if err := s.db.Create(reaction).Error; err != nil {
					return err
				}
			}
			if rand.Intn(4) == 0 {
				bookmark := &models.Bookmark{UserID: user.ID, PostID: post.ID}
				if err := s.db.Create(bookmark).Error; err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
