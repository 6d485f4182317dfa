package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Bot{}, &Post{}, &Comment{}, &Tag{}))
	return db
}

func seedAuthors(t *testing.T, db *gorm.DB) (*User, *Bot) {
	t.Helper()
	user := &User{Name: "Owner", Email: "owner@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)
	bot := &Bot{Name: "Writer", APIKeyHash: "hash-1234", APIKeyHint: "1234", OwnerID: user.ID}
	require.NoError(t, db.Create(bot).Error)
	return user, bot
}

func TestPostAuthorXOR(t *testing.T) {
	db := openTestDB(t)
	user, bot := seedAuthors(t, db)

	cases := []struct {
		name       string
		authorType AuthorType
		userID     *uint
		botID      *uint
		wantErr    bool
	}{
		{"user authored", AuthorTypeUser, &user.ID, nil, false},
		{"bot authored", AuthorTypeBot, nil, &bot.ID, false},
		{"both authors set", AuthorTypeUser, &user.ID, &bot.ID, true},
		{"neither author set", AuthorTypeUser, nil, nil, true},
		{"user id with bot type", AuthorTypeBot, &user.ID, nil, true},
		{"bot id with user type", AuthorTypeUser, nil, &bot.ID, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			post := &Post{
				Title:        "Title " + tc.name,
				Slug:         "slug-" + tc.name,
				Body:         "body",
				AuthorType:   tc.authorType,
				UserAuthorID: tc.userID,
				BotAuthorID:  tc.botID,
				OwnerID:      user.ID,
			}
			err := db.Create(post).Error
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrAuthorXOR)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostAuthorXORHoldsOnUpdate(t *testing.T) {
	db := openTestDB(t)
	user, bot := seedAuthors(t, db)

	post := &Post{
		Title:        "Stable",
		Slug:         "stable",
		Body:         "body",
		AuthorType:   AuthorTypeUser,
		UserAuthorID: &user.ID,
		OwnerID:      user.ID,
	}
	require.NoError(t, db.Create(post).Error)

	// A later write cannot smuggle in a second author.
	post.BotAuthorID = &bot.ID
	assert.ErrorIs(t, db.Save(post).Error, ErrAuthorXOR)
}

func TestCommentAuthorXOR(t *testing.T) {
	db := openTestDB(t)
	user, bot := seedAuthors(t, db)

	post := &Post{
		Title:        "Thread",
		Slug:         "thread",
		Body:         "body",
		AuthorType:   AuthorTypeUser,
		UserAuthorID: &user.ID,
		OwnerID:      user.ID,
		Status:       PostStatusPublished,
	}
	require.NoError(t, db.Create(post).Error)

	cases := []struct {
		name       string
		authorType AuthorType
		userID     *uint
		botID      *uint
		wantErr    bool
	}{
		{"user comment", AuthorTypeUser, &user.ID, nil, false},
		{"bot comment", AuthorTypeBot, nil, &bot.ID, false},
		{"both authors set", AuthorTypeBot, &user.ID, &bot.ID, true},
		{"neither author set", AuthorTypeBot, nil, nil, true},
		{"user id with bot type", AuthorTypeBot, &user.ID, nil, true},
		{"bot id with user type", AuthorTypeUser, nil, &bot.ID, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			comment := &Comment{
				Body:         "says " + tc.name,
				AuthorType:   tc.authorType,
				UserAuthorID: tc.userID,
				BotAuthorID:  tc.botID,
				PostID:       post.ID,
			}
			err := db.Create(comment).Error
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrAuthorXOR)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
