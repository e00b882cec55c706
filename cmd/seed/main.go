// Command seed populates the development database with fake users and
// comment threads.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"colloquy/internal/config"
	"colloquy/internal/database"
	"colloquy/internal/models"
	"colloquy/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	users := flag.Int("users", 20, "number of users to create")
	articles := flag.Int("articles", 5, "number of articles to seed comments under")
	comments := flag.Int("comments", 100, "number of comments to create")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" || cfg.Env == "prod" {
		log.Fatal("refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	seeded := make([]*models.User, 0, *users)
	for i := 0; i < *users; i++ {
		name := gofakeit.Name()
		user := &models.User{
			Username:             fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i),
			DisplayName:          name,
			Email:                fmt.Sprintf("seed%d-%s", i, gofakeit.Email()),
			Password:             string(hashed),
			Role:                 "user",
			MembershipTier:       models.TierFree,
			EmailVerified:        gofakeit.Bool(),
			Reputation:           gofakeit.Number(0, 200),
			MentionNotifications: true,
		}
		if i == 0 {
			user.Role = "moderator"
			user.MembershipTier = models.TierAdmin
		}
		if gofakeit.Number(0, 4) == 0 {
			user.MembershipTier = models.TierPremium
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		seeded = append(seeded, user)
	}
	log.Printf("Created %d users", len(seeded))

	statuses := []string{
		models.StatusAutoApproved, models.StatusAutoApproved, models.StatusApproved,
		models.StatusPending, models.StatusFlagged,
	}

	created := make([]*models.Comment, 0, *comments)
	for i := 0; i < *comments; i++ {
		author := seeded[rand.Intn(len(seeded))]
		comment := &models.Comment{
			ArticleID: uint(rand.Intn(*articles) + 1),
			AuthorID:  &author.ID,
			Content:   gofakeit.Sentence(gofakeit.Number(5, 25)),
			Status:    statuses[rand.Intn(len(statuses))],
			LikeCount: gofakeit.Number(0, 50),
		}
		// Roughly half the comments reply to an earlier visible comment on
		// the same article.
		if len(created) > 0 && rand.Intn(2) == 0 {
			parent := created[rand.Intn(len(created))]
			if parent.Visible() && parent.Depth < cfg.MaxThreadDepth {
				comment.ArticleID = parent.ArticleID
				comment.ParentID = &parent.ID
				comment.Depth = parent.Depth + 1
			}
		}
		if err := commentRepo.Create(ctx, comment); err != nil {
			log.Fatalf("Failed to create comment: %v", err)
		}
		if comment.ParentID != nil {
			if err := commentRepo.IncrementReplyCount(ctx, *comment.ParentID, 1); err != nil {
				log.Fatalf("Failed to bump reply count: %v", err)
			}
		}
		created = append(created, comment)
	}
	log.Printf("Created %d comments across %d articles", len(created), *articles)
}
