// Package seed fills a development database with fake but valid data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"young_network/logger"
	"young_network/model"
	"young_network/service"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
)

// Password is shared by every seeded account.
const Password = "Seedpass1"

// Seeder writes through the services so seeded rows obey the same rules
// as real traffic.
type Seeder struct {
	users         *service.UserService
	relationships *service.RelationshipService
	messages      *service.MessageService
	posts         *service.PostService
	communities   *service.CommunityService
	music         *service.MusicService
}

type Summary struct {
	Users       int
	Friendships int
	Messages    int
	Posts       int
	Communities int
	Bookmarks   int
}

func NewSeeder(users *service.UserService, relationships *service.RelationshipService, messages *service.MessageService,
	posts *service.PostService, communities *service.CommunityService, music *service.MusicService) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		users:         users,
		relationships: relationships,
		messages:      messages,
		posts:         posts,
		communities:   communities,
		music:         music,
	}
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isConflict(err error) bool {
	var appErr *model.AppError
	return errors.As(err, &appErr) && appErr.Code == model.CodeConflict
}

// Seed creates n users, chains them into friendships and conversations,
// and gives each a post and a music bookmark. Two communities are shared
// by everyone.
func (s *Seeder) Seed(ctx context.Context, n int) (*Summary, error) {
	sum := &Summary{}
	var users []*model.User

	for i := 0; i < n; i++ {
		first := gofakeit.FirstName()
		u, err := s.users.Register(ctx, service.RegisterInput{
			Username:      fmt.Sprintf("%s_%d", slug(first), i+1),
			Email:         fmt.Sprintf("%s.%d@example.com", slug(first), i+1),
			Phone:         "+1555" + gofakeit.Numerify("#######"),
			Password:      Password,
			FullName:      first + " " + gofakeit.LastName(),
			City:          gofakeit.City(),
			AgeConfirmed:  true,
			TermsAccepted: true,
		})
		if isConflict(err) {
			logger.WarnWithFields("skipping seeded user", err, zap.Int("index", i))
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, u)
		sum.Users++
	}

	for i, u := range users {
		if _, err := s.posts.Create(ctx, u.ID, service.CreatePostInput{Content: gofakeit.Sentence(8)}); err != nil {
			return sum, fmt.Errorf("failed to seed post: %w", err)
		}
		sum.Posts++

		if _, err := s.music.Create(ctx, u.ID, service.BookmarkInput{
			Platform:   model.PlatformYouTube,
			ExternalID: gofakeit.LetterN(11),
			Title:      gofakeit.SongName(),
			Artist:     gofakeit.SongArtist(),
			URL:        gofakeit.URL(),
		}); err != nil {
			return sum, fmt.Errorf("failed to seed bookmark: %w", err)
		}
		sum.Bookmarks++

		if i == 0 {
			continue
		}
		prev := users[i-1]
		if err := s.relationships.DirectAdd(ctx, prev.ID, u.ID); err != nil {
			return sum, fmt.Errorf("failed to seed friendship: %w", err)
		}
		sum.Friendships++
		if _, err := s.messages.Send(ctx, prev.ID, u.ID, gofakeit.HipsterSentence()); err != nil {
			return sum, fmt.Errorf("failed to seed message: %w", err)
		}
		sum.Messages++
	}

	if len(users) == 0 {
		return sum, nil
	}
	owner := users[0]
	for i := 0; i < 2; i++ {
		c, err := s.communities.Create(ctx, owner.ID, fmt.Sprintf("%s %d", gofakeit.Hobby(), i+1), gofakeit.Sentence(6), gofakeit.HexColor())
		if err != nil {
			return sum, fmt.Errorf("failed to seed community: %w", err)
		}
		sum.Communities++
		for _, u := range users[1:] {
			if _, err := s.communities.Join(ctx, c.ID, u.ID); err != nil && !isConflict(err) {
				return sum, fmt.Errorf("failed to seed membership: %w", err)
			}
		}
	}

	logger.Log.Info("seed complete",
		zap.Int("users", sum.Users),
		zap.Int("friendships", sum.Friendships),
		zap.Int("messages", sum.Messages),
		zap.Int("posts", sum.Posts),
		zap.Int("communities", sum.Communities),
	)
	return sum, nil
}
