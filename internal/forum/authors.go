package forum

import (
	"context"
	"fmt"

	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

// CurrentUserID is the key of the identity used for writers the directory
// does not know about.
const CurrentUserID = "currentUser"

// communityAuthors are the forum regulars that own the seeded posts.
var communityAuthors = map[string]models.PostAuthor{
	CurrentUserID: {ID: CurrentUserID, Name: "GamerPro2024", Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=gamerpro", Level: 15},
	"user1":       {ID: "user1", Name: "ProPlayer_ES", Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=proplayer", Level: 42},
	"user2":       {ID: "user2", Name: "StrategyMaster", Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=strategy", Level: 38},
	"user3":       {ID: "user3", Name: "NoobSlayer", Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=noobslayer", Level: 27},
	"user4":       {ID: "user4", Name: "CasualGamer", Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=casual", Level: 12},
}

// AuthorDirectory resolves the author snapshot stored on posts and
// replies: registered accounts first, then the community table.
type AuthorDirectory struct {
	users repository.UserRepository
}

// NewAuthorDirectory accepts a nil repository, in which case only the
// community table is consulted.
func NewAuthorDirectory(users repository.UserRepository) *AuthorDirectory {
	return &AuthorDirectory{users: users}
}

// Lookup reports whether userID is known.
func (d *AuthorDirectory) Lookup(ctx context.Context, userID string) (models.PostAuthor, bool, error) {
	if d.users != nil {
		u, err := d.users.GetByID(ctx, userID)
		if err != nil {
			return models.PostAuthor{}, false, fmt.Errorf("lookup author: %w", err)
		}
		if u != nil {
			return models.PostAuthor{
				ID:     u.ID,
				Name:   u.Username,
				Avatar: u.Avatar,
				Level:  levelFor(u),
			}, true, nil
		}
	}
	a, ok := communityAuthors[userID]
	return a, ok, nil
}

// Resolve is Lookup with a fallback: unknown writers get the default
// identity, keyed by their own id so authorship checks still hold.
func (d *AuthorDirectory) Resolve(ctx context.Context, userID string) (models.PostAuthor, error) {
	a, ok, err := d.Lookup(ctx, userID)
	if err != nil {
		return models.PostAuthor{}, err
	}
	if !ok {
		a = communityAuthors[CurrentUserID]
		a.ID = userID
	}
	return a, nil
}

func levelFor(u *models.User) int {
	level := 1 + u.TokenUsage/1000
	if u.Plan == models.PlanPremium {
		level += 10
	}
	return level
}
