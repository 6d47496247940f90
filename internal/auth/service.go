package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lalith-99/playhub/internal/apperr"
	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

const (
	FreeTokenLimit     = 10000
	PremiumTokenLimit  = 100000
	SubscriptionPeriod = 30 * 24 * time.Hour

	minUsernameLength = 3
	minPasswordLength = 6
)

// Config holds what the auth service needs from the outside.
type Config struct {
	Secret   string
	TokenTTL time.Duration
	// HashCost is the bcrypt cost. Zero means bcrypt.DefaultCost.
	HashCost int
}

// Result is returned by Register and Login.
type Result struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// PreferencesPatch updates only the fields that are set.
type PreferencesPatch struct {
	Theme              *string `json:"theme"`
	Language           *string `json:"language"`
	EmailNotifications *bool   `json:"email_notifications"`
	PushNotifications  *bool   `json:"push_notifications"`
	ShowProfile        *bool   `json:"show_profile"`
	ShowActivity       *bool   `json:"show_activity"`
}

// Service is the account registry: credentials, plans, token quotas and
// the map of active login tokens.
//
// A token is valid only while it is both a well-signed unexpired JWT and
// present in the active map. Logout removes it from the map; go-cache
// drops entries on its own once the JWT would have expired anyway.
type Service struct {
	users    repository.UserRepository
	active   *cache.Cache
	secret   string
	ttl      time.Duration
	hashCost int
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(users repository.UserRepository, cfg Config, logger *zap.Logger) *Service {
	cost := cfg.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		users:    users,
		active:   cache.New(cfg.TokenTTL, 10*time.Minute),
		secret:   cfg.Secret,
		ttl:      cfg.TokenTTL,
		hashCost: cost,
		now:      time.Now,
		logger:   logger,
	}
}

// Register creates a free account and logs it in.
func (s *Service) Register(ctx context.Context, email, username, password string) (*Result, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Invalid("email inválido")
	}
	if len([]rune(username)) < minUsernameLength {
		return nil, apperr.Invalid(fmt.Sprintf("el nombre de usuario debe tener al menos %d caracteres", minUsernameLength))
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Invalid(fmt.Sprintf("la contraseña debe tener al menos %d caracteres", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:                 uuid.NewString(),
		Email:              email,
		Username:           username,
		Avatar:             defaultAvatar(username),
		PasswordHash:       string(hash),
		Plan:               models.PlanFree,
		TokenLimit:         FreeTokenLimit,
		SubscriptionStatus: models.SubscriptionNone,
		Preferences:        models.DefaultPreferences(),
		CreatedAt:          now,
		UpdatedAt:          now,
		LastLoginAt:        &now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Invalid("email ya registrado")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return &Result{User: user, Token: token}, nil
}

// Login checks credentials. Unknown email and wrong password produce the
// same error so the response does not reveal which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperr.Unauthenticated("email o contraseña incorrectos")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthenticated("email o contraseña incorrectos")
	}

	now := s.now()
	user, err = s.users.Update(ctx, user.ID, func(u *models.User) error {
		u.LastLoginAt = &now
		u.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	if user == nil {
		return nil, apperr.Unauthenticated("email o contraseña incorrectos")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Token: token}, nil
}

// Logout revokes a single token. Unknown tokens are ignored.
func (s *Service) Logout(_ context.Context, token string) {
	s.active.Delete(token)
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := ParseToken(token, s.secret)
	if err != nil {
		return nil, apperr.Unauthenticated("token inválido o expirado")
	}
	userID, found := s.active.Get(token)
	if !found || userID.(string) != claims.UserID {
		return nil, apperr.Unauthenticated("sesión cerrada")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apperr.Unauthenticated("usuario no encontrado")
	}
	return user, nil
}

// GetUser returns nil, nil for unknown ids.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpgradeToPremium starts a premium period of SubscriptionPeriod.
func (s *Service) UpgradeToPremium(ctx context.Context, userID string) (*models.User, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	now := s.now()
	end := now.Add(SubscriptionPeriod)
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		u.Plan = models.PlanPremium
		u.TokenLimit = PremiumTokenLimit
		u.SubscriptionStatus = models.SubscriptionActive
		u.SubscriptionEnd = &end
		u.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upgrade user: %w", err)
	}
	if user != nil {
		s.logger.Info("user upgraded to premium", zap.String("user_id", userID))
	}
	return user, nil
}

// CancelSubscription drops the user back to the free plan right away.
// Usage above the free limit is kept; the user simply cannot spend more
// until it is reset.
func (s *Service) CancelSubscription(ctx context.Context, userID string) (*models.User, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	now := s.now()
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		if u.Plan != models.PlanPremium {
			return apperr.Invalid("no hay ninguna suscripción activa")
		}
		u.Plan = models.PlanFree
		u.TokenLimit = FreeTokenLimit
		u.SubscriptionStatus = models.SubscriptionCancelled
		u.SubscriptionEnd = &now
		u.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ConsumeTokens charges n tokens to the user's quota. Going over the limit
// caps usage at the limit and returns QuotaExceeded.
func (s *Service) ConsumeTokens(ctx context.Context, userID string, n int) error {
	if err := apperr.RequireUser(userID); err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}
	var exceeded bool
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		u.TokenUsage += n
		if u.TokenUsage > u.TokenLimit {
			u.TokenUsage = u.TokenLimit
			exceeded = true
		}
		u.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return fmt.Errorf("consume tokens: %w", err)
	}
	if user == nil {
		return apperr.Unauthenticated("usuario no encontrado")
	}
	if exceeded {
		return apperr.QuotaExceeded("límite de tokens alcanzado")
	}
	return nil
}

// HasQuota reports whether the user can still spend tokens.
func (s *Service) HasQuota(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return user.TokenUsage < user.TokenLimit, nil
}

func (s *Service) ResetTokenUsage(ctx context.Context, userID string) (*models.User, error) {
	return s.users.Update(ctx, userID, func(u *models.User) error {
		u.TokenUsage = 0
		u.UpdatedAt = s.now()
		return nil
	})
}

var validThemes = map[string]bool{"dark": true, "light": true, "auto": true}

func (s *Service) UpdatePreferences(ctx context.Context, userID string, patch PreferencesPatch) (*models.User, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	if patch.Theme != nil && !validThemes[*patch.Theme] {
		return nil, apperr.Invalid("tema desconocido")
	}
	return s.users.Update(ctx, userID, func(u *models.User) error {
		p := &u.Preferences
		if patch.Theme != nil {
			p.Theme = *patch.Theme
		}
		if patch.Language != nil {
			p.Language = *patch.Language
		}
		if patch.EmailNotifications != nil {
			p.Notifications.Email = *patch.EmailNotifications
		}
		if patch.PushNotifications != nil {
			p.Notifications.Push = *patch.PushNotifications
		}
		if patch.ShowProfile != nil {
			p.Privacy.ShowProfile = *patch.ShowProfile
		}
		if patch.ShowActivity != nil {
			p.Privacy.ShowActivity = *patch.ShowActivity
		}
		u.UpdatedAt = s.now()
		return nil
	})
}

// SeedDemoAccounts creates the demo free and premium accounts when they
// are missing. Safe to call on every start.
func (s *Service) SeedDemoAccounts(ctx context.Context) error {
	demos := []struct {
		email, username string
		premium         bool
	}{
		{"demo@playhub.gg", "DemoPlayer", false},
		{"pro@playhub.gg", "ProGamer", true},
	}
	for _, d := range demos {
		existing, err := s.users.GetByEmail(ctx, d.email)
		if err != nil {
			return fmt.Errorf("seed %s: %w", d.email, err)
		}
		if existing != nil {
			continue
		}
		res, err := s.Register(ctx, d.email, d.username, "demo123")
		if err != nil {
			return fmt.Errorf("seed %s: %w", d.email, err)
		}
		s.Logout(ctx, res.Token)
		if d.premium {
			if _, err := s.UpgradeToPremium(ctx, res.User.ID); err != nil {
				return fmt.Errorf("seed %s: %w", d.email, err)
			}
		}
	}
	return nil
}

func (s *Service) issueToken(u *models.User) (string, error) {
	token, err := GenerateToken(u.ID, u.Email, string(u.Plan), s.secret, s.ttl)
	if err != nil {
		return "", err
	}
	s.active.SetDefault(token, u.ID)
	return token, nil
}

func defaultAvatar(username string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + strings.ToLower(username)
}
