package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lalith-99/playhub/internal/apperr"
	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository/memory"
)

const testSecret = "test-secret"

func newTestService() *Service {
	return NewService(memory.NewUserStore(), Config{
		Secret:   testSecret,
		TokenTTL: time.Hour,
		HashCost: bcrypt.MinCost,
	}, zap.NewNop())
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	res, err := svc.Register(ctx, "ana@playhub.gg", "ana", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, models.PlanFree, res.User.Plan)
	assert.Equal(t, FreeTokenLimit, res.User.TokenLimit)
	assert.Equal(t, "es", res.User.Preferences.Language)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)

	_, err = svc.Register(ctx, "ANA@playhub.gg", "ana2", "secret1")
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		username string
		password string
	}{
		{name: "bad email", email: "not-an-email", username: "ana", password: "secret1"},
		{name: "short username", email: "a@playhub.gg", username: "an", password: "secret1"},
		{name: "short password", email: "a@playhub.gg", username: "ana", password: "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService().Register(context.Background(), tt.email, tt.username, tt.password)
			assert.ErrorIs(t, err, apperr.ErrInvalid)
		})
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, err := svc.Register(ctx, "ana@playhub.gg", "ana", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ana@playhub.gg", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.Login(ctx, "nobody@playhub.gg", "secret1")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	res, err := svc.Login(ctx, "ana@playhub.gg", "secret1")
	require.NoError(t, err)
	require.NotNil(t, res.User.LastLoginAt)

	user, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)
}

func TestLogoutRevokesOnlyThatToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	first, err := svc.Register(ctx, "ana@playhub.gg", "ana", "secret1")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "ana@playhub.gg", "secret1")
	require.NoError(t, err)

	svc.Logout(ctx, first.Token)

	_, err = svc.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)
}

func TestAuthenticateRejectsForeignToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	token, err := GenerateToken("u1", "x@playhub.gg", "free", "other-secret", time.Hour)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestUpgradeAndCancel(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	res, err := svc.Register(ctx, "ana@playhub.gg", "ana", "secret1")
	require.NoError(t, err)

	_, err = svc.CancelSubscription(ctx, res.User.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	user, err := svc.UpgradeToPremium(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, user.Plan)
	assert.Equal(t, PremiumTokenLimit, user.TokenLimit)
	assert.Equal(t, models.SubscriptionActive, user.SubscriptionStatus)
	require.NotNil(t, user.SubscriptionEnd)

	user, err = svc.CancelSubscription(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, user.Plan)
	assert.Equal(t, models.SubscriptionCancelled, user.SubscriptionStatus)

	missing, err := svc.UpgradeToPremium(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestConsumeTokens(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	res, err := svc.Register(ctx, "ana@playhub.gg", "ana", "secret1")
	require.NoError(t, err)
	id := res.User.ID

	require.NoError(t, svc.ConsumeTokens(ctx, id, FreeTokenLimit-10))
	ok, err := svc.HasQuota(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	err = svc.ConsumeTokens(ctx, id, 50)
	assert.ErrorIs(t, err, apperr.ErrQuotaExceeded)

	user, _ := svc.GetUser(ctx, id)
	assert.Equal(t, FreeTokenLimit, user.TokenUsage)
	ok, _ = svc.HasQuota(ctx, id)
	assert.False(t, ok)

	user, err = svc.ResetTokenUsage(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, user.TokenUsage)

	assert.ErrorIs(t, svc.ConsumeTokens(ctx, "", 5), apperr.ErrUnauthenticated)
}

func TestUpdatePreferences(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	res, err := svc.Register(ctx, "ana@playhub.gg", "ana", "secret1")
	require.NoError(t, err)

	light := "light"
	off := false
	user, err := svc.UpdatePreferences(ctx, res.User.ID, PreferencesPatch{Theme: &light, EmailNotifications: &off})
	require.NoError(t, err)
	assert.Equal(t, "light", user.Preferences.Theme)
	assert.False(t, user.Preferences.Notifications.Email)
	assert.True(t, user.Preferences.Privacy.ShowProfile)

	neon := "neon"
	_, err = svc.UpdatePreferences(ctx, res.User.ID, PreferencesPatch{Theme: &neon})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestSeedDemoAccountsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	require.NoError(t, svc.SeedDemoAccounts(ctx))
	require.NoError(t, svc.SeedDemoAccounts(ctx))

	res, err := svc.Login(ctx, "pro@playhub.gg", "demo123")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, res.User.Plan)
}
