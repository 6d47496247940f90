package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/playhub/internal/i18n"
	"github.com/lalith-99/playhub/internal/models"
)

func newTestResponder(t *testing.T) *Responder {
	t.Helper()
	l, err := i18n.NewLocalizer("es")
	require.NoError(t, err)
	r := NewResponder(l)
	r.pick = func(int) int { return 1 }
	return r
}

func TestReplyMatchesTopics(t *testing.T) {
	r := newTestResponder(t)

	tests := []struct {
		name    string
		game    string
		message string
		want    string
	}{
		{name: "valorant aim", game: "valorant", message: "Cómo mejoro mi PUNTERÍA", want: "Range"},
		{name: "lol runes", game: "lol", message: "qué runas uso", want: "Conquistador"},
		{name: "lol alias", game: "League", message: "mejor build", want: "objeto"},
		{name: "fortnite storm", game: "fortnite", message: "cuando rotar con la tormenta", want: "tormenta"},
		{name: "cs2 utility", game: "cs2", message: "smokes en mirage", want: "Mirage"},
		{name: "minecraft diamonds", game: "minecraft", message: "dónde encuentro diamantes", want: "Y -58"},
		{name: "apex legends", game: "apex", message: "mejor leyenda", want: "Bloodhound"},
		{name: "overwatch roles", game: "overwatch", message: "qué tanque juego", want: "1 tanque"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, r.Reply(tt.game, tt.message, nil, "es"), tt.want)
		})
	}
}

func TestReplyFollowUpOnlyWithinWindow(t *testing.T) {
	r := newTestResponder(t)
	first := r.Reply("valorant", "meta", nil, "es")

	recent := []models.ChatMessage{
		{Type: models.MessageUser, Content: "cuál es el META"},
		{Type: models.MessageIA, Content: first},
	}
	assert.NotEqual(t, first, r.Reply("valorant", "meta otra vez", recent, "es"))

	// The earlier mention falls out of the last six messages.
	old := append([]models.ChatMessage(nil), recent...)
	for i := 0; i < contextWindow; i++ {
		old = append(old, models.ChatMessage{Type: models.MessageUser, Content: "hola"})
	}
	assert.Equal(t, first, r.Reply("valorant", "meta otra vez", old, "es"))
}

func TestReplyIgnoresAssistantMessagesForContext(t *testing.T) {
	r := newTestResponder(t)
	history := []models.ChatMessage{
		{Type: models.MessageIA, Content: r.Welcome("valorant", "es")},
	}
	assert.Equal(t, r.Reply("valorant", "meta", nil, "es"), r.Reply("valorant", "meta", history, "es"))
}

func TestReplyFallsBackToGeneric(t *testing.T) {
	r := newTestResponder(t)
	got := r.Reply("tetris", "qué opinas", nil, "en")
	assert.Equal(t, r.localizer.Get("en", i18n.MsgGenericReply+"1", nil), got)
}

func TestWelcome(t *testing.T) {
	r := newTestResponder(t)
	assert.Contains(t, r.Welcome("Valorant", "es"), "Valorant")
	assert.Contains(t, r.Welcome("csgo", "es"), "Counter-Strike")
	assert.Equal(t, r.localizer.Get("es", i18n.MsgWelcomeGeneric, nil), r.Welcome("pong", "es"))
}
