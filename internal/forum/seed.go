package forum

import (
	"time"

	"github.com/lalith-99/playhub/internal/models"
)

// SeedPosts returns the starter threads, most recent first, dated
// relative to now.
func SeedPosts(now time.Time) []models.Post {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }

	posts := []models.Post{
		{
			ID:       "post-1",
			Title:    "Guía completa de Jett para subir a Radiante",
			Content:  "Después de 500 horas con **Jett** os comparto mis consejos:\n\n1. Usa el dash para entrar, no para huir.\n2. Practica el *updraft* con Operator.\n3. Comunica siempre tu entrada.",
			Author:   communityAuthors["user1"],
			Category: models.CategoryGuides,
			Tags:     []string{"valorant", "jett", "duelista", "ranked"},
			Likes:    3,
			LikedBy:  []string{"user2", "user3", "user4"},
			Views:    245,
			IsPinned: true,
			Replies: []models.PostReply{
				{ID: "reply-1", Content: "¡Muy útil! El truco del updraft me ha salvado varias rondas.", Author: communityAuthors["user3"], Likes: 4, CreatedAt: ago(90 * time.Minute)},
			},
			CreatedAt: ago(2 * time.Hour),
		},
		{
			ID:        "post-2",
			Title:     "¿Cuál es el mejor campeón para empezar en LoL?",
			Content:   "Soy nuevo en League of Legends y no sé qué campeón elegir. ¿Recomendaciones para principiantes?",
			Author:    communityAuthors["user4"],
			Category:  models.CategoryHelp,
			Tags:      []string{"lol", "principiante", "campeones"},
			Likes:     1,
			LikedBy:   []string{"user1"},
			Views:     89,
			CreatedAt: ago(5 * time.Hour),
		},
		{
			ID:        "post-3",
			Title:     "Estrategias de economía en CS2",
			Content:   "La economía gana partidas. Aquí explico cuándo forzar, cuándo hacer eco y cómo coordinar compras con el equipo.",
			Author:    communityAuthors["user2"],
			Category:  models.CategoryStrategy,
			Tags:      []string{"cs2", "economia", "estrategia"},
			Likes:     2,
			LikedBy:   []string{"user1", "user4"},
			Views:     156,
			CreatedAt: ago(26 * time.Hour),
		},
		{
			ID:        "post-4",
			Title:     "Resultados del torneo regional de Valorant",
			Content:   "El torneo de este fin de semana terminó con una final a cinco mapas. Comentad vuestras jugadas favoritas.",
			Author:    communityAuthors["user1"],
			Category:  models.CategoryCompetitive,
			Tags:      []string{"valorant", "torneo", "esports"},
			Views:     312,
			IsLocked:  true,
			CreatedAt: ago(3 * 24 * time.Hour),
		},
		{
			ID:        "post-5",
			Title:     "Nueva temporada de Fortnite: primeras impresiones",
			Content:   "El nuevo mapa trae zonas verticales y armas míticas nuevas. ¿Qué os parece?",
			Author:    communityAuthors["user3"],
			Category:  models.CategoryNews,
			Tags:      []string{"fortnite", "temporada", "novedades"},
			Likes:     2,
			LikedBy:   []string{"user2", "user4"},
			Views:     198,
			CreatedAt: ago(4 * 24 * time.Hour),
		},
		{
			ID:        "post-6",
			Title:     "Mi setup gaming después de dos años",
			Content:   "Os enseño mi escritorio, periféricos y la silla que por fin me ha arreglado la espalda.",
			Author:    communityAuthors["user4"],
			Category:  models.CategoryOffTopic,
			Tags:      []string{"setup", "hardware"},
			Views:     77,
			CreatedAt: ago(9 * 24 * time.Hour),
		},
	}

	for i := range posts {
		p := &posts[i]
		p.UpdatedAt = p.CreatedAt
		p.Comments = len(p.Replies)
		if p.LikedBy == nil {
			p.LikedBy = []string{}
		}
		p.BookmarkedBy = []string{}
		if p.Replies == nil {
			p.Replies = []models.PostReply{}
		}
	}
	return posts
}
