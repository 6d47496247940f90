package guide

import (
	"time"

	"github.com/lalith-99/playhub/internal/models"
)

// Types and difficulties used by the catalog.
const (
	TypeBuild    = "build"
	TypeStrategy = "strategy"
	TypeTutorial = "tutorial"
	TypeLoadout  = "loadout"

	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// SeedCatalog returns the static guide library.
func SeedCatalog() []models.Guide {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	return []models.Guide{
		{
			ID: "valorant-jett-duelist", Name: "Valorant: Jett, la duelista definitiva", Game: "valorant",
			Type: TypeStrategy, Difficulty: DifficultyIntermediate, Meta: "Duelista S-tier",
			Description: "Entradas con dash, uso del Operator y posicionamiento agresivo en cada mapa.",
			Author:      "ProPlayer_ES", Tags: []string{"jett", "duelista", "operator"},
			Rating: 4.8, Views: 15420, Downloads: 3200, Likes: 890, Comments: 156,
			IsFeatured: true, CreatedAt: day(2024, 11, 2),
		},
		{
			ID: "valorant-sova-lineups", Name: "Valorant: Lineups de Sova para todos los mapas", Game: "valorant",
			Type: TypeTutorial, Difficulty: DifficultyAdvanced, Meta: "Iniciador",
			Description: "Flechas de reconocimiento y de choque paso a paso para Ascent, Bind, Haven y Lotus.",
			Author:      "StrategyMaster", Tags: []string{"sova", "lineups", "iniciador"},
			Rating: 4.9, Views: 22100, Downloads: 8700, Likes: 1450, Comments: 230,
			IsPremium: true, IsFeatured: true, CreatedAt: day(2024, 9, 18),
		},
		{
			ID: "valorant-economy-basics", Name: "Valorant: Economía para principiantes", Game: "valorant",
			Type: TypeStrategy, Difficulty: DifficultyBeginner, Meta: "Fundamentos",
			Description: "Cuándo comprar, cuándo ahorrar y cómo coordinar el eco con tu equipo.",
			Author:      "CasualGamer", Tags: []string{"economia", "principiante"},
			Rating: 4.3, Views: 6400, Downloads: 900, Likes: 310, Comments: 45,
			IsNew: true, CreatedAt: day(2025, 2, 20),
		},
		{
			ID: "lol-jinx-adc", Name: "LoL: Jinx ADC build y runas", Game: "lol",
			Type: TypeBuild, Difficulty: DifficultyIntermediate, Meta: "ADC hypercarry",
			Description: "Build de crítico, runas de Ataque intensificado y cómo posicionarte en teamfights.",
			Author:      "NoobSlayer", Tags: []string{"jinx", "adc", "build", "runas"},
			Rating: 4.6, Views: 18900, Downloads: 5100, Likes: 1020, Comments: 198,
			IsFeatured: true, CreatedAt: day(2024, 10, 5),
		},
		{
			ID: "lol-jungle-pathing", Name: "LoL: Rutas de jungla de alto elo", Game: "lol",
			Type: TypeStrategy, Difficulty: DifficultyAdvanced, Meta: "Control de objetivos",
			Description: "Rutas completas, tiempos de dragón y cómo leer la jungla rival.",
			Author:      "StrategyMaster", Tags: []string{"jungla", "rutas", "objetivos"},
			Rating: 4.7, Views: 12300, Downloads: 4100, Likes: 760, Comments: 121,
			IsPremium: true, CreatedAt: day(2024, 12, 12),
		},
		{
			ID: "lol-first-steps", Name: "LoL: Primeros pasos en la Grieta", Game: "lol",
			Type: TypeTutorial, Difficulty: DifficultyBeginner, Meta: "Fundamentos",
			Description: "Roles, farmeo, visión y los campeones más sencillos para empezar.",
			Author:      "CasualGamer", Tags: []string{"principiante", "roles", "farmeo"},
			Rating: 4.2, Views: 9800, Downloads: 2300, Likes: 420, Comments: 67,
			IsNew: true, CreatedAt: day(2025, 3, 1),
		},
		{
			ID: "fortnite-building-90s", Name: "Fortnite: Domina los 90s y las ediciones", Game: "fortnite",
			Type: TypeTutorial, Difficulty: DifficultyIntermediate, Meta: "Construcción competitiva",
			Description: "Rutina diaria en creativo para ganar velocidad construyendo y editando.",
			Author:      "ProPlayer_ES", Tags: []string{"construccion", "90s", "edicion"},
			Rating: 4.5, Views: 14200, Downloads: 3900, Likes: 880, Comments: 140,
			CreatedAt: day(2024, 8, 22),
		},
		{
			ID: "fortnite-zero-build-loadout", Name: "Fortnite: Loadout ganador en Zero Build", Game: "fortnite",
			Type: TypeLoadout, Difficulty: DifficultyBeginner, Meta: "Escopeta + rifle",
			Description: "Las armas y objetos que más victorias dan en la temporada actual.",
			Author:      "NoobSlayer", Tags: []string{"zero build", "armas", "loadout"},
			Rating: 4.1, Views: 7300, Downloads: 1500, Likes: 290, Comments: 38,
			IsNew: true, CreatedAt: day(2025, 2, 28),
		},
		{
			ID: "cs2-mirage-smokes", Name: "CS2: Humos esenciales de Mirage", Game: "cs2",
			Type: TypeTutorial, Difficulty: DifficultyIntermediate, Meta: "Utilidad",
			Description: "Xbox, CT, Ventana y Stairs desde spawn, con posiciones exactas.",
			Author:      "StrategyMaster", Tags: []string{"mirage", "smokes", "granadas"},
			Rating: 4.8, Views: 20500, Downloads: 7600, Likes: 1300, Comments: 205,
			IsFeatured: true, CreatedAt: day(2024, 7, 14),
		},
		{
			ID: "cs2-awp-mastery", Name: "CS2: AWP de nivel profesional", Game: "cs2",
			Type: TypeStrategy, Difficulty: DifficultyAdvanced, Meta: "Francotirador",
			Description: "Ángulos, reposicionamiento y gestión económica del AWPer.",
			Author:      "ProPlayer_ES", Tags: []string{"awp", "francotirador", "aim"},
			Rating: 4.6, Views: 11100, Downloads: 3300, Likes: 640, Comments: 97,
			IsPremium: true, CreatedAt: day(2024, 11, 30),
		},
		{
			ID: "minecraft-iron-farm", Name: "Minecraft: Granja de hierro para supervivencia", Game: "minecraft",
			Type: TypeBuild, Difficulty: DifficultyIntermediate, Meta: "Redstone",
			Description: "Diseño compacto de granja de hierro compatible con la versión actual.",
			Author:      "CasualGamer", Tags: []string{"redstone", "granja", "hierro"},
			Rating: 4.4, Views: 16800, Downloads: 6200, Likes: 970, Comments: 150,
			CreatedAt: day(2024, 6, 3),
		},
		{
			ID: "apex-wraith-movement", Name: "Apex: Movimiento avanzado con Wraith", Game: "apex",
			Type: TypeTutorial, Difficulty: DifficultyAdvanced, Meta: "Movilidad",
			Description: "Superglides, portales ofensivos y rotaciones rápidas con Wraith.",
			Author:      "NoobSlayer", Tags: []string{"wraith", "movimiento", "rotaciones"},
			Rating: 4.5, Views: 8900, Downloads: 2100, Likes: 530, Comments: 72,
			IsPremium: true, IsNew: true, CreatedAt: day(2025, 3, 5),
		},
	}
}
