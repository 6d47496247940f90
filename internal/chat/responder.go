package chat

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/lalith-99/playhub/internal/i18n"
	"github.com/lalith-99/playhub/internal/models"
)

// contextWindow is how many previous messages are inspected when deciding
// whether the player already asked about a topic.
const contextWindow = 6

// topic is one canned answer. When pattern already matched one of the
// last contextWindow messages, followUp is used instead of reply.
type topic struct {
	name     string
	pattern  *regexp.Regexp
	reply    string
	followUp string
}

var gameTopics = map[string][]topic{
	"valorant": {
		{
			name:     "meta",
			pattern:  regexp.MustCompile(`meta|tier ?list|mejores agentes|best agents?`),
			reply:    "En el meta actual de Valorant dominan Jett y Reyna como duelistas, Omen y Clove como controladores y Sova como iniciador. Una composición segura es 2 controladores o 1 controlador + 2 iniciadores según el mapa.",
			followUp: "Siguiendo con el meta de Valorant: si tu equipo ya tiene duelista, prueba Viper en Breeze e Icebox; su muro y su orbe venenoso controlan zonas enteras mejor que cualquier otro agente.",
		},
		{
			name:     "agents",
			pattern:  regexp.MustCompile(`agente|agent|jett|reyna|viper|sova|omen|sage|phoenix|raze|killjoy|cypher`),
			reply:    "Cada agente de Valorant tiene un rol: duelistas (Jett, Reyna, Raze) para abrir espacios, iniciadores (Sova, Skye) para conseguir información, controladores (Omen, Viper) para humos y centinelas (Killjoy, Cypher) para defender zonas.",
			followUp: "Ya que seguimos con agentes: elige un agente principal por rol y domina sus lineups. Con Sova, por ejemplo, aprende 2 flechas de reconocimiento por mapa antes de intentar más.",
		},
		{
			name:     "aim",
			pattern:  regexp.MustCompile(`aim|punter[ií]a|apuntar|crosshair|mira|sensibilidad|sens\b`),
			reply:    "Para mejorar tu puntería en Valorant: mantén la mira a la altura de la cabeza, haz counter-strafe antes de disparar y entrena 15 minutos en el Range con bots en modo difícil antes de cada sesión.",
			followUp: "Más sobre aim: baja tu sensibilidad si fallas los flicks largos (entre 0.25 y 0.4 a 800 DPI es lo habitual entre profesionales) y practica ráfagas de 2-3 balas con la Vandal.",
		},
		{
			name:     "maps",
			pattern:  regexp.MustCompile(`mapa|map|ascent|bind|haven|split|icebox|breeze|lotus|sunset`),
			reply:    "En los mapas de Valorant la clave es el control del centro: en Ascent pelea por Mid, en Bind usa los teletransportes para rotar rápido y en Haven vigila los tres sitios con un centinela.",
			followUp: "Sobre mapas otra vez: aprende al menos una estrategia de ataque y una de retake por mapa, y comunica siempre las rotaciones enemigas.",
		},
		{
			name:     "economy",
			pattern:  regexp.MustCompile(`econom[ií]a|eco\b|cr[eé]ditos|comprar|compra|force`),
			reply:    "Economía en Valorant: tras perder la pistola haz eco completo, compra en equipo y nunca dejes a un compañero sin arma principal en una ronda de compra completa.",
			followUp: "Un apunte más de economía: si vas a forzar, hazlo todos juntos con Spectre o Bulldog y escudos ligeros; medio equipo comprando pierde casi siempre.",
		},
	},
	"lol": {
		{
			name:     "meta",
			pattern:  regexp.MustCompile(`meta|tier ?list|op\b|mejores campeones`),
			reply:    "El meta actual de League of Legends favorece a los junglas con buen early (Lee Sin, Vi) y a los ADC con escalado fuerte como Jinx y Kai'Sa. En mid, los magos de control como Orianna siguen siendo muy fiables.",
			followUp: "Continuando con el meta de LoL: los soportes enganchadores (Nautilus, Thresh) están muy fuertes en soloQ porque castigan los errores de posicionamiento.",
		},
		{
			name:     "builds",
			pattern:  regexp.MustCompile(`build|objeto|item|equipamiento|m[ií]tico`),
			reply:    "Para las builds en LoL adapta siempre el primer objeto al rival: daño contra enemigos frágiles, resistencias si te están castigando y antiheal contra campeones con mucha curación.",
			followUp: "Sobre builds otra vez: revisa las builds de alto elo para tu campeón, pero cambia las botas según la composición enemiga (Mercurio contra CC, Acero contra AD).",
		},
		{
			name:     "runes",
			pattern:  regexp.MustCompile(`runa|rune`),
			reply:    "Runas recomendadas en LoL: Conquistador para luchadores, Electrocutar para asesinos, Cometa arcano para magos de poke y Aftershock para tanques iniciadores.",
			followUp: "Más sobre runas: en la rama secundaria, Brujería con Trascendencia y Tormenta creciente suele ser la opción más segura para magos.",
		},
		{
			name:     "jungle",
			pattern:  regexp.MustCompile(`jungla|jungle|jungler|dragon|drag[oó]n|bar[oó]n|heraldo`),
			reply:    "En la jungla de LoL planifica tu ruta según tus carriles con prioridad, controla el temporizador del dragón y haz ganks a la línea con el rival sobreextendido.",
			followUp: "Siguiendo con la jungla: pon un centinela en la jungla enemiga al minuto 3 para ver la ruta del rival y contrajunglear cuando vaya al lado contrario.",
		},
		{
			name:     "ranked",
			pattern:  regexp.MustCompile(`elo|rango|rank|liga|subir|climb|soloq`),
			reply:    "Para subir de liga en LoL juega un pool corto de 2-3 campeones, céntrate en el farmeo (apunta a 7 CS por minuto) y silencia el chat si te distrae.",
			followUp: "Un consejo más para subir: revisa tus repeticiones buscando las muertes evitables; suelen ser la mitad de las partidas perdidas.",
		},
	},
	"fortnite": {
		{
			name:     "building",
			pattern:  regexp.MustCompile(`constru|build|editar|edici[oó]n|edit|rampa|90s`),
			reply:    "Para construir mejor en Fortnite practica los 90s y las ediciones rápidas en modo creativo, y usa siempre rampa + muro para avanzar protegido.",
			followUp: "Más sobre construcción: asigna las piezas a teclas cercanas y entrena mapas de edición 10 minutos al día; la velocidad llega con la memoria muscular.",
		},
		{
			name:     "landing",
			pattern:  regexp.MustCompile(`aterriz|caer|drop|d[oó]nde caer|landing|zona de aterrizaje`),
			reply:    "Para aterrizar en Fortnite elige una zona alejada de la ruta del autobús si quieres lootear tranquilo, o un punto con nombre si buscas acción desde el principio.",
			followUp: "Sobre el aterrizaje otra vez: ten siempre una zona secundaria pensada por si cae mucha gente en tu punto principal.",
		},
		{
			name:     "weapons",
			pattern:  regexp.MustCompile(`arma|weapon|escopeta|shotgun|rifle|subfusil|smg`),
			reply:    "Una buena loadout en Fortnite es escopeta + rifle de asalto + subfusil, más curaciones y un objeto de movilidad.",
			followUp: "Más sobre armas: prioriza la rareza de la escopeta sobre la del rifle, porque la mayoría de peleas finales son a corta distancia.",
		},
		{
			name:     "storm",
			pattern:  regexp.MustCompile(`tormenta|storm|zona|c[ií]rculo|rotar|rotaci[oó]n`),
			reply:    "Con la tormenta de Fortnite rota pronto y por los bordes de la zona; llegar tarde te obliga a pelear en campo abierto.",
			followUp: "Siguiendo con la tormenta: en las últimas zonas guarda materiales para construir en altura, quien controla la altura controla la partida.",
		},
	},
	"cs2": {
		{
			name:     "economy",
			pattern:  regexp.MustCompile(`econom[ií]a|eco\b|dinero|money|comprar|force`),
			reply:    "En CS2 la economía es todo: tras perder la pistola haz eco y compra todos juntos en la tercera ronda. No fuerces si el equipo no llega a rifles y granadas.",
			followUp: "Otro detalle de economía en CS2: guarda para el kit de desactivación como CT; sin él pierdes muchos retakes ajustados.",
		},
		{
			name:     "utility",
			pattern:  regexp.MustCompile(`granada|smoke|humo|flash|molotov|utility|util`),
			reply:    "Aprende al menos tres humos por mapa en CS2 (por ejemplo, Xbox, CT y Ventana en Mirage) y lanza las flashes para tus compañeros, no solo para ti.",
			followUp: "Más sobre granadas: combina molotov + humo para retrasar empujes, y guarda una flash para el post-plant.",
		},
		{
			name:     "aim",
			pattern:  regexp.MustCompile(`aim|punter[ií]a|spray|retroceso|recoil|crosshair|mira`),
			reply:    "Para el aim en CS2 controla el spray de la AK-47 bajando la mira en forma de T invertida y practica el pre-aim en mapas de entrenamiento.",
			followUp: "Sobre el aim otra vez: para tus pies antes de disparar; disparar en movimiento es la causa número uno de fallos.",
		},
	},
	"minecraft": {
		{
			name:     "diamonds",
			pattern:  regexp.MustCompile(`diamante|diamond|minar|mina|mining`),
			reply:    "En Minecraft los diamantes son más comunes entre las capas Y -58 y Y -64. Mina en túneles rectos dejando dos bloques entre ellos y lleva un pico de hierro o mejor.",
			followUp: "Más sobre diamantes: encanta tu pico con Fortuna III para conseguir hasta cuatro diamantes por bloque.",
		},
		{
			name:     "redstone",
			pattern:  regexp.MustCompile(`redstone|circuito|pist[oó]n|piston|granja autom`),
			reply:    "Para empezar con redstone en Minecraft aprende el repetidor, el comparador y la antorcha de redstone; con ellos puedes hacer puertas ocultas y granjas automáticas.",
			followUp: "Siguiendo con redstone: construye primero una granja de hierro, es el proyecto con mejor relación esfuerzo/recompensa.",
		},
		{
			name:     "survival",
			pattern:  regexp.MustCompile(`sobreviv|survival|primera noche|mobs?|creeper|zombie`),
			reply:    "Para tu primera noche en Minecraft consigue madera, fabrica herramientas de piedra, haz una cama o un refugio pequeño y enciende antorchas alrededor para evitar mobs.",
			followUp: "Más sobre supervivencia: consigue comida estable pronto (una granja de trigo o animales) y fabrica un escudo contra los esqueletos.",
		},
	},
	"apex": {
		{
			name:     "legends",
			pattern:  regexp.MustCompile(`leyenda|legend|wraith|bloodhound|lifeline|gibraltar|pathfinder|meta`),
			reply:    "En Apex Legends una composición equilibrada lleva una leyenda de reconocimiento (Bloodhound), una de movilidad (Pathfinder o Wraith) y un soporte o ancla (Lifeline, Gibraltar).",
			followUp: "Siguiendo con leyendas: coordina las habilidades definitivas; una portal de Wraith seguida de una cúpula de Gibraltar gana muchas peleas finales.",
		},
		{
			name:     "rotations",
			pattern:  regexp.MustCompile(`rotar|rotaci[oó]n|anillo|ring|zona`),
			reply:    "Rota pronto en Apex y usa las balizas de reconocimiento para saber dónde se cierra el siguiente anillo.",
			followUp: "Más sobre rotaciones: rota por el borde del anillo y evita el centro en las últimas fases si no tienes la posición asegurada.",
		},
	},
	"overwatch": {
		{
			name:     "roles",
			pattern:  regexp.MustCompile(`rol|role|tanque|tank|soporte|support|da[ñn]o|dps|h[eé]roe|hero|meta`),
			reply:    "En Overwatch 2 cada equipo juega 1 tanque, 2 de daño y 2 soportes. El tanque crea espacio, el daño asegura bajas y los soportes mantienen vivo al equipo.",
			followUp: "Más sobre roles: como soporte, colócate detrás del tanque pero con línea de visión al daño, y guarda tu habilidad de supervivencia para los flancos.",
		},
	},
}

// Responder picks the assistant's answer for a message.
type Responder struct {
	localizer *i18n.Localizer
	pick      func(n int) int
}

func NewResponder(localizer *i18n.Localizer) *Responder {
	return &Responder{localizer: localizer, pick: rand.IntN}
}

// Reply answers message for gameKey. history holds the session messages
// that came before message, oldest first.
func (r *Responder) Reply(gameKey, message string, history []models.ChatMessage, lang string) string {
	text := strings.ToLower(message)

	for _, t := range gameTopics[normalizeGame(gameKey)] {
		if !t.pattern.MatchString(text) {
			continue
		}
		if discussedRecently(t.pattern, history) {
			return t.followUp
		}
		return t.reply
	}

	n := r.pick(i18n.GenericReplyCount)
	return r.localizer.Get(lang, i18n.MsgGenericReply+strconv.Itoa(n), nil)
}

// Welcome returns the greeting for gameKey, or the generic one for games
// without their own.
func (r *Responder) Welcome(gameKey, lang string) string {
	id := i18n.MsgWelcomePrefix + normalizeGame(gameKey)
	if !r.localizer.Has(id) {
		id = i18n.MsgWelcomeGeneric
	}
	return r.localizer.Get(lang, id, nil)
}

func (r *Responder) Apology(lang string) string {
	return r.localizer.Get(lang, i18n.MsgApology, nil)
}

func discussedRecently(pattern *regexp.Regexp, history []models.ChatMessage) bool {
	start := len(history) - contextWindow
	if start < 0 {
		start = 0
	}
	for _, m := range history[start:] {
		if m.Type != models.MessageUser {
			continue
		}
		if pattern.MatchString(strings.ToLower(m.Content)) {
			return true
		}
	}
	return false
}

var gameAliases = map[string]string{
	"league":            "lol",
	"leagueoflegends":   "lol",
	"league-of-legends": "lol",
	"csgo":              "cs2",
	"counter-strike":    "cs2",
	"apex-legends":      "apex",
	"overwatch2":        "overwatch",
}

func normalizeGame(gameKey string) string {
	key := strings.ToLower(strings.TrimSpace(gameKey))
	if alias, ok := gameAliases[key]; ok {
		return alias
	}
	return key
}
