package models

import (
	"time"
)

// Plan is the subscription tier of a user.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

const (
	SubscriptionNone      = "none"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// User is a registered account.
//
// PasswordHash never leaves the server: the json tag hides it so handlers
// can return the struct as-is.
type User struct {
	ID                 string          `json:"id"`
	Email              string          `json:"email"`
	Username           string          `json:"username"`
	Avatar             string          `json:"avatar"`
	PasswordHash       string          `json:"-"`
	Plan               Plan            `json:"plan"`
	TokenUsage         int             `json:"token_usage"`
	TokenLimit         int             `json:"token_limit"`
	SubscriptionStatus string          `json:"subscription_status"`
	SubscriptionEnd    *time.Time      `json:"subscription_end,omitempty"`
	Preferences        UserPreferences `json:"preferences"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	LastLoginAt        *time.Time      `json:"last_login_at,omitempty"`
}

type UserPreferences struct {
	Theme         string                `json:"theme"`
	Language      string                `json:"language"`
	Notifications NotificationSettings `json:"notifications"`
	Privacy       PrivacySettings       `json:"privacy"`
}

type NotificationSettings struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

type PrivacySettings struct {
	ShowProfile  bool `json:"show_profile"`
	ShowActivity bool `json:"show_activity"`
}

// DefaultPreferences is what a freshly registered account starts with.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Theme:         "dark",
		Language:      "es",
		Notifications: NotificationSettings{Email: true, Push: false},
		Privacy:       PrivacySettings{ShowProfile: true, ShowActivity: true},
	}
}

// MessageType distinguishes what the player typed from what the assistant answered.
type MessageType string

const (
	MessageUser MessageType = "user"
	MessageIA   MessageType = "ia"
)

// ChatMessage is immutable once appended to a session.
//
// ID is a process-wide int64 sequence: higher ID = newer message, same as
// a bigserial column would give us.
type ChatMessage struct {
	ID        int64            `json:"id"`
	Type      MessageType      `json:"type"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Game      string           `json:"game,omitempty"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

type MessageMetadata struct {
	ResponseTime int64  `json:"response_time_ms"`
	Tokens       int    `json:"tokens"`
	Model        string `json:"model"`
}

// ChatSession is one user's conversation about one game.
// Messages are append-only and kept in send order.
type ChatSession struct {
	ID           string        `json:"id"`
	GameKey      string        `json:"game_key"`
	UserID       string        `json:"user_id"`
	Messages     []ChatMessage `json:"messages"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`
}

// Clone returns a copy that shares no slice memory with s.
func (s *ChatSession) Clone() *ChatSession {
	out := *s
	out.Messages = append([]ChatMessage(nil), s.Messages...)
	return &out
}

// Comment belongs to a section (a page or context key). ParentID links a
// reply to its parent; in practice only one level of nesting is used.
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Avatar    string    `json:"avatar"`
	Content   string    `json:"content"`
	Section   string    `json:"section"`
	ParentID  string    `json:"parent_id,omitempty"`
	Replies   []Comment `json:"replies,omitempty"`
	UserID    string    `json:"user_id"`
	Likes     int       `json:"likes"`
	IsEdited  bool      `json:"is_edited"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is the closed set of forum categories.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryStrategy    Category = "strategy"
	CategoryGuides      Category = "guides"
	CategoryNews        Category = "news"
	CategoryHelp        Category = "help"
	CategoryCompetitive Category = "competitive"
	CategoryOffTopic    Category = "offtopic"
)

var Categories = []Category{
	CategoryGeneral,
	CategoryStrategy,
	CategoryGuides,
	CategoryNews,
	CategoryHelp,
	CategoryCompetitive,
	CategoryOffTopic,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PostAuthor is a snapshot of the author taken when the post or reply is
// written. It is not refreshed if the user later changes their profile.
type PostAuthor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Level  int    `json:"level"`
}

type PostReport struct {
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type PostReply struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Author    PostAuthor `json:"author"`
	ParentID  string     `json:"parent_id,omitempty"`
	Likes     int        `json:"likes"`
	CreatedAt time.Time  `json:"created_at"`
}

// Post is a forum thread. Post and its Replies form one aggregate.
//
// Invariants: Likes == len(LikedBy); IsDeleted posts are invisible to
// every read path.
type Post struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	Author       PostAuthor   `json:"author"`
	Category     Category     `json:"category"`
	Tags         []string     `json:"tags"`
	Likes        int          `json:"likes"`
	Comments     int          `json:"comments"`
	Views        int          `json:"views"`
	IsPinned     bool         `json:"is_pinned"`
	IsLocked     bool         `json:"is_locked"`
	IsDeleted    bool         `json:"-"`
	DeletedAt    *time.Time   `json:"-"`
	LikedBy      []string     `json:"liked_by"`
	BookmarkedBy []string     `json:"bookmarked_by"`
	ViewedBy     []string     `json:"-"`
	Reports      []PostReport `json:"-"`
	Replies      []PostReply  `json:"replies"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Clone returns a deep copy of p.
func (p *Post) Clone() *Post {
	out := *p
	out.Tags = append([]string(nil), p.Tags...)
	out.LikedBy = append([]string(nil), p.LikedBy...)
	out.BookmarkedBy = append([]string(nil), p.BookmarkedBy...)
	out.ViewedBy = append([]string(nil), p.ViewedBy...)
	out.Reports = append([]PostReport(nil), p.Reports...)
	out.Replies = append([]PostReply(nil), p.Replies...)
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		out.DeletedAt = &t
	}
	return &out
}

// Guide is a shared catalog entry. Per-user state lives in GuideInteractions.
type Guide struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Game        string    `json:"game"`
	Type        string    `json:"type"`
	Difficulty  string    `json:"difficulty"`
	Meta        string    `json:"meta"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Tags        []string  `json:"tags"`
	Rating      float64   `json:"rating"`
	Views       int       `json:"views"`
	Downloads   int       `json:"downloads"`
	Likes       int       `json:"likes"`
	Comments    int       `json:"comments"`
	IsPremium   bool      `json:"is_premium"`
	IsFeatured  bool      `json:"is_featured"`
	IsNew       bool      `json:"is_new"`
	CreatedAt   time.Time `json:"created_at"`
}

// GuideInteractions is private to one (user, guide) pair.
// UserRated is 0 until the user rates the guide.
type GuideInteractions struct {
	UserID         string `json:"user_id"`
	GuideID        string `json:"guide_id"`
	UserLiked      bool   `json:"user_liked"`
	UserDownloaded bool   `json:"user_downloaded"`
	UserRated      int    `json:"user_rated"`
}
