package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeLogin       Type = "auth.login"
	TypeLogout      Type = "auth.logout"
	TypeCollected   Type = "article.collected"
	TypeUncollected Type = "article.uncollected"
	TypeFeedError   Type = "feed.error"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

type LoginPayload struct {
	LoggedIn bool   `json:"logged_in"`
	Username string `json:"username,omitempty"`
}

type CollectPayload struct {
	ArticleID int  `json:"article_id"`
	OriginID  int  `json:"origin_id,omitempty"`
	Collected bool `json:"collected"`
}

type FeedErrorPayload struct {
	Feed    string `json:"feed"`
	Message string `json:"message"`
}

func New(t Type, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

type Bus interface {
	Publish(e Event)
	// PublishSticky publishes e and retains it as the latest value of its type.
	PublishSticky(e Event)
	// Subscribe returns live events of the given types (all types when none
	// are given) and an unsubscribe function.
	Subscribe(types ...Type) (<-chan Event, func())
	// SubscribeSticky replays the retained event of type t, if any, before
	// live events of that type.
	SubscribeSticky(t Type) (<-chan Event, func())
	RemoveSticky(t Type)
}
