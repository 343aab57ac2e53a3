package gateway

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mqy/topicsync/chatstore"
)

var (
	// ErrNetwork marks transport level failures: refused, timed out or a
	// non 2xx status other than 404.
	ErrNetwork = errors.New("gateway: network failure")
	// ErrNotFound marks a 404 from the backend.
	ErrNotFound = errors.New("gateway: not found")
)

// IsNotFound reports whether err was caused by a 404.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

// IsNetwork reports whether err was caused by a transport failure.
func IsNetwork(err error) bool {
	return errors.Cause(err) == ErrNetwork
}

// IGateway executes request/response operations against the backend.
type IGateway interface {
	// GetOrCreateUserID issues a new user id.
	GetOrCreateUserID(ctx context.Context) (chatstore.UserID, error)

	// GetTopics lists the user's topics. A user without topics yields ErrNotFound.
	GetTopics(ctx context.Context, uid chatstore.UserID) ([]TopicSummary, error)

	// CreateTopic creates a topic owned by uid and returns its id.
	CreateTopic(ctx context.Context, uid chatstore.UserID, title string) (chatstore.TopicID, error)

	// GetTopic returns the title of any topic.
	GetTopic(ctx context.Context, id chatstore.TopicID) (string, error)

	// GetChatsByTopic returns metadata of chats anchored to the topic, from
	// the point of view of uid.
	GetChatsByTopic(ctx context.Context, id chatstore.TopicID, uid chatstore.UserID) (map[chatstore.ChatID]ChatMetadata, error)

	// CreateChat creates a chat connecting two topics and returns its id.
	CreateChat(ctx context.Context, creatorTopic, matchedTopic chatstore.TopicID, creatorUser, matchedUser chatstore.UserID) (chatstore.ChatID, error)

	// LoadChatMessages returns the chat history, oldest first.
	LoadChatMessages(ctx context.Context, id chatstore.ChatID) ([]chatstore.Message, error)

	// UpdateLastViewedAt persists "now" as uid's last view of the chat.
	UpdateLastViewedAt(ctx context.Context, id chatstore.ChatID, uid chatstore.UserID) error

	// GetBotResponse asks the matching service for replies to a topic submission.
	GetBotResponse(ctx context.Context, text string, uid chatstore.UserID) ([]BotReply, error)
}

type TopicSummary struct {
	ID    chatstore.TopicID `json:"id"`
	Title string            `json:"title"`
}

// ChatMetadata describes a chat without its messages.
type ChatMetadata struct {
	ChatID               chatstore.ChatID    `json:"chatID"`
	CreatorTopicID       chatstore.TopicID   `json:"creatorTopicID"`
	MatchedTopicID       chatstore.TopicID   `json:"matchedTopicID"`
	UserCreatorID        chatstore.UserID    `json:"userCreatorID"`
	UserMatchedID        chatstore.UserID    `json:"userMatchedID"`
	CreatorLastViewedAt  chatstore.Timestamp `json:"creatorLastViewedAt"`
	MatchedLastViewedAt  chatstore.Timestamp `json:"matchedLastViewedAt"`
	LastMessageTimestamp chatstore.Timestamp `json:"lastMessageTimestamp"`
	LastSenderID         chatstore.UserID    `json:"lastSenderID,omitempty"`

	// Relative to the requesting topic and user.
	OtherTopicID chatstore.TopicID   `json:"-"`
	OtherUserID  chatstore.UserID    `json:"-"`
	LastViewedAt chatstore.Timestamp `json:"-"`
}

// resolve fills the fields relative to the requesting topic and user.
func (m *ChatMetadata) resolve(topic chatstore.TopicID, uid chatstore.UserID) {
	if m.CreatorTopicID == topic {
		m.OtherTopicID = m.MatchedTopicID
		m.OtherUserID = m.UserMatchedID
	} else {
		m.OtherTopicID = m.CreatorTopicID
		m.OtherUserID = m.UserCreatorID
	}
	if m.UserCreatorID == uid {
		m.LastViewedAt = m.CreatorLastViewedAt
	} else {
		m.LastViewedAt = m.MatchedLastViewedAt
	}
}

// BotReply is one line of the bot's answer, optionally offering a match.
type BotReply struct {
	Text      string
	TopicInfo *chatstore.TopicMatchSuggestion
}
