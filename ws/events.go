package ws

import (
	"encoding/json"
	"fmt"

	"github.com/mqy/topicsync/chatstore"
)

// Outbound event names.
const (
	EventUserJoin   = "user-join"
	EventChatJoin   = "chat-join"
	EventChatLeave  = "chat-leave"
	EventNewMessage = "new-message"
)

// Inbound event names.
const (
	EventMessage = "message"
	EventNewChat = "new-chat"
)

// Envelope frames every channel payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Event is an inbound channel event: *MessageEvent or *NewChatEvent.
type Event interface {
	EventName() string
}

// MessageEvent delivers a new chat message.
type MessageEvent struct {
	ChatID    chatstore.ChatID    `json:"chatID"`
	SenderID  chatstore.UserID    `json:"senderID"`
	Text      string              `json:"text"`
	Timestamp chatstore.Timestamp `json:"timestamp"`

	// SequenceNumber is optional; the receiver numbers messages by position.
	SequenceNumber *int                            `json:"sequenceNumber,omitempty"`
	TopicInfo      *chatstore.TopicMatchSuggestion `json:"topicInfo,omitempty"`
}

func (*MessageEvent) EventName() string { return EventMessage }

// NewChatEvent tells a user that a chat involving one of its topics was created.
type NewChatEvent struct {
	ChatID         chatstore.ChatID  `json:"chatID"`
	CreatorTopicID chatstore.TopicID `json:"creatorTopicID"`
	MatchedTopicID chatstore.TopicID `json:"matchedTopicID"`
	UserCreatorID  chatstore.UserID  `json:"userCreatorID"`
	UserMatchedID  chatstore.UserID  `json:"userMatchedID"`
}

func (*NewChatEvent) EventName() string { return EventNewChat }

// JoinRequest is the payload of user-join, chat-join and chat-leave.
type JoinRequest struct {
	UserID chatstore.UserID `json:"userID"`
	Room   string           `json:"room"`
}

// UserRoom names the room that receives new-chat events for the user.
func UserRoom(uid chatstore.UserID) string {
	return "userID_" + string(uid)
}

// OutboundMessage is the payload of new-message.
type OutboundMessage struct {
	ChatID    chatstore.ChatID                `json:"chatID"`
	Text      string                          `json:"text"`
	SenderID  chatstore.UserID                `json:"senderID"`
	TopicInfo *chatstore.TopicMatchSuggestion `json:"topicInfo"`
}

// Decode parses an inbound frame.
func Decode(b []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %v", err)
	}

	var ev Event
	switch env.Event {
	case EventMessage:
		ev = &MessageEvent{}
	case EventNewChat:
		ev = &NewChatEvent{}
	default:
		return nil, fmt.Errorf("unsupported event: `%s`", env.Event)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("event `%s`: empty data", env.Event)
	}
	if err := json.Unmarshal(env.Data, ev); err != nil {
		return nil, fmt.Errorf("event `%s`: decode data: %v", env.Event, err)
	}
	return ev, nil
}

// Encode frames an event payload.
func Encode(name string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("event `%s`: encode data: %v", name, err)
	}
	return json.Marshal(&Envelope{Event: name, Data: raw})
}
