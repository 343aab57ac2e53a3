package chatstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// BotUserID is the sender id of bot authored messages.
	BotUserID UserID = "-1"
	// BotTopicID is the counterpart topic of the brainstorm chat.
	BotTopicID TopicID = "-1"

	// BrainstormTitle is the title of the per-user brainstorm topic.
	BrainstormTitle = "Brainstorm"
)

type Tab string

const (
	TabTopics      Tab = "Topics"
	TabActiveChats Tab = "Active Chats"
)

// The backend keys rows by integers while clients pass them around as opaque
// strings, so ids decode from either JSON form.
type (
	UserID  string
	TopicID string
	ChatID  string
)

func (id *UserID) UnmarshalJSON(b []byte) error {
	s, err := unmarshalID(b)
	*id = UserID(s)
	return err
}

func (id *TopicID) UnmarshalJSON(b []byte) error {
	s, err := unmarshalID(b)
	*id = TopicID(s)
	return err
}

func (id *ChatID) UnmarshalJSON(b []byte) error {
	s, err := unmarshalID(b)
	*id = ChatID(s)
	return err
}

func unmarshalID(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", fmt.Errorf("id: expect string or number, got %s", string(b))
	}
	return n.String(), nil
}

// TopicMatchSuggestion is attached by the bot to brainstorm messages, offering
// a chat with another user's topic.
type TopicMatchSuggestion struct {
	TopicID   TopicID `json:"topicID"`
	TopicName string  `json:"topicName"`
	UserID    UserID  `json:"userID"`
}

type Message struct {
	SequenceNumber int                   `json:"sequenceNumber"`
	SenderID       UserID                `json:"senderID"`
	Text           string                `json:"text"`
	Timestamp      time.Time             `json:"timestamp"`
	TopicInfo      *TopicMatchSuggestion `json:"topicInfo,omitempty"`
}

type Chat struct {
	ID           ChatID
	Name         string
	OtherUserID  UserID
	OtherTopicID TopicID
	Messages     []Message

	HasUnreadMessages bool

	// LastViewedAt is the viewer's last acknowledged view of this chat.
	LastViewedAt time.Time

	// LastMessageAt and LastSenderID come from chat metadata and describe the
	// chat until its history is loaded.
	LastMessageAt time.Time
	LastSenderID  UserID
	HistoryLoaded bool
}

// lastActivity returns the time and sender of the newest known message.
func (c *Chat) lastActivity() (time.Time, UserID) {
	if n := len(c.Messages); n > 0 {
		m := c.Messages[n-1]
		return m.Timestamp, m.SenderID
	}
	return c.LastMessageAt, c.LastSenderID
}

func (c *Chat) clone() *Chat {
	out := *c
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		for i, m := range c.Messages {
			out.Messages[i] = m
			if m.TopicInfo != nil {
				ti := *m.TopicInfo
				out.Messages[i].TopicInfo = &ti
			}
		}
	}
	return &out
}

type Topic struct {
	ID    TopicID
	Title string
	Chats map[ChatID]*Chat

	// ChatOrder keeps chats in insertion order.
	ChatOrder      []ChatID
	HasUnreadChats bool
}

func newTopic(id TopicID, title string) *Topic {
	return &Topic{
		ID:    id,
		Title: title,
		Chats: make(map[ChatID]*Chat),
	}
}

// FirstChat returns the earliest inserted chat, or "" when the topic is empty.
func (t *Topic) FirstChat() ChatID {
	if len(t.ChatOrder) == 0 {
		return ""
	}
	return t.ChatOrder[0]
}

// RefreshUnread folds the unread flags of all chats into HasUnreadChats and
// reports whether the topic flag changed.
func (t *Topic) RefreshUnread() bool {
	var unread bool
	for _, c := range t.Chats {
		if c.HasUnreadMessages {
			unread = true
			break
		}
	}
	changed := unread != t.HasUnreadChats
	t.HasUnreadChats = unread
	return changed
}

func (t *Topic) clone() *Topic {
	out := &Topic{
		ID:             t.ID,
		Title:          t.Title,
		Chats:          make(map[ChatID]*Chat, len(t.Chats)),
		ChatOrder:      append([]ChatID(nil), t.ChatOrder...),
		HasUnreadChats: t.HasUnreadChats,
	}
	for id, c := range t.Chats {
		out.Chats[id] = c.clone()
	}
	return out
}

type NavFrame struct {
	Topic TopicID
	Chat  ChatID
	Tab   Tab
}

type NavState struct {
	Tab          Tab
	CurrentTopic TopicID
	CurrentChat  ChatID

	// Last is the one-slot back-stack.
	Last            *NavFrame
	EditingNewTopic bool
}

// Frame captures the current focus.
func (n *NavState) Frame() NavFrame {
	return NavFrame{Topic: n.CurrentTopic, Chat: n.CurrentChat, Tab: n.Tab}
}

// ComputeUnread reports whether the chat holds a message newer than
// lastViewedAt that the viewer did not send.
func ComputeUnread(c *Chat, viewer UserID, lastViewedAt time.Time) bool {
	at, sender := c.lastActivity()
	if at.IsZero() || sender == viewer {
		return false
	}
	return at.After(lastViewedAt)
}

// ParseTimestamp accepts the timestamp forms emitted by the backend: RFC 3339,
// zone-less ISO 8601 (treated as UTC) and unix milliseconds.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp: %q", s)
}

// Timestamp is a JSON time accepting every ParseTimestamp form; null and ""
// decode to the zero time.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	v, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = v
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
