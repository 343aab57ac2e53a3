package chatstore

import (
	"sync"
)

// State is the whole client view: topics, chats, messages and navigation.
// A committed State is never modified; Store.Update works on a copy.
type State struct {
	Topics     map[TopicID]*Topic
	TopicOrder []TopicID
	Nav        NavState
}

func NewState() *State {
	return &State{
		Topics: make(map[TopicID]*Topic),
		Nav:    NavState{Tab: TabTopics},
	}
}

func (s *State) Clone() *State {
	out := &State{
		Topics:     make(map[TopicID]*Topic, len(s.Topics)),
		TopicOrder: append([]TopicID(nil), s.TopicOrder...),
		Nav:        s.Nav,
	}
	if s.Nav.Last != nil {
		last := *s.Nav.Last
		out.Nav.Last = &last
	}
	for id, t := range s.Topics {
		out.Topics[id] = t.clone()
	}
	return out
}

func (s *State) Topic(id TopicID) *Topic {
	return s.Topics[id]
}

// FindChat scans all topics for the chat.
func (s *State) FindChat(id ChatID) (*Topic, *Chat) {
	for _, tid := range s.TopicOrder {
		t := s.Topics[tid]
		if c, ok := t.Chats[id]; ok {
			return t, c
		}
	}
	return nil, nil
}

// HasChatWith reports whether topic already holds a chat anchored to otherTopic.
func (s *State) HasChatWith(topic, otherTopic TopicID) bool {
	t, ok := s.Topics[topic]
	if !ok {
		return false
	}
	for _, c := range t.Chats {
		if c.OtherTopicID == otherTopic {
			return true
		}
	}
	return false
}

// EnsureTopic returns the topic, creating it with the given title if absent.
func (s *State) EnsureTopic(id TopicID, title string) (*Topic, bool) {
	if t, ok := s.Topics[id]; ok {
		return t, false
	}
	t := newTopic(id, title)
	s.Topics[id] = t
	s.TopicOrder = append(s.TopicOrder, id)
	return t, true
}

// AddChat inserts the chat under an existing topic. It returns false if the
// topic is unknown or already holds the chat.
func (s *State) AddChat(topic TopicID, c *Chat) bool {
	t, ok := s.Topics[topic]
	if !ok {
		return false
	}
	if _, ok := t.Chats[c.ID]; ok {
		return false
	}
	t.Chats[c.ID] = c
	t.ChatOrder = append(t.ChatOrder, c.ID)
	if c.HasUnreadMessages {
		t.HasUnreadChats = true
	}
	return true
}

// AppendMessage appends to the owning chat, numbering the message by its
// position in the list.
func (s *State) AppendMessage(id ChatID, m Message) (*Topic, *Chat, bool) {
	t, c := s.FindChat(id)
	if c == nil {
		return nil, nil, false
	}
	m.SequenceNumber = len(c.Messages)
	c.Messages = append(c.Messages, m)
	return t, c, true
}

func (s *State) RemoveChat(topic TopicID, id ChatID) bool {
	t, ok := s.Topics[topic]
	if !ok {
		return false
	}
	if _, ok := t.Chats[id]; !ok {
		return false
	}
	delete(t.Chats, id)
	t.ChatOrder = removeID(t.ChatOrder, id)
	t.RefreshUnread()
	return true
}

func (s *State) RemoveTopic(id TopicID) (*Topic, bool) {
	t, ok := s.Topics[id]
	if !ok {
		return nil, false
	}
	delete(s.Topics, id)
	s.TopicOrder = removeID(s.TopicOrder, id)
	return t, true
}

// VisibleTopics lists topics in insertion order, without the brainstorm topic.
func (s *State) VisibleTopics(brainstorm TopicID) []*Topic {
	out := make([]*Topic, 0, len(s.TopicOrder))
	for _, id := range s.TopicOrder {
		if id == brainstorm {
			continue
		}
		out = append(out, s.Topics[id])
	}
	return out
}

func removeID[T comparable](slice []T, id T) []T {
	out := slice[:0]
	for _, v := range slice {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Store is the single source of truth for rendering. Writers go through
// Update, which applies a function to a private copy of the latest state and
// commits it only when the function succeeds.
type Store struct {
	sync.RWMutex
	state   *State
	version uint64

	subs    map[int]chan *State
	nextSub int
}

func NewStore() *Store {
	return &Store{
		state: NewState(),
		subs:  make(map[int]chan *State),
	}
}

// Update runs fn against a copy of the latest state. A non-nil error from fn
// discards the copy and is returned as is.
func (s *Store) Update(fn func(st *State) error) error {
	s.Lock()
	defer s.Unlock()

	next := s.state.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.state = next
	s.version++
	s.notifyLocked()
	return nil
}

// View runs fn against the committed state. fn must not modify it.
func (s *Store) View(fn func(st *State)) {
	s.RLock()
	defer s.RUnlock()
	fn(s.state)
}

// Snapshot returns a deep copy of the committed state.
func (s *Store) Snapshot() *State {
	s.RLock()
	defer s.RUnlock()
	return s.state.Clone()
}

// Version counts committed updates.
func (s *Store) Version() uint64 {
	s.RLock()
	defer s.RUnlock()
	return s.version
}

// Subscribe streams committed states. Slow readers only see the latest one.
// Received states are shared and must not be modified.
func (s *Store) Subscribe() (<-chan *State, func()) {
	s.Lock()
	defer s.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan *State, 1)
	s.subs[id] = ch
	return ch, func() {
		s.Lock()
		defer s.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.state
	}
}
