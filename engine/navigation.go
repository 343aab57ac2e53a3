package engine

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/mqy/topicsync/chatstore"
)

// focus remembers the current frame in the one slot back-stack and moves to
// the given one.
func focus(nav *chatstore.NavState, topic chatstore.TopicID, chat chatstore.ChatID, tab chatstore.Tab) {
	prev := nav.Frame()
	nav.Last = &prev
	nav.CurrentTopic = topic
	nav.CurrentChat = chat
	nav.Tab = tab
	nav.EditingNewTopic = false
}

// SelectTopic focuses the topic and its first chat, if any.
func (s *Session) SelectTopic(topic chatstore.TopicID) error {
	err := s.st.Update(func(st *chatstore.State) error {
		t := st.Topic(topic)
		if t == nil {
			return errors.Wrapf(ErrUnknownTopic, "topic %s", topic)
		}
		focus(&st.Nav, topic, t.FirstChat(), chatstore.TabActiveChats)
		return nil
	})
	if err != nil {
		glog.Warningf("SelectTopic(): %v", err)
	}
	return err
}

// SelectChat focuses the chat, acknowledges it and loads its history when
// nothing has been loaded yet.
func (s *Session) SelectChat(ctx context.Context, topic chatstore.TopicID, chat chatstore.ChatID) error {
	uid := s.UserID()

	var load bool
	err := s.st.Update(func(st *chatstore.State) error {
		t := st.Topic(topic)
		if t == nil {
			return errors.Wrapf(ErrUnknownTopic, "topic %s", topic)
		}
		c, ok := t.Chats[chat]
		if !ok {
			return errors.Wrapf(ErrUnknownChat, "chat %s of topic %s", chat, topic)
		}
		focus(&st.Nav, topic, chat, chatstore.TabActiveChats)
		acknowledge(t, c, s.now().UTC())
		load = len(c.Messages) == 0 && !c.HistoryLoaded
		return nil
	})
	if err != nil {
		glog.Warningf("SelectChat(): %v", err)
		return err
	}

	if load {
		s.loadHistory(ctx, chat)
	}
	if uid != "" {
		s.persistLastViewed(ctx, chat, uid)
	}
	return nil
}

// loadHistory fills a chat with its stored messages. Messages that arrived
// on the channel while the request was in flight are kept after the history
// when they are newer than its last entry.
func (s *Session) loadHistory(ctx context.Context, chat chatstore.ChatID) {
	msgs, err := s.gw.LoadChatMessages(ctx, chat)
	if err != nil {
		glog.Errorf("loadHistory(): chat %s error: %v", chat, err)
		gatewayFailures.WithLabelValues("LoadChatMessages").Inc()
		return
	}

	_ = s.st.Update(func(st *chatstore.State) error {
		_, c := st.FindChat(chat)
		if c == nil {
			return ErrUnknownChat
		}
		c.HistoryLoaded = true
		c.Messages = mergeHistory(msgs, c.Messages)
		return nil
	})
}

func mergeHistory(history, live []chatstore.Message) []chatstore.Message {
	out := make([]chatstore.Message, 0, len(history)+len(live))
	out = append(out, history...)
	var last time.Time
	if len(history) > 0 {
		last = history[len(history)-1].Timestamp
	}
	for _, m := range live {
		if len(history) > 0 && !m.Timestamp.After(last) {
			glog.V(2).Infof("mergeHistory(): live message at %v already in history", m.Timestamp)
			continue
		}
		out = append(out, m)
	}
	for i := range out {
		out[i].SequenceNumber = i
	}
	return out
}

// Back restores the remembered frame and empties the back-stack. With an
// empty back-stack it returns to the topic list.
func (s *Session) Back() {
	_ = s.st.Update(func(st *chatstore.State) error {
		nav := &st.Nav
		last := nav.Last
		nav.Last = nil
		nav.EditingNewTopic = false

		if last == nil {
			nav.Tab = chatstore.TabTopics
			nav.CurrentTopic = ""
			nav.CurrentChat = ""
			return nil
		}

		nav.Tab = last.Tab
		nav.CurrentTopic = last.Topic
		nav.CurrentChat = last.Chat
		// the remembered frame may point at something deleted since.
		t := st.Topic(nav.CurrentTopic)
		if t == nil {
			nav.CurrentTopic = ""
			nav.CurrentChat = ""
		} else if _, ok := t.Chats[nav.CurrentChat]; !ok {
			nav.CurrentChat = ""
		}
		return nil
	})
}

// StartNewTopic enters new topic editing mode.
func (s *Session) StartNewTopic() {
	_ = s.st.Update(func(st *chatstore.State) error {
		st.Nav.EditingNewTopic = true
		return nil
	})
}

// DeleteTopic removes the topic locally and leaves the rooms of its chats.
// A focused topic hands the focus to the first remaining topic.
func (s *Session) DeleteTopic(topic chatstore.TopicID) error {
	uid := s.UserID()
	brainstorm := s.BrainstormTopic()

	var chats []chatstore.ChatID
	err := s.st.Update(func(st *chatstore.State) error {
		if topic == brainstorm {
			return ErrBrainstorm
		}
		t, ok := st.RemoveTopic(topic)
		if !ok {
			return errors.Wrapf(ErrUnknownTopic, "topic %s", topic)
		}
		chats = t.ChatOrder

		nav := &st.Nav
		if nav.CurrentTopic == topic {
			nav.CurrentTopic, nav.CurrentChat = "", ""
			if visible := st.VisibleTopics(brainstorm); len(visible) > 0 {
				nav.CurrentTopic = visible[0].ID
				nav.CurrentChat = visible[0].FirstChat()
			}
		}
		if nav.Last != nil && nav.Last.Topic == topic {
			nav.Last = nil
		}
		return nil
	})
	if err != nil {
		glog.Warningf("DeleteTopic(): %v", err)
		return err
	}

	for _, id := range chats {
		s.leaveChat(uid, id)
	}
	return nil
}

// DeleteChat removes the chat locally and leaves its room. A focused chat
// hands the focus to the first remaining chat of the topic.
func (s *Session) DeleteChat(topic chatstore.TopicID, chat chatstore.ChatID) error {
	uid := s.UserID()
	brainstormChat := s.BrainstormChat()

	err := s.st.Update(func(st *chatstore.State) error {
		if chat == brainstormChat {
			return ErrBrainstorm
		}
		if !st.RemoveChat(topic, chat) {
			return errors.Wrapf(ErrUnknownChat, "chat %s of topic %s", chat, topic)
		}

		nav := &st.Nav
		if nav.CurrentChat == chat {
			nav.CurrentChat = st.Topic(topic).FirstChat()
		}
		if nav.Last != nil && nav.Last.Chat == chat {
			nav.Last = nil
		}
		return nil
	})
	if err != nil {
		glog.Warningf("DeleteChat(): %v", err)
		return err
	}

	s.leaveChat(uid, chat)
	return nil
}

func (s *Session) leaveChat(uid chatstore.UserID, chat chatstore.ChatID) {
	if uid == "" {
		return
	}
	if err := s.ch.LeaveChat(uid, chat); err != nil {
		glog.Errorf("leaveChat(): chat %s error: %v", chat, err)
	}
}
