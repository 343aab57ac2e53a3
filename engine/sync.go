package engine

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mqy/topicsync/chatstore"
	"github.com/mqy/topicsync/ws"
)

// HandleEvent applies one channel event to the store. A rejected event leaves
// the store untouched and is counted as dropped.
func (s *Session) HandleEvent(ctx context.Context, ev ws.Event) error {
	var err error
	switch e := ev.(type) {
	case *ws.MessageEvent:
		err = s.handleMessage(e)
	case *ws.NewChatEvent:
		err = s.handleNewChat(ctx, e)
	default:
		err = errors.Errorf("unsupported event %T", ev)
	}

	name := "unknown"
	if ev != nil {
		name = ev.EventName()
	}
	if err != nil {
		glog.Warningf("HandleEvent(): drop `%s` event, err: %v", name, err)
		eventsDropped.WithLabelValues(name).Inc()
		return err
	}
	eventsApplied.WithLabelValues(name).Inc()
	return nil
}

// handleMessage appends the message to the chat that holds it, wherever that
// chat lives. Messages are numbered in delivery order.
func (s *Session) handleMessage(e *ws.MessageEvent) error {
	viewer := s.UserID()

	m := chatstore.Message{
		SenderID:  e.SenderID,
		Text:      e.Text,
		Timestamp: e.Timestamp.Time,
		TopicInfo: e.TopicInfo,
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now().UTC()
	}

	return s.st.Update(func(st *chatstore.State) error {
		t, c, ok := st.AppendMessage(e.ChatID, m)
		if !ok {
			return errors.Wrapf(ErrUnknownChat, "chat %s", e.ChatID)
		}
		seq := len(c.Messages) - 1
		if e.SequenceNumber != nil && *e.SequenceNumber != seq {
			glog.V(2).Infof("handleMessage(): chat %s: sequence number %d renumbered to %d", e.ChatID, *e.SequenceNumber, seq)
		}
		if e.SenderID != viewer && st.Nav.CurrentChat != e.ChatID {
			markUnread(t, c, viewer)
		}
		return nil
	})
}

// handleNewChat mirrors a chat created by another participant under the
// topic the viewer owns. Repeated events for a known chat are no-ops.
func (s *Session) handleNewChat(ctx context.Context, e *ws.NewChatEvent) error {
	viewer := s.UserID()

	owned, other, otherUser := e.MatchedTopicID, e.CreatorTopicID, e.UserCreatorID
	if e.UserCreatorID == viewer {
		owned, other, otherUser = e.CreatorTopicID, e.MatchedTopicID, e.UserMatchedID
	}

	var topicKnown, chatKnown bool
	s.st.View(func(st *chatstore.State) {
		if t := st.Topic(owned); t != nil {
			topicKnown = true
			_, chatKnown = t.Chats[e.ChatID]
		}
	})
	if chatKnown {
		glog.V(2).Infof("handleNewChat(): chat %s already under topic %s", e.ChatID, owned)
		return nil
	}

	if err := s.ch.JoinChat(viewer, e.ChatID); err != nil {
		glog.Errorf("handleNewChat(): join chat %s error: %v", e.ChatID, err)
	}

	var ownedTitle, otherTitle string
	var g errgroup.Group
	if !topicKnown {
		g.Go(func() error {
			ownedTitle = s.topicTitle(ctx, owned)
			return nil
		})
	}
	g.Go(func() error {
		otherTitle = s.topicTitle(ctx, other)
		return nil
	})
	_ = g.Wait()

	err := s.st.Update(func(st *chatstore.State) error {
		t, _ := st.EnsureTopic(owned, ownedTitle)
		if _, known := t.Chats[e.ChatID]; !known && st.HasChatWith(owned, other) {
			// both sides matched the same pair at once; the backend made two chats.
			glog.Warningf("handleNewChat(): topic %s already has a chat with %s, adding chat %s", owned, other, e.ChatID)
			duplicatePairs.Inc()
		}
		if !st.AddChat(owned, &chatstore.Chat{
			ID:           e.ChatID,
			Name:         otherTitle,
			OtherUserID:  otherUser,
			OtherTopicID: other,
		}) {
			return errDuplicate
		}
		return nil
	})
	if err == errDuplicate {
		return nil
	}
	return err
}

// topicTitle falls back to the topic id when the title cannot be fetched.
func (s *Session) topicTitle(ctx context.Context, id chatstore.TopicID) string {
	title, err := s.companionTitle(ctx, id)
	if err != nil {
		glog.Errorf("topicTitle(): topic %s error: %v", id, err)
		gatewayFailures.WithLabelValues("GetTopic").Inc()
		return string(id)
	}
	return title
}
