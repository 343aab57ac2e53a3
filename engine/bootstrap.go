package engine

import (
	"context"
	"sort"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mqy/topicsync/chatstore"
	"github.com/mqy/topicsync/gateway"
)

// bootstrap is the first phase: resolve the user, load topics and chats, and
// make sure the brainstorm topic and chat exist. The store is updated once.
func (s *Session) bootstrap(ctx context.Context) error {
	uid, err := s.identity.Resolve(ctx)
	if err != nil {
		return errors.Wrap(err, "resolve user id")
	}

	topics, err := s.gw.GetTopics(ctx, uid)
	if err != nil {
		// only a missing topic list means a new user; anything else could
		// hide an existing brainstorm topic.
		if !gateway.IsNotFound(err) {
			gatewayFailures.WithLabelValues("GetTopics").Inc()
			return errors.Wrap(err, "get topics")
		}
		glog.V(2).Infof("bootstrap(): user %s has no topics", uid)
		topics = nil
	}

	var brainstorm chatstore.TopicID
	for _, t := range topics {
		if t.Title == chatstore.BrainstormTitle {
			brainstorm = t.ID
			break
		}
	}
	if brainstorm == "" {
		id, err := s.gw.CreateTopic(ctx, uid, chatstore.BrainstormTitle)
		if err != nil {
			return errors.Wrap(err, "create brainstorm topic")
		}
		glog.Infof("bootstrap(): created brainstorm topic %s for user %s", id, uid)
		topics = append(topics, gateway.TopicSummary{ID: id, Title: chatstore.BrainstormTitle})
		brainstorm = id
	}

	chats := s.fetchChats(ctx, uid, topics)

	var brainstormChat chatstore.ChatID
	for _, c := range chats[brainstorm] {
		if c.OtherUserID == chatstore.BotUserID {
			brainstormChat = c.ID
			break
		}
	}
	if brainstormChat == "" {
		id, err := s.gw.CreateChat(ctx, brainstorm, chatstore.BotTopicID, uid, chatstore.BotUserID)
		if err != nil {
			return errors.Wrap(err, "create brainstorm chat")
		}
		glog.Infof("bootstrap(): created brainstorm chat %s for user %s", id, uid)
		chats[brainstorm] = append(chats[brainstorm], &chatstore.Chat{
			ID:           id,
			Name:         chatstore.BrainstormTitle,
			OtherUserID:  chatstore.BotUserID,
			OtherTopicID: chatstore.BotTopicID,
		})
		brainstormChat = id
	}

	if err := s.st.Update(func(st *chatstore.State) error {
		for _, t := range topics {
			st.EnsureTopic(t.ID, t.Title)
			for _, c := range chats[t.ID] {
				st.AddChat(t.ID, c)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	s.Lock()
	s.userID = uid
	s.brainstormTopic = brainstorm
	s.brainstormChat = brainstormChat
	s.Unlock()
	return nil
}

// fetchChats loads the chats of all topics concurrently. A failed topic
// yields no chats and does not affect the others.
func (s *Session) fetchChats(ctx context.Context, uid chatstore.UserID, topics []gateway.TopicSummary) map[chatstore.TopicID][]*chatstore.Chat {
	results := make([][]*chatstore.Chat, len(topics))

	var g errgroup.Group
	for i, t := range topics {
		i, id := i, t.ID
		g.Go(func() error {
			results[i] = s.fetchTopicChats(ctx, uid, id)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[chatstore.TopicID][]*chatstore.Chat, len(topics))
	for i, t := range topics {
		out[t.ID] = results[i]
	}
	return out
}

func (s *Session) fetchTopicChats(ctx context.Context, uid chatstore.UserID, topic chatstore.TopicID) []*chatstore.Chat {
	metas, err := s.gw.GetChatsByTopic(ctx, topic, uid)
	if err != nil {
		glog.Errorf("fetchTopicChats(): topic %s error: %v", topic, err)
		gatewayFailures.WithLabelValues("GetChatsByTopic").Inc()
		return nil
	}

	// the backend returns a map; sort so that chat order is stable.
	ids := make([]chatstore.ChatID, 0, len(metas))
	for id := range metas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	chats := make([]*chatstore.Chat, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		i, id, meta := i, id, metas[id]
		g.Go(func() error {
			name, err := s.companionTitle(ctx, meta.OtherTopicID)
			if err != nil {
				glog.Errorf("fetchTopicChats(): skip chat %s, companion topic %s error: %v", id, meta.OtherTopicID, err)
				gatewayFailures.WithLabelValues("GetTopic").Inc()
				return nil
			}
			c := &chatstore.Chat{
				ID:            id,
				Name:          name,
				OtherUserID:   meta.OtherUserID,
				OtherTopicID:  meta.OtherTopicID,
				LastViewedAt:  meta.LastViewedAt.Time,
				LastMessageAt: meta.LastMessageTimestamp.Time,
				LastSenderID:  meta.LastSenderID,
			}
			c.HasUnreadMessages = chatstore.ComputeUnread(c, uid, c.LastViewedAt)
			chats[i] = c
			return nil
		})
	}
	_ = g.Wait()

	out := chats[:0]
	for _, c := range chats {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// companionTitle names a chat after its counterpart topic.
func (s *Session) companionTitle(ctx context.Context, topic chatstore.TopicID) (string, error) {
	if topic == chatstore.BotTopicID {
		return chatstore.BrainstormTitle, nil
	}
	return s.gw.GetTopic(ctx, topic)
}
