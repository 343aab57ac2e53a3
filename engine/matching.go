package engine

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/mqy/topicsync/chatstore"
)

// CreateChatFromSuggestion turns the topic suggestion attached to brainstorm
// message messageNumber into a chat between the viewer's topic and the
// suggested one, then focuses it. A failure before the backend creates the
// chat leaves the store as is.
func (s *Session) CreateChatFromSuggestion(ctx context.Context, messageNumber int) (chatstore.ChatID, error) {
	id, err := s.createChatFromSuggestion(ctx, messageNumber)
	if err != nil {
		glog.Warningf("CreateChatFromSuggestion(): message %d, err: %v", messageNumber, err)
		workflowFailures.WithLabelValues("match").Inc()
		return "", err
	}
	glog.V(2).Infof("CreateChatFromSuggestion(): message %d, chat %s", messageNumber, id)
	return id, nil
}

func (s *Session) createChatFromSuggestion(ctx context.Context, messageNumber int) (chatstore.ChatID, error) {
	uid, _, brainstormChat, err := s.readyIDs()
	if err != nil {
		return "", err
	}

	var userTopic, suggestion chatstore.TopicMatchSuggestion
	var found bool
	var lookupErr error
	s.st.View(func(st *chatstore.State) {
		_, c := st.FindChat(brainstormChat)
		if c == nil {
			lookupErr = errors.Wrapf(ErrUnknownChat, "brainstorm chat %s", brainstormChat)
			return
		}
		if messageNumber < 0 || messageNumber >= len(c.Messages) || c.Messages[messageNumber].TopicInfo == nil {
			lookupErr = errors.Wrapf(ErrNoSuggestion, "message %d", messageNumber)
			return
		}
		suggestion = *c.Messages[messageNumber].TopicInfo

		// the nearest earlier message of the viewer carries the viewer's topic.
		for i := messageNumber - 1; i >= 0; i-- {
			if c.Messages[i].SenderID != uid {
				continue
			}
			if info := c.Messages[i].TopicInfo; info != nil {
				userTopic = *info
				found = true
			}
			break
		}
		if !found {
			lookupErr = errors.Wrapf(ErrNoUserTopic, "before message %d", messageNumber)
			return
		}
		if st.HasChatWith(userTopic.TopicID, suggestion.TopicID) {
			lookupErr = errors.Wrapf(ErrChatExists, "topic %s with %s", userTopic.TopicID, suggestion.TopicID)
		}
	})
	if lookupErr != nil {
		return "", lookupErr
	}

	chatID, err := s.gw.CreateChat(ctx, suggestion.TopicID, userTopic.TopicID, suggestion.UserID, uid)
	if err != nil {
		gatewayFailures.WithLabelValues("CreateChat").Inc()
		return "", errors.Wrap(err, "create chat")
	}
	if chatID == "" {
		return "", errors.New("create chat: empty chat id")
	}

	// the chat exists on the backend now, a failed join must not lose it.
	if err := s.ch.JoinChat(uid, chatID); err != nil {
		glog.Warningf("createChatFromSuggestion(): join chat %s error: %v", chatID, err)
	}

	err = s.st.Update(func(st *chatstore.State) error {
		// another workflow may have won the race while CreateChat was in flight.
		if st.HasChatWith(userTopic.TopicID, suggestion.TopicID) {
			return errors.Wrapf(ErrChatExists, "topic %s with %s", userTopic.TopicID, suggestion.TopicID)
		}
		st.EnsureTopic(userTopic.TopicID, userTopic.TopicName)
		st.AddChat(userTopic.TopicID, &chatstore.Chat{
			ID:           chatID,
			Name:         suggestion.TopicName,
			OtherUserID:  suggestion.UserID,
			OtherTopicID: suggestion.TopicID,
		})
		focus(&st.Nav, userTopic.TopicID, chatID, chatstore.TabActiveChats)
		return nil
	})
	if err != nil {
		return "", err
	}
	return chatID, nil
}
