package engine

import (
	"context"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/mqy/topicsync/chatstore"
	"github.com/mqy/topicsync/gateway"
	"github.com/mqy/topicsync/ws"
)

// SendMessage publishes text to a chat. Text sent to the brainstorm chat is a
// topic submission, see SubmitTopic. The message shows up in the store when
// the channel echoes it back.
func (s *Session) SendMessage(ctx context.Context, chat chatstore.ChatID, text string) error {
	err := s.sendMessage(ctx, chat, text)
	if err != nil {
		glog.Warningf("SendMessage(): chat %s, err: %v", chat, err)
		workflowFailures.WithLabelValues("send").Inc()
	}
	return err
}

func (s *Session) sendMessage(ctx context.Context, chat chatstore.ChatID, text string) error {
	uid, _, brainstormChat, err := s.readyIDs()
	if err != nil {
		return err
	}
	if chat == brainstormChat {
		_, err := s.submitTopic(ctx, text)
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	var known bool
	s.st.View(func(st *chatstore.State) {
		_, c := st.FindChat(chat)
		known = c != nil
	})
	if !known {
		return errors.Wrapf(ErrUnknownChat, "chat %s", chat)
	}

	return s.ch.SendMessage(&ws.OutboundMessage{ChatID: chat, Text: text, SenderID: uid})
}

// SubmitTopic creates a topic from text, posts it to the brainstorm chat and
// posts the bot's replies after it, each offering a match. It leaves editing
// mode and focuses the brainstorm chat.
func (s *Session) SubmitTopic(ctx context.Context, text string) (chatstore.TopicID, error) {
	id, err := s.submitTopic(ctx, text)
	if err != nil {
		glog.Warningf("SubmitTopic(): %v", err)
		workflowFailures.WithLabelValues("submit").Inc()
	}
	return id, err
}

func (s *Session) submitTopic(ctx context.Context, text string) (chatstore.TopicID, error) {
	uid, brainstorm, brainstormChat, err := s.readyIDs()
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	topic, err := s.gw.CreateTopic(ctx, uid, text)
	if err != nil {
		gatewayFailures.WithLabelValues("CreateTopic").Inc()
		return "", errors.Wrap(err, "create topic")
	}

	if err := s.ch.SendMessage(&ws.OutboundMessage{
		ChatID:    brainstormChat,
		Text:      text,
		SenderID:  uid,
		TopicInfo: &chatstore.TopicMatchSuggestion{TopicID: topic, TopicName: text, UserID: uid},
	}); err != nil {
		return "", errors.Wrap(err, "send topic")
	}

	replies, err := s.gw.GetBotResponse(ctx, text, uid)
	if err != nil {
		glog.Errorf("submitTopic(): bot response error: %v", err)
		gatewayFailures.WithLabelValues("GetBotResponse").Inc()
		replies = gateway.BotErrorReply()
	}
	for _, r := range replies {
		if err := s.ch.SendMessage(&ws.OutboundMessage{
			ChatID:    brainstormChat,
			Text:      r.Text,
			SenderID:  chatstore.BotUserID,
			TopicInfo: r.TopicInfo,
		}); err != nil {
			return topic, errors.Wrap(err, "send bot reply")
		}
	}

	_ = s.st.Update(func(st *chatstore.State) error {
		st.Nav.EditingNewTopic = false
		st.Nav.CurrentTopic = brainstorm
		st.Nav.CurrentChat = brainstormChat
		return nil
	})
	glog.V(2).Infof("submitTopic(): topic %s, %d bot replies", topic, len(replies))
	return topic, nil
}
