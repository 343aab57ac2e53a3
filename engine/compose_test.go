package engine

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqy/topicsync/chatstore"
	"github.com/mqy/topicsync/gateway"
	"github.com/mqy/topicsync/ws"
)

func TestSubmitTopic(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.s.StartNewTopic()

	gomock.InOrder(
		f.gw.EXPECT().CreateTopic(gomock.Any(), viewer, "hiking").Return(t1, nil),
		f.ch.EXPECT().SendMessage(&ws.OutboundMessage{ChatID: c0, Text: "hiking", SenderID: viewer, TopicInfo: hiking}).Return(nil),
		f.gw.EXPECT().GetBotResponse(gomock.Any(), "hiking", viewer).Return([]gateway.BotReply{
			{Text: "Talk to someone about Outdoors?", TopicInfo: outdoors},
			{Text: "Or just keep brainstorming."},
		}, nil),
		f.ch.EXPECT().SendMessage(&ws.OutboundMessage{ChatID: c0, Text: "Talk to someone about Outdoors?", SenderID: chatstore.BotUserID, TopicInfo: outdoors}).Return(nil),
		f.ch.EXPECT().SendMessage(&ws.OutboundMessage{ChatID: c0, Text: "Or just keep brainstorming.", SenderID: chatstore.BotUserID}).Return(nil),
	)

	id, err := f.s.SubmitTopic(context.Background(), "  hiking ")
	require.NoError(t, err)
	assert.Equal(t, t1, id)

	nav := f.s.Store().Snapshot().Nav
	assert.False(t, nav.EditingNewTopic)
	assert.Equal(t, t0, nav.CurrentTopic)
	assert.Equal(t, c0, nav.CurrentChat)
}

func TestSubmitTopicBotFailure(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.gw.EXPECT().CreateTopic(gomock.Any(), viewer, "hiking").Return(t1, nil)
	f.ch.EXPECT().SendMessage(&ws.OutboundMessage{ChatID: c0, Text: "hiking", SenderID: viewer, TopicInfo: hiking}).Return(nil)
	f.gw.EXPECT().GetBotResponse(gomock.Any(), "hiking", viewer).Return(nil, errors.Wrap(gateway.ErrNetwork, "timeout"))
	f.ch.EXPECT().SendMessage(&ws.OutboundMessage{ChatID: c0, Text: gateway.BotErrorReply()[0].Text, SenderID: chatstore.BotUserID}).Return(nil)

	_, err := f.s.SubmitTopic(context.Background(), "hiking")
	require.NoError(t, err)
}

func TestSubmitTopicFailures(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	_, err := f.s.SubmitTopic(context.Background(), "   ")
	assert.Equal(t, ErrEmptyMessage, err)

	f.gw.EXPECT().CreateTopic(gomock.Any(), viewer, "hiking").
		Return(chatstore.TopicID(""), errors.Wrap(gateway.ErrNetwork, "refused"))
	_, err = f.s.SubmitTopic(context.Background(), "hiking")
	assert.True(t, gateway.IsNetwork(err))
}

func TestSubmitTopicRequiresChannel(t *testing.T) {
	f := newFixture(t)
	f.startWithoutChannel(t)

	_, err := f.s.SubmitTopic(context.Background(), "hiking")
	assert.Equal(t, ErrChannelNotReady, err)
}

func TestSendMessage(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	seedTopics(t, f)

	f.ch.EXPECT().SendMessage(&ws.OutboundMessage{ChatID: c7, Text: "see you at the trailhead", SenderID: viewer}).Return(nil)
	require.NoError(t, f.s.SendMessage(context.Background(), c7, "see you at the trailhead"))

	assert.Equal(t, ErrEmptyMessage, f.s.SendMessage(context.Background(), c7, ""))
	assert.Equal(t, ErrUnknownChat, errors.Cause(f.s.SendMessage(context.Background(), "c404", "hello")))

	f.ch.EXPECT().SendMessage(gomock.Any()).Return(ws.ErrNotConnected)
	assert.Equal(t, ws.ErrNotConnected, f.s.SendMessage(context.Background(), c8, "hello"))
}

func TestSendMessageToBrainstormSubmitsTopic(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.gw.EXPECT().CreateTopic(gomock.Any(), viewer, "hiking").Return(t1, nil)
	f.ch.EXPECT().SendMessage(&ws.OutboundMessage{ChatID: c0, Text: "hiking", SenderID: viewer, TopicInfo: hiking}).Return(nil)
	f.gw.EXPECT().GetBotResponse(gomock.Any(), "hiking", viewer).Return([]gateway.BotReply{}, nil)

	require.NoError(t, f.s.SendMessage(context.Background(), c0, "hiking"))
}
