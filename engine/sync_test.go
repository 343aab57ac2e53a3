package engine

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqy/topicsync/chatstore"
	"github.com/mqy/topicsync/gateway"
	"github.com/mqy/topicsync/ws"
)

func TestMessageForUnknownChatIsDropped(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	before := f.s.Store().Snapshot()
	version := f.s.Store().Version()
	dropped := testutil.ToFloat64(eventsDropped.WithLabelValues(ws.EventMessage))

	err := f.s.HandleEvent(context.Background(), message("c404", other, "hello?", f.now))
	assert.Equal(t, ErrUnknownChat, errors.Cause(err))

	assert.Equal(t, version, f.s.Store().Version())
	assert.Equal(t, before, f.s.Store().Snapshot())
	assert.Equal(t, dropped+1, testutil.ToFloat64(eventsDropped.WithLabelValues(ws.EventMessage)))
}

func TestMessagesNumberedInDeliveryOrder(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	seven, zero := 7, 0
	texts := []string{"a", "b", "c", "d", "e"}
	for i, text := range texts {
		ev := message(c0, viewer, text, f.now.Add(time.Duration(i)*time.Second))
		switch i {
		case 1:
			ev.SequenceNumber = &seven
		case 3:
			ev.SequenceNumber = &zero
		}
		f.deliver(t, ev)
	}

	msgs := chat(t, f.s.Store().Snapshot(), c0).Messages
	require.Len(t, msgs, len(texts))
	for i, m := range msgs {
		assert.Equal(t, i, m.SequenceNumber)
		assert.Equal(t, texts[i], m.Text)
	}
}

func TestMessageWithoutTimestampUsesNow(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.deliver(t, &ws.MessageEvent{ChatID: c0, SenderID: viewer, Text: "now"})
	assert.Equal(t, f.now, chat(t, f.s.Store().Snapshot(), c0).Messages[0].Timestamp)
}

// newChatFromOther delivers a chat that user u9 created from topic t5
// against the viewer's topic t1.
func newChatFromOther(t *testing.T, f *fixture) *ws.NewChatEvent {
	ev := &ws.NewChatEvent{
		ChatID:         c7,
		CreatorTopicID: t5,
		MatchedTopicID: t1,
		UserCreatorID:  other,
		UserMatchedID:  viewer,
	}
	f.ch.EXPECT().JoinChat(viewer, c7).Return(nil).Times(1)
	f.gw.EXPECT().GetTopic(gomock.Any(), t1).Return("hiking", nil).Times(1)
	f.gw.EXPECT().GetTopic(gomock.Any(), t5).Return("Outdoors", nil).Times(1)
	f.deliver(t, ev)
	return ev
}

func TestNewChatIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	ev := newChatFromOther(t, f)
	once := f.s.Store().Snapshot()

	topic := once.Topic(t1)
	require.NotNil(t, topic)
	assert.Equal(t, "hiking", topic.Title)
	c := topic.Chats[c7]
	require.NotNil(t, c)
	assert.Equal(t, "Outdoors", c.Name)
	assert.Equal(t, other, c.OtherUserID)
	assert.Equal(t, t5, c.OtherTopicID)
	assert.False(t, c.HasUnreadMessages)

	// no further join or title lookups.
	f.deliver(t, ev)
	assert.Equal(t, once, f.s.Store().Snapshot())
}

func TestNewChatForCreatorUsesCreatorTopic(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.seed(t, func(st *chatstore.State) {
		st.EnsureTopic(t1, "hiking")
	})

	// only the counterpart title is needed, and it cannot be fetched.
	f.ch.EXPECT().JoinChat(viewer, c8).Return(nil)
	f.gw.EXPECT().GetTopic(gomock.Any(), t6).Return("", errors.Wrap(gateway.ErrNetwork, "refused"))

	f.deliver(t, &ws.NewChatEvent{
		ChatID:         c8,
		CreatorTopicID: t1,
		MatchedTopicID: t6,
		UserCreatorID:  viewer,
		UserMatchedID:  "u6",
	})

	st := f.s.Store().Snapshot()
	assert.Nil(t, st.Topic(t6))
	c := st.Topic(t1).Chats[c8]
	require.NotNil(t, c)
	assert.Equal(t, string(t6), c.Name)
	assert.Equal(t, chatstore.UserID("u6"), c.OtherUserID)
	assert.Equal(t, "hiking", st.Topic(t1).Title)
}

func TestNewChatForKnownPairIsKeptAndCounted(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	newChatFromOther(t, f)
	dups := testutil.ToFloat64(duplicatePairs)

	f.ch.EXPECT().JoinChat(viewer, c8).Return(nil)
	f.gw.EXPECT().GetTopic(gomock.Any(), t5).Return("Outdoors", nil)
	f.deliver(t, &ws.NewChatEvent{
		ChatID:         c8,
		CreatorTopicID: t5,
		MatchedTopicID: t1,
		UserCreatorID:  other,
		UserMatchedID:  viewer,
	})

	assert.Equal(t, dups+1, testutil.ToFloat64(duplicatePairs))
	assert.Equal(t, []chatstore.ChatID{c7, c8}, f.s.Store().Snapshot().Topic(t1).ChatOrder)
}

func TestUnreadMonotonicity(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	newChatFromOther(t, f)

	unread := func() (bool, bool) {
		st := f.s.Store().Snapshot()
		return chat(t, st, c7).HasUnreadMessages, st.Topic(t1).HasUnreadChats
	}
	at := func(min int) time.Time { return f.now.Add(time.Duration(min) * time.Minute) }

	// the viewer's own message never raises the flag.
	f.deliver(t, message(c7, viewer, "hi", at(1)))
	c, topic := unread()
	assert.False(t, c)
	assert.False(t, topic)

	f.deliver(t, message(c7, other, "hey", at(2)))
	c, topic = unread()
	assert.True(t, c)
	assert.True(t, topic)

	// arrival of the viewer's reply does not clear it.
	f.deliver(t, message(c7, viewer, "how are you", at(3)))
	c, _ = unread()
	assert.True(t, c)

	f.gw.EXPECT().UpdateLastViewedAt(gomock.Any(), c7, viewer).Return(nil)
	require.NoError(t, f.s.SelectChat(context.Background(), t1, c7))
	c, topic = unread()
	assert.False(t, c)
	assert.False(t, topic)

	// messages in the chat being viewed stay read.
	f.deliver(t, message(c7, other, "fine", at(4)))
	c, _ = unread()
	assert.False(t, c)

	f.s.Back()
	f.deliver(t, message(c7, other, "still there?", at(5)))
	c, topic = unread()
	assert.True(t, c)
	assert.True(t, topic)
}

func TestHandleEventRejectsUnknownVariant(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.s.HandleEvent(context.Background(), nil))
}
