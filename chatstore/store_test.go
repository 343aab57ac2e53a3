package chatstore

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	var v struct {
		Chat  ChatID  `json:"chat"`
		Topic TopicID `json:"topic"`
		User  UserID  `json:"user"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"chat":7,"topic":"t1","user":-1}`), &v))
	assert.Equal(t, ChatID("7"), v.Chat)
	assert.Equal(t, TopicID("t1"), v.Topic)
	assert.Equal(t, BotUserID, v.User)

	assert.Error(t, json.Unmarshal([]byte(`{"chat":{}}`), &v))
}

func TestTimestampUnmarshal(t *testing.T) {
	var v struct {
		A Timestamp `json:"a"`
		B Timestamp `json:"b"`
		C Timestamp `json:"c"`
		D Timestamp `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2023-07-01T10:00:00.5","b":"2023-07-01T10:00:00Z","c":1688205600000,"d":null}`), &v))
	want := time.Date(2023, 7, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, want.Add(500*time.Millisecond), v.A.Time)
	assert.Equal(t, want, v.B.Time)
	assert.Equal(t, want, v.C.Time)
	assert.True(t, v.D.IsZero())
}

func TestUpdateAbortLeavesStateUntouched(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Update(func(st *State) error {
		st.EnsureTopic("t1", "hiking")
		return nil
	}))

	errAbort := errors.New("abort")
	err := s.Update(func(st *State) error {
		st.EnsureTopic("t2", "cooking")
		st.Topics["t1"].Title = "changed"
		return errAbort
	})
	assert.Equal(t, errAbort, err)

	snap := s.Snapshot()
	assert.Len(t, snap.Topics, 1)
	assert.Equal(t, "hiking", snap.Topics["t1"].Title)
	assert.Equal(t, uint64(1), s.Version())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Update(func(st *State) error {
		st.EnsureTopic("t1", "hiking")
		st.AddChat("t1", &Chat{ID: "c1"})
		st.AppendMessage("c1", Message{Text: "hi", TopicInfo: &TopicMatchSuggestion{TopicID: "t5"}})
		return nil
	}))

	snap := s.Snapshot()
	snap.Topics["t1"].Chats["c1"].Messages[0].TopicInfo.TopicID = "x"
	snap.Topics["t1"].Chats["c1"].Messages = nil

	s.View(func(st *State) {
		msgs := st.Topics["t1"].Chats["c1"].Messages
		require.Len(t, msgs, 1)
		assert.Equal(t, TopicID("t5"), msgs[0].TopicInfo.TopicID)
	})
}

func TestAppendMessageNumbersByPosition(t *testing.T) {
	st := NewState()
	st.EnsureTopic("t1", "hiking")
	require.True(t, st.AddChat("t1", &Chat{ID: "c1"}))

	for i := 0; i < 5; i++ {
		_, _, ok := st.AppendMessage("c1", Message{SequenceNumber: 42, Text: "m"})
		require.True(t, ok)
	}
	for i, m := range st.Topics["t1"].Chats["c1"].Messages {
		assert.Equal(t, i, m.SequenceNumber)
	}

	_, _, ok := st.AppendMessage("missing", Message{})
	assert.False(t, ok)
}

func TestChatOrderAndRemoval(t *testing.T) {
	st := NewState()
	st.EnsureTopic("t1", "hiking")
	st.AddChat("t1", &Chat{ID: "c2", OtherTopicID: "t9"})
	st.AddChat("t1", &Chat{ID: "c1", HasUnreadMessages: true})
	assert.False(t, st.AddChat("t1", &Chat{ID: "c1"}))
	assert.False(t, st.AddChat("nope", &Chat{ID: "c3"}))

	topic := st.Topic("t1")
	assert.Equal(t, ChatID("c2"), topic.FirstChat())
	assert.True(t, topic.HasUnreadChats)
	assert.True(t, st.HasChatWith("t1", "t9"))
	assert.False(t, st.HasChatWith("t1", "t8"))

	assert.True(t, st.RemoveChat("t1", "c1"))
	assert.False(t, topic.HasUnreadChats)
	assert.Equal(t, []ChatID{"c2"}, topic.ChatOrder)

	st.EnsureTopic("t0", BrainstormTitle)
	visible := st.VisibleTopics("t0")
	require.Len(t, visible, 1)
	assert.Equal(t, TopicID("t1"), visible[0].ID)

	_, ok := st.RemoveTopic("t1")
	assert.True(t, ok)
	assert.Equal(t, []TopicID{"t0"}, st.TopicOrder)
}

func TestComputeUnread(t *testing.T) {
	t1 := time.Date(2023, 7, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	c := &Chat{ID: "c7", LastMessageAt: t2, LastSenderID: "u9"}
	assert.True(t, ComputeUnread(c, "u1", t1))
	assert.False(t, ComputeUnread(c, "u1", t2))
	assert.False(t, ComputeUnread(c, "u9", t1))

	c.Messages = []Message{{SenderID: "u1", Timestamp: t2}}
	assert.False(t, ComputeUnread(c, "u1", t1))

	assert.False(t, ComputeUnread(&Chat{}, "u1", time.Time{}))
}

func TestSubscribeSeesLatest(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe()
	defer cancel()

	for _, id := range []TopicID{"t1", "t2", "t3"} {
		id := id
		require.NoError(t, s.Update(func(st *State) error {
			st.EnsureTopic(id, string(id))
			return nil
		}))
	}

	st := <-ch
	assert.Len(t, st.Topics, 3)
}
