package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqy/topicsync/chatstore"
)

func newTestGateway(t *testing.T, h http.Handler) *HTTPGateway {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g, err := NewHTTPGateway(Config{BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)
	return g
}

func TestNewHTTPGatewayBadURL(t *testing.T) {
	_, err := NewHTTPGateway(Config{BaseURL: "ws://127.0.0.1:5000"})
	assert.Error(t, err)
}

func TestHTTPGatewayIsGateway(t *testing.T) {
	g, err := NewHTTPGateway(Config{BaseURL: "http://127.0.0.1:5000"})
	require.NoError(t, err)
	assert.Implements(t, (*IGateway)(nil), g)
}

func TestTopicsAndNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user-topics/1", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":3,"title":"Brainstorm"},{"id":4,"title":"hiking"}]`))
		case http.MethodPost:
			var in struct{ Title string }
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "cooking", in.Title)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":5}`))
		}
	})
	mux.HandleFunc("/user-topics/2", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"No topics found for this user"}`, http.StatusNotFound)
	})
	g := newTestGateway(t, mux)
	ctx := context.Background()

	topics, err := g.GetTopics(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []TopicSummary{{ID: "3", Title: "Brainstorm"}, {ID: "4", Title: "hiking"}}, topics)

	id, err := g.CreateTopic(ctx, "1", "cooking")
	require.NoError(t, err)
	assert.Equal(t, chatstore.TopicID("5"), id)

	_, err = g.GetTopics(ctx, "2")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNetwork(err))
}

func TestServerErrorIsNetwork(t *testing.T) {
	g := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, err := g.GetTopic(context.Background(), "1")
	assert.True(t, IsNetwork(err))
}

func TestConnectionRefusedIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g, err := NewHTTPGateway(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)
	_, err = g.GetOrCreateUserID(context.Background())
	assert.True(t, IsNetwork(err))
}

func TestGetChatsByTopic(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chatmetadata/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"chatID":7,"creatorTopicID":5,"matchedTopicID":1,"userCreatorID":"9","userMatchedID":"1",
			 "creatorLastViewedAt":null,"matchedLastViewedAt":"2023-07-01T10:00:00","lastMessageTimestamp":"2023-07-01T10:05:00"},
			{"chatID":8,"creatorTopicID":1,"matchedTopicID":6,"userCreatorID":"1","userMatchedID":"4",
			 "creatorLastViewedAt":"2023-07-01T09:00:00","matchedLastViewedAt":null,"lastMessageTimestamp":null}
		]`))
	})
	mux.HandleFunc("/chatmetadata/2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	g := newTestGateway(t, mux)

	chats, err := g.GetChatsByTopic(context.Background(), "1", "1")
	require.NoError(t, err)
	require.Len(t, chats, 2)

	c7 := chats["7"]
	assert.Equal(t, chatstore.TopicID("5"), c7.OtherTopicID)
	assert.Equal(t, chatstore.UserID("9"), c7.OtherUserID)
	assert.Equal(t, time.Date(2023, 7, 1, 10, 0, 0, 0, time.UTC), c7.LastViewedAt.Time)
	assert.Equal(t, time.Date(2023, 7, 1, 10, 5, 0, 0, time.UTC), c7.LastMessageTimestamp.Time)

	c8 := chats["8"]
	assert.Equal(t, chatstore.TopicID("6"), c8.OtherTopicID)
	assert.Equal(t, chatstore.UserID("4"), c8.OtherUserID)
	assert.Equal(t, time.Date(2023, 7, 1, 9, 0, 0, 0, time.UTC), c8.LastViewedAt.Time)
	assert.True(t, c8.LastMessageTimestamp.IsZero())

	chats, err = g.GetChatsByTopic(context.Background(), "2", "1")
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestCreateChatAndMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/create-chat", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, map[string]string{
			"creatorTopicID": "t5", "matchedTopicID": "t1", "userCreatorID": "u9", "userMatchedID": "u1",
		}, in)
		_, _ = w.Write([]byte(`{"chatID":"c7"}`))
	})
	mux.HandleFunc("/chats/c7", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":1,"messageNumber":0,"senderID":"u1","text":"hiking","timestamp":"2023-07-01T10:00:00","topicID":"t1"},
			{"id":2,"messageNumber":1,"senderID":-1,"text":"try Outdoors","timestamp":"2023-07-01T10:00:01",
			 "topicInfo":{"topicID":"t5","topicName":"Outdoors","userID":"u9"}}
		]`))
	})
	mux.HandleFunc("/update-timestamp", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, map[string]string{"chatID": "c7", "userID": "u1"}, in)
	})
	g := newTestGateway(t, mux)
	ctx := context.Background()

	id, err := g.CreateChat(ctx, "t5", "t1", "u9", "u1")
	require.NoError(t, err)
	assert.Equal(t, chatstore.ChatID("c7"), id)

	msgs, err := g.LoadChatMessages(ctx, "c7")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, 0, msgs[0].SequenceNumber)
	assert.Equal(t, chatstore.TopicID("t1"), msgs[0].TopicInfo.TopicID)
	assert.Equal(t, chatstore.BotUserID, msgs[1].SenderID)
	assert.Equal(t, "Outdoors", msgs[1].TopicInfo.TopicName)

	msgs, err = g.LoadChatMessages(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, g.UpdateLastViewedAt(ctx, "c7", "u1"))
}

func TestGetBotResponse(t *testing.T) {
	g := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot-response", r.URL.Path)
		assert.Equal(t, "hiking", r.URL.Query().Get("topic"))
		assert.Equal(t, "u1", r.URL.Query().Get("userID"))
		_, _ = w.Write([]byte(`{"segwayResponses":"You might like Outdoors\nOr Trails",
			"convMatches":[{"topicID":"t5","topicName":"Outdoors","userID":"u9"}]}`))
	}))

	replies, err := g.GetBotResponse(context.Background(), "hiking", "u1")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "You might like Outdoors", replies[0].Text)
	assert.Equal(t, chatstore.TopicID("t5"), replies[0].TopicInfo.TopicID)
	assert.Nil(t, replies[1].TopicInfo)
}

func TestBotRepliesFromTopicMatches(t *testing.T) {
	r := &wireBotResponse{TopicMatches: []*chatstore.TopicMatchSuggestion{{TopicID: "t5", TopicName: "Outdoors"}, nil}}
	replies := r.replies()
	require.Len(t, replies, 1)
	assert.Equal(t, "Outdoors", replies[0].Text)
	assert.Len(t, BotErrorReply(), 1)
}
