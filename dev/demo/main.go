package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/mqy/topicsync/chatstore"
	"github.com/mqy/topicsync/gateway"
	"github.com/mqy/topicsync/ws"
)

// The demo server is an in-memory backend for local runs of the client: the
// REST routes of the gateway plus websocket rooms of the realtime channel.
// Nothing is persisted.

const (
	writeWait  = 3 * time.Second
	pingPeriod = 20 * time.Second
	pongWait   = 25 * time.Second
	readLimit  = 64 << 10
)

var (
	flagAddr = flag.String("addr", "127.0.0.1:8000", "demo server address, ip:port")
)

type topic struct {
	ID    chatstore.TopicID
	Title string
	Owner chatstore.UserID
}

type message struct {
	MessageNumber int                             `json:"messageNumber"`
	SenderID      chatstore.UserID                `json:"senderID"`
	Text          string                          `json:"text"`
	Timestamp     chatstore.Timestamp             `json:"timestamp"`
	TopicInfo     *chatstore.TopicMatchSuggestion `json:"topicInfo,omitempty"`
}

type chat struct {
	meta     gateway.ChatMetadata
	messages []message
}

type backend struct {
	sync.Mutex
	nextID int

	topics     map[chatstore.TopicID]*topic
	userTopics map[chatstore.UserID][]chatstore.TopicID
	chats      map[chatstore.ChatID]*chat
	topicChats map[chatstore.TopicID][]chatstore.ChatID

	rooms map[string]map[*conn]bool
}

func newBackend() *backend {
	return &backend{
		topics:     make(map[chatstore.TopicID]*topic),
		userTopics: make(map[chatstore.UserID][]chatstore.TopicID),
		chats:      make(map[chatstore.ChatID]*chat),
		topicChats: make(map[chatstore.TopicID][]chatstore.ChatID),
		rooms:      make(map[string]map[*conn]bool),
	}
}

func (b *backend) newIDLocked() string {
	b.nextID++
	return strconv.Itoa(b.nextID)
}

func main() {
	flag.Parse()
	defer glog.Flush()

	b := newBackend()
	mux := http.NewServeMux()
	mux.HandleFunc("/create-user", b.createUser)
	mux.HandleFunc("/user-topics/", b.userTopicsHandler)
	mux.HandleFunc("/topics/", b.getTopic)
	mux.HandleFunc("/chatmetadata/", b.chatMetadata)
	mux.HandleFunc("/create-chat", b.createChat)
	mux.HandleFunc("/chats/", b.chatMessages)
	mux.HandleFunc("/update-timestamp", b.updateTimestamp)
	mux.HandleFunc("/bot-response", b.botResponse)
	mux.HandleFunc("/ws", b.serveWs)

	glog.Infof("demo server is listening on %s", *flagAddr)
	if err := http.ListenAndServe(*flagAddr, mux); err != nil {
		glog.Errorf("demo server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Errorf("writeJSON(): %v", err)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, readLimit)).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (b *backend) createUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	b.Lock()
	uid := b.newIDLocked()
	b.Unlock()
	glog.Infof("createUser(): %s", uid)
	writeJSON(w, map[string]string{"uuid": uid})
}

func (b *backend) userTopicsHandler(w http.ResponseWriter, r *http.Request) {
	uid := chatstore.UserID(strings.TrimPrefix(r.URL.Path, "/user-topics/"))

	if r.Method == http.MethodGet {
		b.Lock()
		var out []gateway.TopicSummary
		for _, id := range b.userTopics[uid] {
			out = append(out, gateway.TopicSummary{ID: id, Title: b.topics[id].Title})
		}
		b.Unlock()
		if len(out) == 0 {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, out)
		return
	}

	var in struct {
		Title string `json:"title"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	b.Lock()
	id := chatstore.TopicID(b.newIDLocked())
	b.topics[id] = &topic{ID: id, Title: in.Title, Owner: uid}
	b.userTopics[uid] = append(b.userTopics[uid], id)
	b.Unlock()
	glog.Infof("createTopic(): user %s, topic %s %q", uid, id, in.Title)
	writeJSON(w, map[string]chatstore.TopicID{"id": id})
}

func (b *backend) getTopic(w http.ResponseWriter, r *http.Request) {
	id := chatstore.TopicID(strings.TrimPrefix(r.URL.Path, "/topics/"))
	b.Lock()
	t, ok := b.topics[id]
	b.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]string{"title": t.Title})
}

func (b *backend) chatMetadata(w http.ResponseWriter, r *http.Request) {
	id := chatstore.TopicID(strings.TrimPrefix(r.URL.Path, "/chatmetadata/"))
	b.Lock()
	var out []gateway.ChatMetadata
	for _, cid := range b.topicChats[id] {
		out = append(out, b.chats[cid].meta)
	}
	b.Unlock()
	if len(out) == 0 {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, out)
}

func (b *backend) createChat(w http.ResponseWriter, r *http.Request) {
	var in ws.NewChatEvent
	if !readJSON(w, r, &in) {
		return
	}

	b.Lock()
	in.ChatID = chatstore.ChatID(b.newIDLocked())
	b.chats[in.ChatID] = &chat{meta: gateway.ChatMetadata{
		ChatID:         in.ChatID,
		CreatorTopicID: in.CreatorTopicID,
		MatchedTopicID: in.MatchedTopicID,
		UserCreatorID:  in.UserCreatorID,
		UserMatchedID:  in.UserMatchedID,
	}}
	for _, t := range []chatstore.TopicID{in.CreatorTopicID, in.MatchedTopicID} {
		if t != chatstore.BotTopicID {
			b.topicChats[t] = append(b.topicChats[t], in.ChatID)
		}
	}
	b.Unlock()

	glog.Infof("createChat(): chat %s, topics %s/%s", in.ChatID, in.CreatorTopicID, in.MatchedTopicID)
	if in.UserMatchedID != chatstore.BotUserID {
		b.broadcast(ws.UserRoom(in.UserCreatorID), ws.EventNewChat, &in)
	}
	writeJSON(w, map[string]chatstore.ChatID{"chatID": in.ChatID})
}

func (b *backend) chatMessages(w http.ResponseWriter, r *http.Request) {
	id := chatstore.ChatID(strings.TrimPrefix(r.URL.Path, "/chats/"))
	b.Lock()
	c, ok := b.chats[id]
	var out []message
	if ok {
		out = append(out, c.messages...)
	}
	b.Unlock()
	if len(out) == 0 {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, out)
}

func (b *backend) updateTimestamp(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ChatID chatstore.ChatID `json:"chatID"`
		UserID chatstore.UserID `json:"userID"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	b.Lock()
	defer b.Unlock()
	c, ok := b.chats[in.ChatID]
	if !ok {
		http.NotFound(w, r)
		return
	}
	now := chatstore.Timestamp{Time: time.Now().UTC()}
	if c.meta.UserCreatorID == in.UserID {
		c.meta.CreatorLastViewedAt = now
	} else {
		c.meta.MatchedLastViewedAt = now
	}
	w.WriteHeader(http.StatusNoContent)
}

// botResponse suggests the most recent topic of another user.
func (b *backend) botResponse(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("topic")
	uid := chatstore.UserID(r.URL.Query().Get("userID"))

	b.Lock()
	var match *chatstore.TopicMatchSuggestion
	for i := b.nextID; i > 0 && match == nil; i-- {
		t, ok := b.topics[chatstore.TopicID(strconv.Itoa(i))]
		if ok && t.Owner != uid && t.Title != chatstore.BrainstormTitle {
			match = &chatstore.TopicMatchSuggestion{TopicID: t.ID, TopicName: t.Title, UserID: t.Owner}
		}
	}
	b.Unlock()

	out := struct {
		SegwayResponses string                            `json:"segwayResponses"`
		ConvMatches     []*chatstore.TopicMatchSuggestion `json:"convMatches"`
	}{}
	if match == nil {
		out.SegwayResponses = fmt.Sprintf("Nobody else is here yet. Tell me more about %s!", text)
	} else {
		out.SegwayResponses = fmt.Sprintf("Someone wants to talk about %s. Start a chat?", match.TopicName)
		out.ConvMatches = []*chatstore.TopicMatchSuggestion{match}
	}
	writeJSON(w, &out)
}

// appendMessage stores an inbound message and returns the event to broadcast.
func (b *backend) appendMessage(in *ws.OutboundMessage) (*ws.MessageEvent, bool) {
	b.Lock()
	defer b.Unlock()
	c, ok := b.chats[in.ChatID]
	if !ok {
		return nil, false
	}
	seq := len(c.messages)
	m := message{
		MessageNumber: seq,
		SenderID:      in.SenderID,
		Text:          in.Text,
		Timestamp:     chatstore.Timestamp{Time: time.Now().UTC()},
		TopicInfo:     in.TopicInfo,
	}
	c.messages = append(c.messages, m)
	c.meta.LastMessageTimestamp = m.Timestamp
	c.meta.LastSenderID = m.SenderID
	return &ws.MessageEvent{
		ChatID:         in.ChatID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		Timestamp:      m.Timestamp,
		SequenceNumber: &seq,
		TopicInfo:      m.TopicInfo,
	}, true
}

type conn struct {
	ws    *websocket.Conn
	sendC chan []byte
	done  chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (b *backend) serveWs(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Errorf("serveWs(): upgrade error: %v", err)
		return
	}
	c := &conn{ws: wsConn, sendC: make(chan []byte, 64), done: make(chan struct{})}
	glog.V(5).Infof("serveWs(): connected, session: %s", r.Header.Get("X-Session-Id"))

	go c.sendLoop()
	b.recvLoop(c)

	close(c.done)
	b.leaveAll(c)
	wsConn.Close()
}

func (b *backend) recvLoop(c *conn) {
	c.ws.SetReadLimit(readLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	// the client pings too; answer and extend the deadline.
	c.ws.SetPingHandler(func(data string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return c.ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			glog.V(5).Infof("recvLoop(): exited, err: %v", err)
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(pongWait))

		var env ws.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			glog.Errorf("recvLoop(): bad frame: %v", err)
			continue
		}

		switch env.Event {
		case ws.EventUserJoin, ws.EventChatJoin, ws.EventChatLeave:
			var req ws.JoinRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				glog.Errorf("recvLoop(): bad %s: %v", env.Event, err)
				continue
			}
			if env.Event == ws.EventChatLeave {
				b.leave(c, req.Room)
			} else {
				b.join(c, req.Room)
			}
		case ws.EventNewMessage:
			var in ws.OutboundMessage
			if err := json.Unmarshal(env.Data, &in); err != nil {
				glog.Errorf("recvLoop(): bad %s: %v", env.Event, err)
				continue
			}
			if ev, ok := b.appendMessage(&in); ok {
				b.broadcast(string(in.ChatID), ws.EventMessage, ev)
			}
		default:
			glog.Errorf("recvLoop(): unsupported event `%s`", env.Event)
		}
	}
}

// sendLoop writes queued frames and pings.
func (c *conn) sendLoop() {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendC:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				glog.Errorf("sendLoop(): write error: %v", err)
				c.ws.Close()
				return
			}
		case <-pingTicker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.ws.Close()
				return
			}
		}
	}
}

func (b *backend) join(c *conn, room string) {
	b.Lock()
	defer b.Unlock()
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[*conn]bool)
	}
	b.rooms[room][c] = true
}

func (b *backend) leave(c *conn, room string) {
	b.Lock()
	defer b.Unlock()
	delete(b.rooms[room], c)
}

func (b *backend) leaveAll(c *conn) {
	b.Lock()
	defer b.Unlock()
	for _, members := range b.rooms {
		delete(members, c)
	}
}

func (b *backend) broadcast(room, event string, data interface{}) {
	frame, err := ws.Encode(event, data)
	if err != nil {
		glog.Errorf("broadcast(): %v", err)
		return
	}
	b.Lock()
	defer b.Unlock()
	for c := range b.rooms[room] {
		select {
		case c.sendC <- frame:
		default:
			glog.Errorf("broadcast(): room %s: send buffer full, drop %s", room, event)
		}
	}
}
