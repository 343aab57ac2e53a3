package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/pborman/uuid"

	"github.com/mqy/topicsync/chatstore"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 3 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = 20 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 25 * time.Second

	// websocket max message size to read.
	readLimit = 64 << 10

	defaultHandshakeTimeout = 10 * time.Second
	defaultEventBuffer      = 64
	sendBuffer              = 64
)

type Config struct {
	// URL of the channel endpoint, ws:// or wss://.
	URL    string
	Header http.Header
	Jar    http.CookieJar

	HandshakeTimeout time.Duration
	EventBuffer      int

	// Reconnect backoff bounds; zero means BackoffMinInterval/BackoffMaxInterval.
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// Client implements `IChannel` over a websocket. A lost connection is
// re-dialed with exponential backoff and joined rooms are joined again.
type Client struct {
	sync.Mutex

	conf   Config
	dialer *websocket.Dialer
	sid    string

	started   bool
	closed    bool
	connected bool

	rooms  *roomStore
	sendC  chan []byte
	events chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewClient(conf Config) *Client {
	if conf.HandshakeTimeout <= 0 {
		conf.HandshakeTimeout = defaultHandshakeTimeout
	}
	if conf.EventBuffer <= 0 {
		conf.EventBuffer = defaultEventBuffer
	}
	if conf.ReconnectMin <= 0 {
		conf.ReconnectMin = BackoffMinInterval
	}
	if conf.ReconnectMax <= 0 {
		conf.ReconnectMax = BackoffMaxInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conf: conf,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: conf.HandshakeTimeout,
			Jar:              conf.Jar,
			ReadBufferSize:   4096,
			WriteBufferSize:  1024,
		},
		sid:    strings.ReplaceAll(uuid.New(), "-", ""),
		rooms:  newRoomStore(),
		sendC:  make(chan []byte, sendBuffer),
		events: make(chan Event, conf.EventBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) String() string {
	return c.sid
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	for k, v := range c.conf.Header {
		header[k] = v
	}
	header.Set("X-Session-Id", c.sid)

	conn, resp, err := c.dialer.DialContext(ctx, c.conf.URL, header)
	if err != nil {
		if resp != nil {
			glog.Errorf("dial(): %s, status: %d, err: %v", c.conf.URL, resp.StatusCode, err)
		} else {
			glog.Errorf("dial(): %s, err: %v", c.conf.URL, err)
		}
		return nil, err
	}
	glog.V(5).Infof("dial(): connected to %s, session: %s", c.conf.URL, c)
	return conn, nil
}

func (c *Client) Connect(ctx context.Context) error {
	c.Lock()
	if c.closed {
		c.Unlock()
		return ErrClosed
	}
	if c.started {
		c.Unlock()
		return nil
	}
	c.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.Lock()
	defer c.Unlock()
	if c.closed || c.started {
		conn.Close()
		if c.closed {
			return ErrClosed
		}
		return nil
	}
	c.started = true
	c.wg.Add(1)
	go c.run(conn)
	return nil
}

// run serves connections until Close, re-dialing lost ones.
func (c *Client) run(conn *websocket.Conn) {
	defer func() {
		close(c.events)
		c.wg.Done()
		glog.V(5).Infof("run(): exited, session: %s", c)
	}()

	var sleep time.Duration
	for {
		err := c.serve(conn)
		if c.ctx.Err() != nil {
			return
		}
		glog.Errorf("run(): connection lost, session: %s, err: %v", c, err)

		for {
			backoff(&sleep, c.conf.ReconnectMin, c.conf.ReconnectMax)
			select {
			case <-time.After(sleep):
			case <-c.ctx.Done():
				return
			}
			conn, err = c.dial(c.ctx)
			if err == nil {
				sleep = 0
				break
			}
			if c.ctx.Err() != nil {
				return
			}
		}

		if err := c.rejoin(conn); err != nil {
			glog.Errorf("run(): rejoin error, session: %s, err: %v", c, err)
		}
	}
}

// rejoin replays joined rooms on a fresh connection.
func (c *Client) rejoin(conn *websocket.Conn) error {
	for _, j := range c.rooms.list() {
		b, err := Encode(j.event, &j.req)
		if err != nil {
			return err
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return err
		}
		glog.V(5).Infof("rejoin(): %s %s, session: %s", j.event, j.req.Room, c)
	}
	return nil
}

// serve runs the read and write loops of one connection and returns once
// either fails or the client is closed.
func (c *Client) serve(conn *websocket.Conn) error {
	c.setConnected(true)
	defer c.setConnected(false)

	recvErrC := make(chan error, 1)
	go func() {
		recvErrC <- c.recvLoop(conn)
	}()

	err := c.sendLoop(conn, recvErrC)
	conn.Close()
	return err
}

func (c *Client) setConnected(v bool) {
	c.Lock()
	c.connected = v
	c.Unlock()
}

func (c *Client) recvLoop(conn *websocket.Conn) error {
	defer func() { glog.V(5).Infof("recvLoop(): exited, session: %s", c) }()

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		glog.V(5).Infof("recvLoop(): incoming message: %s", truncate(msg))

		if msgType != websocket.TextMessage {
			glog.Errorf("recvLoop(): unexpected message type: %d", msgType)
			continue
		}

		ev, err := Decode(msg)
		if err != nil {
			glog.Errorf("recvLoop(): drop message: %s, err: %v", truncate(msg), err)
			continue
		}

		select {
		case c.events <- ev:
		case <-c.ctx.Done():
			return nil
		}
	}
}

// sendLoop writes queued frames and pings until the read loop fails or the
// client is closed.
func (c *Client) sendLoop(conn *websocket.Conn, recvErrC <-chan error) error {
	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		pingTicker.Stop()
		glog.V(5).Infof("sendLoop(): exited, session: %s", c)
	}()

	fail := func(err error) error {
		conn.Close()
		<-recvErrC
		return err
	}

	for {
		select {
		case err := <-recvErrC:
			return err
		case <-c.ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return fail(nil)
		case data := <-c.sendC:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				glog.Errorf("sendLoop(): error write message %s, session: %s, err: %v", truncate(data), c, err)
				return fail(err)
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				glog.Errorf("sendLoop(): error write ping message, session: %s, err: %v", c, err)
				return fail(err)
			}
		}
	}
}

func (c *Client) emit(name string, data interface{}) error {
	b, err := Encode(name, data)
	if err != nil {
		return err
	}

	c.Lock()
	closed, started := c.closed, c.started
	c.Unlock()
	if closed {
		return ErrClosed
	}
	if !started {
		return ErrNotConnected
	}

	select {
	case c.sendC <- b:
		glog.V(5).Infof("emit(): queued %s, session: %s", truncate(b), c)
		return nil
	case <-c.ctx.Done():
		return ErrClosed
	}
}

func (c *Client) JoinUser(uid chatstore.UserID) error {
	req := JoinRequest{UserID: uid, Room: UserRoom(uid)}
	if err := c.emit(EventUserJoin, &req); err != nil {
		return err
	}
	c.rooms.add(EventUserJoin, req)
	return nil
}

func (c *Client) JoinChat(uid chatstore.UserID, chat chatstore.ChatID) error {
	req := JoinRequest{UserID: uid, Room: string(chat)}
	if err := c.emit(EventChatJoin, &req); err != nil {
		return err
	}
	c.rooms.add(EventChatJoin, req)
	return nil
}

func (c *Client) LeaveChat(uid chatstore.UserID, chat chatstore.ChatID) error {
	if !c.rooms.del(EventChatJoin, string(chat)) {
		return nil
	}
	return c.emit(EventChatLeave, &JoinRequest{UserID: uid, Room: string(chat)})
}

// JoinedChat reports whether the chat room is currently joined.
func (c *Client) JoinedChat(chat chatstore.ChatID) bool {
	return c.rooms.has(EventChatJoin, string(chat))
}

func (c *Client) SendMessage(msg *OutboundMessage) error {
	return c.emit(EventNewMessage, msg)
}

func (c *Client) Events() <-chan Event {
	return c.events
}

func (c *Client) Connected() bool {
	c.Lock()
	defer c.Unlock()
	return c.connected
}

// Close disconnects and stops reconnecting. Queued frames are dropped.
func (c *Client) Close() error {
	c.Lock()
	if c.closed {
		c.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	c.Unlock()

	c.cancel()
	if started {
		c.wg.Wait()
	} else {
		close(c.events)
	}
	glog.V(5).Infof("Close(): session: %s", c)
	return nil
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > 100 {
		s = s[:100] + " ..."
	}
	return s
}
