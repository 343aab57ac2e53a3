package engine

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/mqy/topicsync/auth"
	"github.com/mqy/topicsync/chatstore"
	"github.com/mqy/topicsync/gateway"
	"github.com/mqy/topicsync/ws"
)

type Config struct {
	Gateway  gateway.IGateway
	Channel  ws.IChannel
	Identity auth.IResolver

	// Store is created when nil.
	Store *chatstore.Store

	// Now defaults to time.Now.
	Now func() time.Time
}

// Session is the long lived context of one signed in user: its identity, the
// brainstorm ids and the collaborators every workflow needs.
type Session struct {
	sync.RWMutex

	gw       gateway.IGateway
	ch       ws.IChannel
	identity auth.IResolver
	st       *chatstore.Store
	now      func() time.Time

	userID          chatstore.UserID
	brainstormTopic chatstore.TopicID
	brainstormChat  chatstore.ChatID
	ready           bool
}

func NewSession(conf Config) *Session {
	s := &Session{
		gw:       conf.Gateway,
		ch:       conf.Channel,
		identity: conf.Identity,
		st:       conf.Store,
		now:      conf.Now,
	}
	if s.st == nil {
		s.st = chatstore.NewStore()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Session) Store() *chatstore.Store {
	return s.st
}

func (s *Session) UserID() chatstore.UserID {
	s.RLock()
	defer s.RUnlock()
	return s.userID
}

func (s *Session) BrainstormTopic() chatstore.TopicID {
	s.RLock()
	defer s.RUnlock()
	return s.brainstormTopic
}

func (s *Session) BrainstormChat() chatstore.ChatID {
	s.RLock()
	defer s.RUnlock()
	return s.brainstormChat
}

// ChannelReady reports whether phase two of the bootstrap has completed.
func (s *Session) ChannelReady() bool {
	s.RLock()
	defer s.RUnlock()
	return s.ready
}

// ids returns the user id and brainstorm ids, or ErrNotStarted before the
// first bootstrap phase has completed.
func (s *Session) ids() (chatstore.UserID, chatstore.TopicID, chatstore.ChatID, error) {
	s.RLock()
	defer s.RUnlock()
	if s.userID == "" || s.brainstormChat == "" {
		return "", "", "", ErrNotStarted
	}
	return s.userID, s.brainstormTopic, s.brainstormChat, nil
}

// readyIDs is ids plus the channel readiness precondition.
func (s *Session) readyIDs() (chatstore.UserID, chatstore.TopicID, chatstore.ChatID, error) {
	uid, topic, chat, err := s.ids()
	if err != nil {
		return "", "", "", err
	}
	if !s.ChannelReady() {
		return "", "", "", ErrChannelNotReady
	}
	return uid, topic, chat, nil
}

// Start runs the two bootstrap phases: fetch identity, topics and chats, then
// bring up the channel and join every known room. The channel is never
// touched when the first phase fails.
func (s *Session) Start(ctx context.Context) error {
	if err := s.bootstrap(ctx); err != nil {
		glog.Errorf("Start(): bootstrap error: %v", err)
		return err
	}
	if err := s.connect(ctx); err != nil {
		glog.Errorf("Start(): channel error: %v", err)
		return err
	}
	glog.Infof("Start(): session ready, user: %s, brainstorm chat: %s", s.UserID(), s.BrainstormChat())
	return nil
}

// connect is the second bootstrap phase.
func (s *Session) connect(ctx context.Context) error {
	uid, _, _, err := s.ids()
	if err != nil {
		return err
	}

	if err := s.ch.Connect(ctx); err != nil {
		return errors.Wrap(err, "connect channel")
	}
	if err := s.ch.JoinUser(uid); err != nil {
		return errors.Wrapf(err, "join user room %s", uid)
	}

	var chats []chatstore.ChatID
	s.st.View(func(st *chatstore.State) {
		for _, tid := range st.TopicOrder {
			chats = append(chats, st.Topics[tid].ChatOrder...)
		}
	})
	for _, id := range chats {
		if err := s.ch.JoinChat(uid, id); err != nil {
			glog.Errorf("connect(): join chat %s error: %v", id, err)
		}
	}

	s.Lock()
	s.ready = true
	s.Unlock()
	channelReady.Set(1)
	glog.V(2).Infof("connect(): joined user room %s and %d chat rooms", uid, len(chats))
	return nil
}

// Run applies channel events one at a time until ctx is done or the channel
// is closed.
func (s *Session) Run(ctx context.Context) error {
	events := s.ch.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				glog.V(2).Info("Run(): channel closed")
				return ws.ErrClosed
			}
			_ = s.HandleEvent(ctx, ev)
		}
	}
}

// Close disconnects the channel. In-flight gateway calls are not awaited.
func (s *Session) Close() error {
	s.Lock()
	s.ready = false
	s.Unlock()
	channelReady.Set(0)
	return s.ch.Close()
}
