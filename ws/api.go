package ws

import (
	"context"
	"errors"

	"github.com/mqy/topicsync/chatstore"
)

var (
	ErrNotConnected = errors.New("channel: not connected")
	ErrClosed       = errors.New("channel: closed")
)

// IChannel is the realtime event channel. Joins are fire-and-forget: they are
// queued for sending and replayed after reconnects.
type IChannel interface {
	// Connect dials the channel and starts delivering events.
	Connect(ctx context.Context) error

	// JoinUser subscribes to events addressed to the user.
	JoinUser(uid chatstore.UserID) error

	// JoinChat subscribes to messages of the chat.
	JoinChat(uid chatstore.UserID, chat chatstore.ChatID) error

	// LeaveChat unsubscribes from messages of the chat.
	LeaveChat(uid chatstore.UserID, chat chatstore.ChatID) error

	// SendMessage publishes a message to a chat room.
	SendMessage(msg *OutboundMessage) error

	// Events delivers inbound events in arrival order. It is closed after Close.
	Events() <-chan Event

	// Connected reports whether a connection is currently up.
	Connected() bool

	Close() error
}
