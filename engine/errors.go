package engine

import (
	"github.com/pkg/errors"
)

var (
	ErrNotStarted      = errors.New("engine: session not bootstrapped")
	ErrChannelNotReady = errors.New("engine: channel not ready")
	ErrChatExists      = errors.New("engine: chat already exists")
	ErrNoUserTopic     = errors.New("engine: no preceding user topic")
	ErrNoSuggestion    = errors.New("engine: no topic suggestion")
	ErrUnknownTopic    = errors.New("engine: unknown topic")
	ErrUnknownChat     = errors.New("engine: unknown chat")
	ErrBrainstorm      = errors.New("engine: brainstorm topic and chat cannot be deleted")
	ErrEmptyMessage    = errors.New("engine: empty message")
)

// errDuplicate aborts an update that would repeat an already applied event.
var errDuplicate = errors.New("engine: duplicate")
