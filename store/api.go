package store

import (
	"github.com/mqy/topicsync/chatstore"
)

// IIdentityStore caches the viewer's user id across runs. It is the only
// state the client persists locally.
type IIdentityStore interface {
	// UserID returns the cached user id, or "" when none is cached.
	UserID() (chatstore.UserID, error)

	// SaveUserID caches the user id, replacing any previous one.
	SaveUserID(uid chatstore.UserID) error

	// Reset forgets the cached user id.
	Reset() error

	Close() error
}
