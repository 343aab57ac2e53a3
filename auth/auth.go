package auth

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/mqy/topicsync/chatstore"
	"github.com/mqy/topicsync/store"
)

var ErrEmptyUserID = errors.New("auth: empty user id")

// IResolver yields the viewer's user id.
type IResolver interface {
	// Resolve returns the cached user id, or obtains and caches a new one.
	Resolve(ctx context.Context) (chatstore.UserID, error)
}

// Issuer hands out new user ids; `gateway.IGateway` is one.
type Issuer interface {
	GetOrCreateUserID(ctx context.Context) (chatstore.UserID, error)
}

// Resolver implements `IResolver` over a local identity cache and a remote issuer.
type Resolver struct {
	cache  store.IIdentityStore
	issuer Issuer
}

func NewResolver(cache store.IIdentityStore, issuer Issuer) *Resolver {
	return &Resolver{cache: cache, issuer: issuer}
}

func (r *Resolver) Resolve(ctx context.Context) (chatstore.UserID, error) {
	uid, err := r.cache.UserID()
	if err != nil {
		// an unreadable cache is treated as a miss.
		glog.Errorf("Resolve(): read cached user id error: %v", err)
	} else if uid != "" {
		glog.V(5).Infof("Resolve(): cached user id: %s", uid)
		return uid, nil
	}

	uid, err = r.issuer.GetOrCreateUserID(ctx)
	if err != nil {
		return "", errors.Wrap(err, "issue user id")
	}
	if uid == "" {
		return "", ErrEmptyUserID
	}

	if err := r.cache.SaveUserID(uid); err != nil {
		glog.Errorf("Resolve(): cache user id %s error: %v", uid, err)
	}
	glog.Infof("Resolve(): issued user id: %s", uid)
	return uid, nil
}

// StaticResolver always resolves to the same user id.
type StaticResolver struct {
	UserID chatstore.UserID
}

func (r *StaticResolver) Resolve(context.Context) (chatstore.UserID, error) {
	if r.UserID == "" {
		return "", ErrEmptyUserID
	}
	return r.UserID, nil
}
