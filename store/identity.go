package store

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"go.etcd.io/bbolt"

	"github.com/mqy/topicsync/chatstore"
)

var (
	identityBucket = []byte("identity")
	userIDKey      = []byte("uuid")
)

const openTimeout = time.Second

// boltIdentityStore implements interface `IIdentityStore` on a bbolt file.
type boltIdentityStore struct {
	db *bbolt.DB
}

// OpenIdentityStore opens or creates the identity file at path.
func OpenIdentityStore(path string) (*boltIdentityStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open identity db `%s`: %v", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(identityBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create identity bucket: %v", err)
	}
	return &boltIdentityStore{db: db}, nil
}

func (s *boltIdentityStore) UserID() (chatstore.UserID, error) {
	var out chatstore.UserID
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(identityBucket).Get(userIDKey); v != nil {
			out = chatstore.UserID(v)
		}
		return nil
	})
	if err != nil {
		glog.Errorf("UserID(): read error: %v", err)
		return "", err
	}
	return out, nil
}

func (s *boltIdentityStore) SaveUserID(uid chatstore.UserID) error {
	if uid == "" {
		return fmt.Errorf("empty user id")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(identityBucket).Put(userIDKey, []byte(uid))
	})
}

func (s *boltIdentityStore) Reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(identityBucket).Delete(userIDKey)
	})
}

func (s *boltIdentityStore) Close() error {
	return s.db.Close()
}

// MemIdentityStore keeps the user id in memory only.
type MemIdentityStore struct {
	uid chatstore.UserID
}

func (s *MemIdentityStore) UserID() (chatstore.UserID, error) { return s.uid, nil }

func (s *MemIdentityStore) SaveUserID(uid chatstore.UserID) error {
	if uid == "" {
		return fmt.Errorf("empty user id")
	}
	s.uid = uid
	return nil
}

func (s *MemIdentityStore) Reset() error {
	s.uid = ""
	return nil
}

func (s *MemIdentityStore) Close() error { return nil }
