package engine

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/mqy/topicsync/chatstore"
)

// markUnread raises the unread flags after a message arrived. It never
// clears them; only acknowledge does.
func markUnread(t *chatstore.Topic, c *chatstore.Chat, viewer chatstore.UserID) {
	if c.HasUnreadMessages || !chatstore.ComputeUnread(c, viewer, c.LastViewedAt) {
		return
	}
	c.HasUnreadMessages = true
	t.HasUnreadChats = true
}

// acknowledge records that the viewer looked at the chat now.
func acknowledge(t *chatstore.Topic, c *chatstore.Chat, now time.Time) {
	c.HasUnreadMessages = false
	c.LastViewedAt = now
	t.RefreshUnread()
}

// persistLastViewed tells the backend about the acknowledgement. Failures
// are only logged.
func (s *Session) persistLastViewed(ctx context.Context, chat chatstore.ChatID, uid chatstore.UserID) {
	if err := s.gw.UpdateLastViewedAt(ctx, chat, uid); err != nil {
		glog.Errorf("persistLastViewed(): chat %s error: %v", chat, err)
		gatewayFailures.WithLabelValues("UpdateLastViewedAt").Inc()
	}
}
