package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"socialhub/domain/model"

	"github.com/gin-gonic/gin"
)

const subscriberBuffer = 8

// AccountHub fans account events out to each user's open SSE streams.
type AccountHub struct {
	mu    sync.RWMutex
	users map[string]map[chan model.AccountEvent]struct{}
}

func NewAccountHub() *AccountHub {
	return &AccountHub{users: make(map[string]map[chan model.AccountEvent]struct{})}
}

// Serve registers an SSE stream for the authenticated user (user_id set by middleware).
func (h *AccountHub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan model.AccountEvent, subscriberBuffer)
	h.addSubscriber(userID, ch)
	defer h.removeSubscriber(userID, ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt := <-ch:
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			_, _ = c.Writer.Write([]byte("event: account\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// Publish never blocks; slow subscribers drop events.
func (h *AccountHub) Publish(_ context.Context, event model.AccountEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.users[event.UserID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (h *AccountHub) subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *AccountHub) addSubscriber(userID string, ch chan model.AccountEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan model.AccountEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
}

func (h *AccountHub) removeSubscriber(userID string, ch chan model.AccountEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}
