package usecase

import (
	"sync"

	"socialhub/domain/model"
)

// SessionListener receives the previous and current session; either may be nil.
type SessionListener func(previous, current *model.Session)

// SessionEvents is the session-change subscription point. Handlers call Notify
// on sign-out or an explicit refresh.
type SessionEvents struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]SessionListener
}

func NewSessionEvents() *SessionEvents {
	return &SessionEvents{listeners: make(map[int]SessionListener)}
}

func (e *SessionEvents) Subscribe(l SessionListener) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = l
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *SessionEvents) Notify(previous, current *model.Session) {
	e.mu.RLock()
	listeners := make([]SessionListener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	e.mu.RUnlock()

	for _, l := range listeners {
		l(previous, current)
	}
}
