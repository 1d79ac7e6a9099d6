package app

import "sync"

// ChatLimiter не даёт двум апдейтам одного чата обрабатываться одновременно.
type ChatLimiter struct {
	mu   sync.Mutex
	byID map[int64]*sync.Mutex
}

func NewChatLimiter() *ChatLimiter {
	return &ChatLimiter{byID: make(map[int64]*sync.Mutex)}
}

func (l *ChatLimiter) lock(chatID int64) func() {
	l.mu.Lock()
	m, ok := l.byID[chatID]
	if !ok {
		m = &sync.Mutex{}
		l.byID[chatID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Do выполняет fn под замком чата.
func (l *ChatLimiter) Do(chatID int64, fn func()) {
	unlock := l.lock(chatID)
	defer unlock()
	fn()
}
