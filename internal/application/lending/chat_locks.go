package lending

import "sync"

// chatLocks serializes commands per chat. The database transaction already
// keeps each command atomic; this lock additionally orders concurrent
// commands hitting the same chat's order so the second one validates against
// the first one's committed state.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[int64]*chatLock)}
}

// acquire locks the chat and returns the release function. Entries are
// reference-counted so the map does not grow with every chat ever seen.
func (l *chatLocks) acquire(chatID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[chatID]
	if !ok {
		entry = &chatLock{}
		l.locks[chatID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, chatID)
		}
		l.mu.Unlock()
	}
}
