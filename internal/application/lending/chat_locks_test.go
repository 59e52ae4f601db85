package lending

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatLocksSerializePerChat(t *testing.T) {
	locks := newChatLocks()

	var mu sync.Mutex
	inFlight := map[int64]int{}
	maxInFlight := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		chatID := int64(i % 5)
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.acquire(chatID)
			defer release()

			mu.Lock()
			inFlight[chatID]++
			if inFlight[chatID] > maxInFlight {
				maxInFlight = inFlight[chatID]
			}
			mu.Unlock()

			mu.Lock()
			inFlight[chatID]--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInFlight, "no two holders of the same chat lock at once")
}

func TestChatLocksReleaseCleansUp(t *testing.T) {
	locks := newChatLocks()

	release := locks.acquire(42)
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}
