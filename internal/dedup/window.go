// Package dedup suppresses repeat deliveries of the same signature for a
// watched account. Subscriptions replay notifications after reconnects, so
// every observed signature passes through a bounded recency window first.
package dedup

import (
	"container/list"
	"sync"
	"time"
)

// Defaults for the per-account window.
const (
	DefaultCapacity = 1024
	DefaultTTL      = 10 * time.Minute
)

type entry struct {
	signature string
	expiresAt time.Time
}

// accountWindow is an LRU set of recently seen signatures for one account.
type accountWindow struct {
	items map[string]*list.Element
	order *list.List // front = most recent
}

// Window tracks recently seen signatures per account. Safe for concurrent
// use. Eviction is capacity-driven LRU with a TTL backstop.
type Window struct {
	mu       sync.Mutex
	accounts map[string]*accountWindow
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewWindow creates a dedup window. Zero capacity or ttl select the defaults.
func NewWindow(capacity int, ttl time.Duration) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Window{
		accounts: make(map[string]*accountWindow),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Admit records the signature for the account and reports whether it was
// seen for the first time within the window.
func (w *Window) Admit(account, signature string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()

	aw, ok := w.accounts[account]
	if !ok {
		aw = &accountWindow{
			items: make(map[string]*list.Element),
			order: list.New(),
		}
		w.accounts[account] = aw
	}

	if el, seen := aw.items[signature]; seen {
		e := el.Value.(*entry)
		if now.Before(e.expiresAt) {
			// Refresh recency, still a duplicate
			aw.order.MoveToFront(el)
			e.expiresAt = now.Add(w.ttl)
			return false
		}
		// Expired entry counts as unseen
		aw.order.Remove(el)
		delete(aw.items, signature)
	}

	el := aw.order.PushFront(&entry{
		signature: signature,
		expiresAt: now.Add(w.ttl),
	})
	aw.items[signature] = el

	for aw.order.Len() > w.capacity {
		oldest := aw.order.Back()
		if oldest == nil {
			break
		}
		aw.order.Remove(oldest)
		delete(aw.items, oldest.Value.(*entry).signature)
	}

	return true
}

// Forget drops all state for an account. Used when an account is unwatched.
func (w *Window) Forget(account string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.accounts, account)
}

// Len reports the number of tracked signatures for an account.
func (w *Window) Len(account string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if aw, ok := w.accounts[account]; ok {
		return aw.order.Len()
	}
	return 0
}
