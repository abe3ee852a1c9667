package listctl

import (
	"sync"
	"time"
)

// Level is the severity of a user-visible notice.
type Level string

// Notice levels, named after the toast types the layout understands.
const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one transient banner message.
type Notice struct {
	Level   Level     `json:"type"`
	Message string    `json:"message"`
	At      time.Time `json:"-"`
}

// Notifier is the user-visible error channel.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f.
func (f NotifierFunc) Notify(n Notice) { f(n) }

type discard struct{}

func (discard) Notify(Notice) {}

const defaultQueueSize = 20

// NoticeQueue buffers notices until the next page response drains them.
// When full, the oldest notice is dropped.
type NoticeQueue struct {
	mu    sync.Mutex
	items []Notice
	max   int
}

// NewNoticeQueue returns a queue keeping at most max notices.
func NewNoticeQueue(max int) *NoticeQueue {
	if max <= 0 {
		max = defaultQueueSize
	}
	return &NoticeQueue{max: max}
}

// Notify appends n.
func (q *NoticeQueue) Notify(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
	if over := len(q.items) - q.max; over > 0 {
		q.items = append(q.items[:0], q.items[over:]...)
	}
}

// Drain returns and removes every queued notice, oldest first.
func (q *NoticeQueue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len reports the number of queued notices.
func (q *NoticeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
