package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is the toast analog of the panel: a single user-visible
// terminal outcome of a workflow invocation.
type Notification struct {
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func Success(title, message string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Message: message}
}

func Error(title, message string) Notification {
	return Notification{Level: LevelError, Title: title, Message: message}
}

// Notifier is the notification sink consumed by the workflow.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

var _ Notifier = (*Center)(nil)

// Center keeps a bounded feed of the most recent notifications, newest
// first, and logs each one.
type Center struct {
	logger   *slog.Logger
	capacity int

	mu   sync.Mutex
	feed []Notification
}

func NewCenter(logger *slog.Logger, capacity int) *Center {
	if capacity <= 0 {
		capacity = 50
	}
	return &Center{
		logger:   logger.With(slog.String("service", "notify")),
		capacity: capacity,
	}
}

func (c *Center) Notify(ctx context.Context, n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	level := slog.LevelInfo
	if n.Level == LevelError {
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "notification",
		slog.String("title", n.Title),
		slog.String("message", n.Message))

	c.mu.Lock()
	defer c.mu.Unlock()

	c.feed = append([]Notification{n}, c.feed...)
	if len(c.feed) > c.capacity {
		c.feed = c.feed[:c.capacity]
	}
}

// Recent returns a copy of the feed, newest first.
func (c *Center) Recent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.feed))
	copy(out, c.feed)
	return out
}
