package feedback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for NewNarrator.
const (
	DefaultCooldown = 2 * time.Second
	DefaultCapacity = 16
)

// Narrator queues spoken messages and plays them one at a time with a
// minimum interval between starts. Producers never block.
type Narrator struct {
	queue   chan string
	limiter *rate.Limiter
	speaker Speaker
	log     *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewNarrator creates a narrator. Zero cooldown or capacity select the defaults.
func NewNarrator(speaker Speaker, cooldown time.Duration, capacity int, log *slog.Logger) *Narrator {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = slog.Default()
	}
	return &Narrator{
		queue:   make(chan string, capacity),
		limiter: rate.NewLimiter(rate.Every(cooldown), 1),
		speaker: speaker,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Enqueue adds msg to the queue. It returns false, dropping msg, when the
// queue is full.
func (n *Narrator) Enqueue(msg string) bool {
	select {
	case n.queue <- msg:
		return true
	default:
		n.log.Warn("narration queue full, dropping message", "message", msg)
		return false
	}
}

// Pending returns the number of queued messages.
func (n *Narrator) Pending() int { return len(n.queue) }

// Run speaks queued messages until ctx is cancelled or Close is called.
// It is the queue's only consumer.
func (n *Narrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case msg := <-n.queue:
			if err := n.limiter.Wait(ctx); err != nil {
				return
			}
			if err := n.speaker.Say(ctx, msg); err != nil {
				n.log.Warn("narration failed", "message", msg, "error", err)
			}
		}
	}
}

// Close stops Run. Messages still queued are discarded.
func (n *Narrator) Close() {
	n.closeOnce.Do(func() { close(n.done) })
}
