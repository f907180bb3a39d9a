package client

import (
	"context"
	"sync"
	"time"

	"github.com/meinhoongagan/healthcoach-api/models"
)

const DefaultPollInterval = 3 * time.Second

// MessageSource is what the poller reads from. *Client implements it.
type MessageSource interface {
	Messages(ctx context.Context, roomID, afterID uint) ([]models.ChatMessage, error)
}

type PollerOptions struct {
	Interval time.Duration
	// AfterID is the last message the caller already has.
	AfterID uint
	// OnError is called for every failed poll.
	OnError func(error)
	// StopOnError ends polling after the first failure.
	StopOnError bool
}

// MessagePoller fetches new room messages in the background and delivers
// them in order, one batch per successful non-empty poll.
type MessagePoller struct {
	src    MessageSource
	roomID uint
	opts   PollerOptions

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	afterID uint
}

func NewMessagePoller(src MessageSource, roomID uint, opts PollerOptions) *MessagePoller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	return &MessagePoller{src: src, roomID: roomID, opts: opts, afterID: opts.AfterID}
}

// Start launches the polling goroutine. The returned channel is closed when
// polling stops. Calling Start twice returns nil the second time.
func (p *MessagePoller) Start(ctx context.Context) <-chan []models.ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return nil
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	out := make(chan []models.ChatMessage)
	go p.loop(ctx, out)
	return out
}

// Stop cancels polling and waits for the goroutine to exit.
func (p *MessagePoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// LastID is the highest message id delivered so far.
func (p *MessagePoller) LastID() uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.afterID
}

func (p *MessagePoller) loop(ctx context.Context, out chan<- []models.ChatMessage) {
	defer close(p.done)
	defer close(out)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		if !p.poll(ctx, out) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll reports whether the loop should keep going.
func (p *MessagePoller) poll(ctx context.Context, out chan<- []models.ChatMessage) bool {
	msgs, err := p.src.Messages(ctx, p.roomID, p.LastID())
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		if p.opts.OnError != nil {
			p.opts.OnError(err)
		}
		return !p.opts.StopOnError
	}

	// The cursor is the highest id delivered so far. Anything at or below it
	// was already sent, whatever order the server listed it in.
	p.mu.Lock()
	fresh := msgs[:0:0]
	for _, m := range msgs {
		if m.ID > p.afterID {
			fresh = append(fresh, m)
		}
	}
	for _, m := range fresh {
		if m.ID > p.afterID {
			p.afterID = m.ID
		}
	}
	p.mu.Unlock()
	if len(fresh) == 0 {
		return true
	}

	select {
	case out <- fresh:
		return true
	case <-ctx.Done():
		return false
	}
}
