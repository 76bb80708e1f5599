package portal

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"devisportal/internal/domain/chat"
)

const (
	DebounceWindow  = 500 * time.Millisecond
	TranscriptLimit = 50
	SpeakerUser     = "user"
	SpeakerBot      = "bot"
)

func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", &FieldError{Field: "message", Reason: "required"}
	}
	cl, err := jsonCall(http.MethodPost, "/chat/", chat.ChatRequest{Message: message}, true)
	if err != nil {
		return "", err
	}
	var out chat.ChatResponse
	if err := c.doJSON(ctx, cl, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

type Line struct {
	Speaker string
	Text    string
}

type chatResult struct {
	reply string
	err   error
}

// Debouncer coalesces chat sends. Only the last message typed within the
// window goes out; earlier callers get ErrSuperseded.
type Debouncer struct {
	send   func(ctx context.Context, message string) (string, error)
	window time.Duration

	mu         sync.Mutex
	gen        uint64
	waiter     chan chatResult
	timer      *time.Timer
	transcript []Line
}

func NewDebouncer(c *Client) *Debouncer {
	return newDebouncer(c.Chat, DebounceWindow)
}

func newDebouncer(send func(context.Context, string) (string, error), window time.Duration) *Debouncer {
	return &Debouncer{send: send, window: window}
}

// Send queues message and blocks until it is answered, superseded, or ctx ends.
func (d *Debouncer) Send(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", &FieldError{Field: "message", Reason: "required"}
	}
	ch := make(chan chatResult, 1)

	d.mu.Lock()
	if d.waiter != nil {
		d.waiter <- chatResult{err: ErrSuperseded}
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.waiter = ch
	d.appendLocked(Line{Speaker: SpeakerUser, Text: message})
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen, message) })
	d.mu.Unlock()

	select {
	case r := <-ch:
		return r.reply, r.err
	case <-ctx.Done():
		d.mu.Lock()
		if d.waiter == ch {
			d.waiter = nil
			d.timer.Stop()
			d.gen++
		}
		d.mu.Unlock()
		return "", ctx.Err()
	}
}

func (d *Debouncer) fire(gen uint64, message string) {
	d.mu.Lock()
	if gen != d.gen || d.waiter == nil {
		d.mu.Unlock()
		return
	}
	ch := d.waiter
	d.waiter = nil
	d.mu.Unlock()

	reply, err := d.send(context.Background(), message)
	if err == nil {
		d.mu.Lock()
		d.appendLocked(Line{Speaker: SpeakerBot, Text: reply})
		d.mu.Unlock()
	}
	ch <- chatResult{reply: reply, err: err}
}

func (d *Debouncer) appendLocked(l Line) {
	d.transcript = append(d.transcript, l)
	if n := len(d.transcript) - TranscriptLimit; n > 0 {
		d.transcript = append([]Line(nil), d.transcript[n:]...)
	}
}

// Transcript returns at most TranscriptLimit lines, oldest first.
func (d *Debouncer) Transcript() []Line {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Line(nil), d.transcript...)
}
