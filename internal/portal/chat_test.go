package portal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_OnlyLastMessageIsSent(t *testing.T) {
	var calls atomic.Int32
	var sent atomic.Value
	d := newDebouncer(func(_ context.Context, msg string) (string, error) {
		calls.Add(1)
		sent.Store(msg)
		return "reply to " + msg, nil
	}, 200*time.Millisecond)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, msg := range []string{"bon", "bonjour"} {
		wg.Add(1)
		go func(i int, msg string) {
			defer wg.Done()
			_, errs[i] = d.Send(ctx, msg)
		}(i, msg)
		time.Sleep(20 * time.Millisecond)
	}

	reply, err := d.Send(ctx, "bonjour, facture ?")
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, "reply to bonjour, facture ?", reply)
	assert.ErrorIs(t, errs[0], ErrSuperseded)
	assert.ErrorIs(t, errs[1], ErrSuperseded)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "bonjour, facture ?", sent.Load())

	lines := d.Transcript()
	require.Len(t, lines, 4)
	assert.Equal(t, Line{Speaker: SpeakerBot, Text: reply}, lines[3])
}

func TestDebouncer_TranscriptIsCapped(t *testing.T) {
	d := newDebouncer(func(_ context.Context, msg string) (string, error) { return "ok", nil }, time.Millisecond)
	for i := 0; i < 30; i++ {
		_, err := d.Send(context.Background(), fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}
	lines := d.Transcript()
	require.Len(t, lines, TranscriptLimit)
	assert.Equal(t, "m5", lines[0].Text)
}

func TestDebouncer_CancelledCallerDoesNotSend(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", nil
	}, 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := d.Send(ctx, "aide")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, calls.Load())

	_, err = d.Send(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrValidation)
}
