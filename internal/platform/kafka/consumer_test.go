package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeReader serves queued messages, then ends the run with done.
type fakeReader struct {
	mu        sync.Mutex
	fetchErrs []error
	msgs      []kafkago.Message
	commits   []int64
	done      func() error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		return kafkago.Message{}, err
	}
	if len(r.msgs) == 0 {
		return kafkago.Message{}, r.done()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.commits = append(r.commits, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func newTestConsumer(reader *fakeReader) *Consumer {
	return &Consumer{
		reader: reader,
		logger: zap.NewNop(),
		newBackOff: func() backoff.BackOff {
			return backoff.NewConstantBackOff(time.Millisecond)
		},
	}
}

func messages(offsets ...int64) []kafkago.Message {
	out := make([]kafkago.Message, len(offsets))
	for i, o := range offsets {
		out[i] = kafkago.Message{Topic: "payment.gateway.events", Offset: o}
	}
	return out
}

func TestConsume_RetriesFailedMessageBeforeMovingOn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{msgs: messages(0, 1)}
	reader.done = func() error { cancel(); return context.Canceled }

	var handled []int64
	failures := 2
	err := newTestConsumer(reader).Consume(ctx, func(_ context.Context, msg kafkago.Message) error {
		handled = append(handled, msg.Offset)
		if msg.Offset == 0 && failures > 0 {
			failures--
			return errors.New("database unavailable")
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{0, 0, 0, 1}, handled)
	assert.Equal(t, []int64{0, 1}, reader.commits)
}

func TestConsume_CancelDuringRetryCommitsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{msgs: messages(0, 1)}
	reader.done = func() error { return context.Canceled }

	attempts := 0
	err := newTestConsumer(reader).Consume(ctx, func(_ context.Context, msg kafkago.Message) error {
		require.Equal(t, int64(0), msg.Offset)
		attempts++
		if attempts == 3 {
			cancel()
		}
		return errors.New("database unavailable")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, attempts)
	assert.Empty(t, reader.commits)
}

func TestConsume_BacksOffOnFetchErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		fetchErrs: []error{errors.New("broker not available"), errors.New("broker not available")},
		msgs:      messages(7),
	}
	reader.done = func() error { cancel(); return context.Canceled }

	var handled []int64
	err := newTestConsumer(reader).Consume(ctx, func(_ context.Context, msg kafkago.Message) error {
		handled = append(handled, msg.Offset)
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{7}, handled)
	assert.Equal(t, []int64{7}, reader.commits)
}

func TestConsume_StopsWhenReaderClosed(t *testing.T) {
	reader := &fakeReader{}
	reader.done = func() error { return io.EOF }

	err := newTestConsumer(reader).Consume(context.Background(), func(context.Context, kafkago.Message) error {
		return nil
	})
	assert.ErrorIs(t, err, io.EOF)
}
