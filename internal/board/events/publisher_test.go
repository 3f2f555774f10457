package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

func TestPublisherWritesBoardChangedEvents(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w, logger.NewNop(), 4)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Start(ctx)

	p.Handle(board.Snapshot{
		Status:  board.StatusReady,
		Backend: board.BackendRemote,
		UserID:  "u1",
		Change:  board.Change{Op: board.OpAddItem, CategoryKey: "eat", ItemKey: "pizza"},
	})
	p.Handle(board.Snapshot{
		Status:  board.StatusReady,
		Backend: board.BackendLocal,
		Change:  board.Change{Op: board.OpLoad},
	})

	require.Eventually(t, func() bool { return len(w.written()) == 2 }, time.Second, 10*time.Millisecond)
	msgs := w.written()

	assert.Equal(t, "u1", string(msgs[0].Key))
	var first BoardChangedEvent
	require.NoError(t, json.Unmarshal(msgs[0].Value, &first))
	assert.NotEmpty(t, first.EventID)
	first.EventID = ""
	assert.Equal(t, BoardChangedEvent{
		EventType:   EventTypeBoardChanged,
		UserID:      "u1",
		Backend:     "remote",
		Op:          "add_item",
		CategoryKey: "eat",
		ItemKey:     "pizza",
		Status:      "ready",
		Timestamp:   fixed,
	}, first)

	assert.Equal(t, GuestKey, string(msgs[1].Key))
	var raw map[string]any
	require.NoError(t, json.Unmarshal(msgs[1].Value, &raw))
	assert.Equal(t, "load", raw["op"])
	assert.NotContains(t, raw, "category_key")
}

func TestPublisherDropsWhenQueueIsFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewPublisher(&fakeWriter{}, logger.Wrap(zap.New(core)), 1)

	p.Handle(board.Snapshot{Change: board.Change{Op: board.OpLoad}})
	p.Handle(board.Snapshot{Change: board.Change{Op: board.OpReset}})

	assert.Len(t, p.queue, 1)
	assert.Equal(t, 1, logs.FilterMessage("Board event queue full, dropping event").Len())
}

func TestPublisherLogsWriteFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w := &fakeWriter{err: errors.New("broker unreachable")}
	p := NewPublisher(w, logger.Wrap(zap.New(core)), 1)

	p.Handle(board.Snapshot{Change: board.Change{Op: board.OpLoad}})
	p.write(context.Background(), <-p.queue)

	assert.Equal(t, 1, logs.FilterMessage("Failed to publish board event").Len())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
