package ingest

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSourceClosed is returned by Receive once a source has no more messages.
	ErrSourceClosed = errors.New("source closed")
	// ErrRetriesExhausted is the fatal error a Loop stops with when a message
	// keeps failing.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrHandlerPanic is the fatal error a Loop stops with when handling a
	// message panicked.
	ErrHandlerPanic = errors.New("handler panicked")
)

// Message is one record taken from a stream.
type Message struct {
	// ID identifies the message within its partition, e.g. a sequence number.
	ID        string
	Partition string
	Data      []byte
}

// Source is a stream of messages with explicit progress tracking.
type Source interface {
	// Receive blocks until a message is available. It returns ErrSourceClosed
	// when the stream has ended and ctx.Err() when ctx is done.
	Receive(ctx context.Context) (Message, error)
	// Commit records that m and everything before it in its partition has
	// been handled.
	Commit(ctx context.Context, m Message) error
}

// ChannelSource is an in-process Source fed through Publish, for embedding
// the loop behind an in-memory queue.
type ChannelSource struct {
	messages chan Message

	mu        sync.Mutex
	committed []string
	closeOnce sync.Once
}

func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{messages: make(chan Message, buffer)}
}

// Publish enqueues m, blocking while the buffer is full.
func (s *ChannelSource) Publish(ctx context.Context, m Message) error {
	select {
	case s.messages <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream. Messages already published are still delivered.
func (s *ChannelSource) Close() {
	s.closeOnce.Do(func() { close(s.messages) })
}

func (s *ChannelSource) Receive(ctx context.Context) (Message, error) {
	select {
	case m, ok := <-s.messages:
		if !ok {
			return Message{}, ErrSourceClosed
		}
		return m, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (s *ChannelSource) Commit(_ context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, m.ID)
	return nil
}

// Committed returns the ids of committed messages in commit order.
func (s *ChannelSource) Committed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.committed...)
}
