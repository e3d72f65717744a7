package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/pubsub/v2"
)

// mockPubSubClient implements pubsubClient for testing.
type mockPubSubClient struct {
	publisherFunc  func(topic string) pubsubPublisher
	defaultPub     pubsubPublisher
	publisherCalls []string
	mu             sync.Mutex
}

func newMockPubSubClient() *mockPubSubClient {
	return &mockPubSubClient{}
}

//nolint:ireturn // Returns interface required by pubsubClient interface
func (m *mockPubSubClient) Publisher(topic string) pubsubPublisher {
	m.mu.Lock()
	m.publisherCalls = append(m.publisherCalls, topic)
	m.mu.Unlock()

	if m.publisherFunc != nil {
		return m.publisherFunc(topic)
	}
	return m.defaultPub
}

// mockPublisher implements pubsubPublisher for testing.
type mockPublisher struct {
	publishFunc           func(ctx context.Context, msg *pubsub.Message) pubsubPublishResult
	stopCalled            atomic.Bool
	enableMessageOrdering bool
	delayThreshold        time.Duration
	countThreshold        int
	byteThreshold         int
	publishedMessages     []*pubsub.Message
	resumedKeys           []string
	pausedKeys            map[string]bool
	mu                    sync.Mutex
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{pausedKeys: make(map[string]bool)}
}

// Publish behaves like the real publisher with ordering: a failed publish
// pauses its ordering key, and later messages with that key fail until
// ResumePublish is called.
//
//nolint:ireturn // Returns interface required by pubsubPublisher interface
func (m *mockPublisher) Publish(ctx context.Context, msg *pubsub.Message) pubsubPublishResult {
	m.mu.Lock()
	m.publishedMessages = append(m.publishedMessages, msg)
	paused := msg.OrderingKey != "" && m.pausedKeys[msg.OrderingKey]
	m.mu.Unlock()

	if paused {
		return &mockPublishResult{err: errors.New("ordering key " + msg.OrderingKey + " paused due to previous error")}
	}

	result := pubsubPublishResult(&mockPublishResult{})
	if m.publishFunc != nil {
		result = m.publishFunc(ctx, msg)
	}

	if r, ok := result.(*mockPublishResult); ok && r.err != nil && msg.OrderingKey != "" {
		m.mu.Lock()
		m.pausedKeys[msg.OrderingKey] = true
		m.mu.Unlock()
	}

	return result
}

func (m *mockPublisher) ResumePublish(orderingKey string) {
	m.mu.Lock()
	delete(m.pausedKeys, orderingKey)
	m.resumedKeys = append(m.resumedKeys, orderingKey)
	m.mu.Unlock()
}

func (m *mockPublisher) Stop() {
	m.stopCalled.Store(true)
}

func (m *mockPublisher) SetEnableMessageOrdering(enabled bool) {
	m.mu.Lock()
	m.enableMessageOrdering = enabled
	m.mu.Unlock()
}

func (m *mockPublisher) SetDelayThreshold(d time.Duration) {
	m.mu.Lock()
	m.delayThreshold = d
	m.mu.Unlock()
}

func (m *mockPublisher) SetCountThreshold(n int) {
	m.mu.Lock()
	m.countThreshold = n
	m.mu.Unlock()
}

func (m *mockPublisher) SetByteThreshold(n int) {
	m.mu.Lock()
	m.byteThreshold = n
	m.mu.Unlock()
}

// mockPublishResult implements pubsubPublishResult for testing.
type mockPublishResult struct {
	serverID string
	err      error
}

func (m *mockPublishResult) Get(_ context.Context) (string, error) {
	return m.serverID, m.err
}
