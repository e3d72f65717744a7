//nolint:paralleltest,testpackage // Tests need access to unexported functions
package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/slackmgr/todo/todo"
)

const (
	fifoQueueURL     = "https://sqs.eu-west-1.amazonaws.com/123456789012/todo-events.fifo"
	standardQueueURL = "https://sqs.eu-west-1.amazonaws.com/123456789012/todo-events"
)

func newTestPublisher(t *testing.T, queueURL string, client *mockSQSClient) *Publisher {
	t.Helper()

	p, err := New(&aws.Config{}, queueURL, WithSQSClient(client)).Init(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	return p
}

func testEvent() todo.Event {
	return todo.Event{
		Type:      todo.EventItemCreated,
		ItemID:    "a1",
		Item:      &todo.Item{ID: "a1", Title: "buy milk"},
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestNew(t *testing.T) {
	awsCfg := &aws.Config{}
	p := New(awsCfg, fifoQueueURL)

	if p == nil {
		t.Fatal("expected non-nil publisher")
	}

	if p.awsCfg != awsCfg {
		t.Error("expected awsCfg to be set")
	}

	if !p.fifo {
		t.Error("expected FIFO queue to be detected")
	}

	if p.initialized {
		t.Error("expected initialized to be false before Init()")
	}

	if New(awsCfg, standardQueueURL).fifo {
		t.Error("expected standard queue not to be detected as FIFO")
	}

	if p.QueueURL() != fifoQueueURL {
		t.Errorf("expected queue URL %q, got %q", fifoQueueURL, p.QueueURL())
	}
}

func TestInit(t *testing.T) {
	var capturedInput *sqs.GetQueueAttributesInput

	mockClient := &mockSQSClient{
		getQueueAttributesFunc: func(_ context.Context, input *sqs.GetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
			capturedInput = input
			return &sqs.GetQueueAttributesOutput{}, nil
		},
	}

	p := New(&aws.Config{}, fifoQueueURL, WithSQSClient(mockClient))

	result, err := p.Init(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result != p {
		t.Error("expected Init to return the same publisher")
	}

	if capturedInput == nil || aws.ToString(capturedInput.QueueUrl) != fifoQueueURL {
		t.Error("expected queue attributes to be read for the configured queue")
	}

	// Second call is a no-op.
	capturedInput = nil

	if _, err := p.Init(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if capturedInput != nil {
		t.Error("expected second Init not to call SQS")
	}
}

func TestInit_RealClient(t *testing.T) {
	p := New(&aws.Config{Region: "eu-west-1"}, fifoQueueURL)

	// Without credentials or network the queue check fails, but the client is built first.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Init(ctx); err == nil {
		t.Fatal("expected error with a cancelled context")
	}

	if p.client == nil {
		t.Error("expected client to be created")
	}
}

func TestInit_Errors(t *testing.T) {
	tests := []struct {
		name string
		p    *Publisher
	}{
		{"empty queue URL", New(&aws.Config{}, "", WithSQSClient(&mockSQSClient{}))},
		{"invalid options", New(&aws.Config{}, fifoQueueURL, WithSQSClient(&mockSQSClient{}), WithSqsAPIMaxRetryAttempts(20))},
		{"nil AWS config", New(nil, fifoQueueURL)},
		{"queue lookup fails", New(&aws.Config{}, fifoQueueURL, WithSQSClient(&mockSQSClient{
			getQueueAttributesFunc: func(_ context.Context, _ *sqs.GetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
				return nil, errors.New("queue does not exist")
			},
		}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.p.Init(context.Background()); err == nil {
				t.Error("expected error, got nil")
			}

			if tt.p.initialized {
				t.Error("expected publisher to stay uninitialized")
			}
		})
	}
}

func TestNotify_FifoQueue(t *testing.T) {
	var capturedInput *sqs.SendMessageInput

	mockClient := &mockSQSClient{
		sendMessageFunc: func(_ context.Context, input *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
			capturedInput = input
			return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
		},
	}

	p := newTestPublisher(t, fifoQueueURL, mockClient)
	event := testEvent()

	if err := p.Notify(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if capturedInput == nil {
		t.Fatal("expected SendMessage to be called")
	}

	if *capturedInput.QueueUrl != fifoQueueURL {
		t.Errorf("expected queue URL %q, got %q", fifoQueueURL, *capturedInput.QueueUrl)
	}

	if aws.ToString(capturedInput.MessageGroupId) != "a1" {
		t.Errorf("expected group ID 'a1', got %q", aws.ToString(capturedInput.MessageGroupId))
	}

	expectedDedupID := hash("item.created", "a1", "2024-01-15T10:30:00Z")
	if aws.ToString(capturedInput.MessageDeduplicationId) != expectedDedupID {
		t.Errorf("expected dedup ID %q, got %q", expectedDedupID, aws.ToString(capturedInput.MessageDeduplicationId))
	}

	attr, ok := capturedInput.MessageAttributes[EventTypeAttribute]
	if !ok {
		t.Fatal("expected event_type attribute")
	}

	if aws.ToString(attr.StringValue) != "item.created" || aws.ToString(attr.DataType) != "String" {
		t.Errorf("unexpected event_type attribute: %+v", attr)
	}

	var decoded todo.Event
	if err := json.Unmarshal([]byte(aws.ToString(capturedInput.MessageBody)), &decoded); err != nil {
		t.Fatalf("expected JSON body, got %v", err)
	}

	if decoded.ItemID != "a1" || decoded.Type != todo.EventItemCreated || decoded.Item == nil || decoded.Item.Title != "buy milk" {
		t.Errorf("unexpected body: %+v", decoded)
	}
}

func TestNotify_StandardQueue(t *testing.T) {
	var capturedInput *sqs.SendMessageInput

	mockClient := &mockSQSClient{
		sendMessageFunc: func(_ context.Context, input *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
			capturedInput = input
			return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
		},
	}

	p := newTestPublisher(t, standardQueueURL, mockClient)

	if err := p.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if capturedInput == nil {
		t.Fatal("expected SendMessage to be called")
	}

	// Standard queue should not have group ID or dedup ID
	if capturedInput.MessageGroupId != nil {
		t.Errorf("expected no group ID for standard queue, got %q", *capturedInput.MessageGroupId)
	}

	if capturedInput.MessageDeduplicationId != nil {
		t.Errorf("expected no dedup ID for standard queue, got %q", *capturedInput.MessageDeduplicationId)
	}
}

func TestNotify_DeleteEventHasNoItem(t *testing.T) {
	var body string

	mockClient := &mockSQSClient{
		sendMessageFunc: func(_ context.Context, input *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
			body = aws.ToString(input.MessageBody)
			return &sqs.SendMessageOutput{}, nil
		},
	}

	p := newTestPublisher(t, standardQueueURL, mockClient)

	event := todo.Event{Type: todo.EventItemDeleted, ItemID: "a1", Timestamp: time.Now()}
	if err := p.Notify(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("expected JSON body, got %v", err)
	}

	if _, ok := decoded["item"]; ok {
		t.Error("expected item to be omitted for delete events")
	}
}

func TestNotify_NotInitialized(t *testing.T) {
	p := New(&aws.Config{}, fifoQueueURL)

	if err := p.Notify(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error when not initialized")
	}
}

func TestNotify_EmptyItemID(t *testing.T) {
	p := newTestPublisher(t, fifoQueueURL, &mockSQSClient{})

	if err := p.Notify(context.Background(), todo.Event{Type: todo.EventItemDeleted}); err == nil {
		t.Fatal("expected error for empty item ID")
	}
}

func TestNotify_SendError(t *testing.T) {
	mockClient := &mockSQSClient{
		sendMessageFunc: func(_ context.Context, _ *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
			return nil, errors.New("SQS send failed")
		},
	}

	p := newTestPublisher(t, fifoQueueURL, mockClient)

	if err := p.Notify(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error when SendMessage fails")
	}
}

func TestHash_Deterministic(t *testing.T) {
	hash1 := hash("a", "b", "c")
	hash2 := hash("a", "b", "c")

	if hash1 != hash2 {
		t.Errorf("expected same input to produce same hash, got %q and %q", hash1, hash2)
	}
}

func TestHash_DifferentInputs(t *testing.T) {
	hash1 := hash("a", "b", "c")
	hash2 := hash("a", "b", "d")

	if hash1 == hash2 {
		t.Error("expected different inputs to produce different hashes")
	}
}

func TestHash_DelimiterPreventsCollisions(t *testing.T) {
	if hash("ab", "c") == hash("a", "bc") {
		t.Error("expected delimiter to separate inputs")
	}
}
