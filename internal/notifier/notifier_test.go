package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() *AlertEvent {
	return &AlertEvent{
		AlertUID:     "uid-1",
		TxHash:       "0xaaa",
		AlertType:    "anomaly",
		Severity:     "critical",
		Message:      "anomaly score above threshold",
		AnomalyScore: 0.91,
		CreatedAt:    time.Now().UnixMilli(),
	}
}

func TestWebhookNotifierDeliversPayload(t *testing.T) {
	var received AlertEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, time.Second).Notify(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, "uid-1", received.AlertUID)
	assert.Equal(t, "critical", received.Severity)
}

func TestWebhookNotifierRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, time.Second).Notify(context.Background(), testEvent())
	assert.Error(t, err)
}

func TestWebhookNotifierUnreachable(t *testing.T) {
	err := NewWebhookNotifier("http://127.0.0.1:1", 100*time.Millisecond).Notify(context.Background(), testEvent())
	assert.Error(t, err)
}

// recordingNotifier captures dispatched events for assertions.
type recordingNotifier struct {
	name string
	err  error

	mu     sync.Mutex
	events []*AlertEvent
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, event *AlertEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestFanoutDispatchesToAllChannels(t *testing.T) {
	a := &recordingNotifier{name: "a"}
	b := &recordingNotifier{name: "b"}

	NewFanout(time.Second, a, b).Dispatch(testEvent())
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}

func TestFanoutSurvivesFailingChannel(t *testing.T) {
	failing := &recordingNotifier{name: "failing", err: errors.New("boom")}
	healthy := &recordingNotifier{name: "healthy"}

	// a failing channel must not block or abort the others
	NewFanout(time.Second, failing, healthy).Dispatch(testEvent())
	assert.Equal(t, 1, healthy.count())
}

func TestFanoutNoChannels(t *testing.T) {
	NewFanout(time.Second).Dispatch(testEvent())
}

func TestKafkaNotifierPublishes(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var event AlertEvent
		if err := json.Unmarshal(value, &event); err != nil {
			return err
		}
		assert.Equal(t, "0xaaa", event.TxHash)
		return nil
	})

	notifier := newKafkaNotifierWithProducer(producer, TopicBridgeAlerts)
	require.NoError(t, notifier.Notify(context.Background(), testEvent()))
	require.NoError(t, notifier.Close())
}

func TestKafkaNotifierUsesConfiguredTopic(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, "ops-alerts", msg.Topic)
		return nil
	})

	notifier := newKafkaNotifierWithProducer(producer, "ops-alerts")
	require.NoError(t, notifier.Notify(context.Background(), testEvent()))
	require.NoError(t, notifier.Close())
}

func TestKafkaNotifierPropagatesBrokerError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	notifier := newKafkaNotifierWithProducer(producer, TopicBridgeAlerts)
	assert.Error(t, notifier.Notify(context.Background(), testEvent()))
	require.NoError(t, notifier.Close())
}
