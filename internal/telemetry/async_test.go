package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*Event
	emitErr error
	delay   time.Duration
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *Event) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Event(nil), m.events...)
}

func TestEmitAsync_NilEmitter(t *testing.T) {
	// Should not panic
	EmitAsync(nil, nil, &Event{Type: "test"})
}

func TestEmitAsync_NilEvent(t *testing.T) {
	emitter := &mockEventEmitter{}

	EmitAsync(emitter, nil, nil)

	// Give goroutine time to run (if it starts)
	time.Sleep(10 * time.Millisecond)

	if events := emitter.getEvents(); len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := &mockEventEmitter{}
	event := &Event{Type: "submission_created", Source: "intake", RecordKind: "quote", RecordID: 7}

	EmitAsync(emitter, nil, event)

	// Wait for goroutine to complete
	time.Sleep(100 * time.Millisecond)

	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].RecordKind != "quote" || events[0].RecordID != 7 {
		t.Errorf("event = %+v", events[0])
	}
}

func TestEmitAsync_ErrorIsLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	emitter := &mockEventEmitter{emitErr: errors.New("collector down")}

	EmitAsync(emitter, logger, &Event{Type: "submission_created"})

	time.Sleep(100 * time.Millisecond)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry for the failed emit")
	}
	if entry.Level != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", entry.Level)
	}
	if entry.Data["event_type"] != "submission_created" {
		t.Errorf("event_type field = %v", entry.Data["event_type"])
	}
}

func TestEmitAsync_ConcurrentAccess(t *testing.T) {
	emitter := &mockEventEmitter{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			EmitAsync(emitter, nil, &Event{Type: "test", RecordID: int64(id)})
		}(i)
	}

	wg.Wait()
	// Wait for all async emits to complete
	time.Sleep(200 * time.Millisecond)

	if events := emitter.getEvents(); len(events) != 10 {
		t.Errorf("expected 10 events, got %d", len(events))
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Submission(context.Background(), "contact", "ok")
	m.NotifyFailure(context.Background())
}

func TestMetrics_Records(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := NewMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	ctx := context.Background()
	m.Submission(ctx, "contact", "ok")
	m.Submission(ctx, "contact", "ok")
	m.NotifyFailure(ctx)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[md.Name] += dp.Value
			}
		}
	}
	if totals["codebrick.submissions"] != 2 {
		t.Errorf("submissions = %d, want 2", totals["codebrick.submissions"])
	}
	if totals["codebrick.notify.failures"] != 1 {
		t.Errorf("notify failures = %d, want 1", totals["codebrick.notify.failures"])
	}
}
