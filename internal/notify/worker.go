package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// messageReader is the subset of *kafka.Reader used by Worker.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewKafkaReader returns a consumer-group reader for the quote topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

// Worker consumes QuoteEvents and hands each to a Notifier (normally email.Sender).
// Messages are committed whether or not delivery succeeds; failures are only logged.
type Worker struct {
	reader   messageReader
	notifier Notifier
	timeout  time.Duration
	log      logrus.FieldLogger
}

// NewWorker returns a Worker. Each delivery gets timeout (DefaultTimeout when <= 0); log may be nil.
func NewWorker(r messageReader, n Notifier, timeout time.Duration, log logrus.FieldLogger) *Worker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Worker{reader: r, notifier: n, timeout: timeout, log: log}
}

// Run processes messages until ctx is cancelled. It returns nil on cancellation and the
// read error otherwise.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		w.handle(ctx, msg)
	}
}

func (w *Worker) handle(ctx context.Context, msg kafka.Message) {
	entry := w.log.WithFields(logrus.Fields{"partition": msg.Partition, "offset": msg.Offset})
	var ev QuoteEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		entry.WithError(err).Warn("worker: skipping malformed quote event")
		return
	}
	entry = entry.WithField("quote_id", ev.ID)
	notifyCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.notifier.Notify(notifyCtx, ev.Quote()); err != nil {
		entry.WithError(err).Error("worker: quote notification failed")
		return
	}
	entry.Info("worker: quote notification sent")
}

// Close closes the underlying reader.
func (w *Worker) Close() error {
	return w.reader.Close()
}
