package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/resilience"
)

const workerQueueGroup = "ocr-workers"

// Queue carries extraction requests and completion events as CloudEvents
// in structured JSON mode.
type Queue struct {
	conn          *nats.Conn
	subject       string
	eventsSubject string
	source        string
	executor      *resilience.Executor
	now           func() time.Time
}

type Options struct {
	// EventsSubject receives document-extracted notifications; empty disables them.
	EventsSubject        string
	Source               string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	source := options.Source
	if source == "" {
		source = defaultEventSource
	}

	conn, err := nats.Connect(
		url,
		nats.Name("pdf-ocr-pipeline"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:          conn,
		subject:       subject,
		eventsSubject: options.EventsSubject,
		source:        source,
		executor:      options.ResilienceExecutor,
		now:           time.Now,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishExtractionRequest(ctx context.Context, req domain.AsyncRequest) error {
	data, err := encodeEvent(q.source, EventTypeExtractionRequested, req.SourceKey, req, q.now())
	if err != nil {
		return err
	}
	return q.publish(ctx, opPublishRequest, q.subject, data)
}

// PublishDocumentExtracted is a no-op when no events subject is configured.
func (q *Queue) PublishDocumentExtracted(ctx context.Context, summary domain.DocumentSummary) error {
	if q.eventsSubject == "" {
		return nil
	}
	data, err := encodeEvent(q.source, EventTypeDocumentExtracted, summary.DestKey, summary, q.now())
	if err != nil {
		return err
	}
	return q.publish(ctx, opPublishEvent, q.eventsSubject, data)
}

func (q *Queue) publish(ctx context.Context, operation, subject string, data []byte) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, data); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, operation, call, classifyPublishError)
	} else {
		err = call(ctx)
	}
	return publishError(operation, err)
}

// SubscribeExtractionRequests blocks until ctx is done, then drains the subscription.
func (q *Queue) SubscribeExtractionRequests(ctx context.Context, handler func(context.Context, domain.AsyncRequest) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerQueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		req, err := decodeExtractionRequest(msg.Data)
		if err != nil {
			slog.Warn("extraction_request_rejected", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, req); err != nil {
			slog.Error("extraction_request_failed",
				"source_bucket", req.SourceBucket,
				"source_key", req.SourceKey,
				"error", err,
			)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
