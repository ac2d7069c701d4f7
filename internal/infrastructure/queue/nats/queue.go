// Package nats carries pipeline events between the api and worker binaries.
// Two subjects under one prefix: fresh ingests and reindex requests. Workers
// share a queue group so each event is handled once.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/careerforge/cvmatch/internal/core/ports"
	"github.com/careerforge/cvmatch/internal/infrastructure/resilience"
)

const workerGroup = "workers"

type Queue struct {
	conn     *nats.Conn
	prefix   string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ConnectTimeout     time.Duration
	ReconnectWait      time.Duration
	MaxReconnects      int
	ResilienceExecutor *resilience.Executor
	Logger             *slog.Logger
}

func New(url, subjectPrefix string, options Options) (*Queue, error) {
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
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("cvmatch"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		prefix:   subjectPrefix,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) ingestedSubject() string { return q.prefix + ".ingested" }
func (q *Queue) reindexSubject() string  { return q.prefix + ".reindex" }

func (q *Queue) PublishRecordIngested(ctx context.Context, recordID string) error {
	return q.publish(ctx, q.ingestedSubject(), recordID)
}

func (q *Queue) PublishReindexRequested(ctx context.Context, recordID string) error {
	return q.publish(ctx, q.reindexSubject(), recordID)
}

func (q *Queue) publish(ctx context.Context, subject, recordID string) error {
	call := func(context.Context) error {
		if err := q.conn.Publish(subject, []byte(recordID)); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats_publish", call, classifyError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}

// SubscribeRecordEvents consumes both subjects until the context is
// cancelled, then drains in-flight messages before returning.
func (q *Queue) SubscribeRecordEvents(ctx context.Context, handler ports.RecordEventHandler) error {
	subs := make([]*nats.Subscription, 0, 2)
	subscribe := func(subject string, reindex bool) error {
		sub, err := q.conn.QueueSubscribe(subject, workerGroup, func(msg *nats.Msg) {
			if errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			handlerCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			if err := handler(handlerCtx, string(msg.Data), reindex); err != nil {
				q.logger.Error("record_event_failed",
					"subject", subject, "record_id", string(msg.Data), "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("nats subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
		return nil
	}

	if err := subscribe(q.ingestedSubject(), false); err != nil {
		return err
	}
	if err := subscribe(q.reindexSubject(), true); err != nil {
		return err
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			return fmt.Errorf("nats drain subscription: %w", err)
		}
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
