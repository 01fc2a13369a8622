// Package notify runs the reminder batch: callers whose recorded parking
// spot gets swept tomorrow receive a push the evening before.
package notify

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/curbside/internal/model"
	"github.com/sells-group/curbside/internal/resilience"
	"github.com/sells-group/curbside/internal/store"
	"github.com/sells-group/curbside/pkg/simplepush"
)

// DefaultConcurrency bounds parallel push sends in one batch.
const DefaultConcurrency = 4

// Batch finds due reminders and delivers them.
type Batch struct {
	store       store.Store
	push        simplepush.Client
	loc         *time.Location
	concurrency int
	retry       resilience.RetryConfig
}

// Option configures a Batch.
type Option func(*Batch)

// WithConcurrency bounds the number of parallel sends.
func WithConcurrency(n int) Option {
	return func(b *Batch) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithRetryConfig overrides the send retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(b *Batch) {
		b.retry = cfg
	}
}

// New builds a reminder batch. loc is the timezone the street schedule
// lives in; "tomorrow" is computed there, not in UTC.
func New(st store.Store, push simplepush.Client, loc *time.Location, opts ...Option) *Batch {
	b := &Batch{
		store:       st,
		push:        push,
		loc:         loc,
		concurrency: DefaultConcurrency,
		retry:       resilience.DefaultRetryConfig(),
	}
	b.retry.OnRetry = resilience.RetryLogger("simplepush", "send")
	for _, opt := range opts {
		opt(b)
	}
	if b.retry.ShouldRetry == nil {
		b.retry.ShouldRetry = retryableSend
	}
	return b
}

func retryableSend(err error) bool {
	var te *simplepush.TransientSendError
	return eris.As(err, &te) || resilience.IsTransient(err)
}

// RunOnce delivers reminders for records whose next sweep falls on the day
// after now. Each delivered record is marked notified so reruns are safe.
// It returns the number of reminders sent; per-record failures are logged
// and do not fail the batch.
func (b *Batch) RunOnce(ctx context.Context, now time.Time) (int, error) {
	local := now.In(b.loc)
	tomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, b.loc)

	due, err := b.store.DueReminders(ctx, tomorrow)
	if err != nil {
		return 0, eris.Wrap(err, "notify: list due reminders")
	}
	if len(due) == 0 {
		zap.L().Debug("notify: nothing due", zap.Time("sweep_date", tomorrow))
		return 0, nil
	}

	zap.L().Info("notify: reminder batch starting",
		zap.Int("due", len(due)),
		zap.Time("sweep_date", tomorrow),
	)

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, rec := range due {
		g.Go(func() error {
			if err := b.deliver(gctx, rec); err != nil {
				zap.L().Error("notify: reminder failed",
					zap.String("record_id", rec.ID),
					zap.String("street", rec.Street),
					zap.Error(err),
				)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(sent.Load()), eris.Wrap(err, "notify: batch")
	}

	zap.L().Info("notify: reminder batch done",
		zap.Int("sent", int(sent.Load())),
		zap.Int("due", len(due)),
	)
	return int(sent.Load()), nil
}

func (b *Batch) deliver(ctx context.Context, rec model.ParkingRecord) error {
	msg := simplepush.Message{
		Title: "Street Sweeping Reminder",
		Body:  ReminderBody(rec),
	}

	err := resilience.Do(ctx, b.retry, func(ctx context.Context) error {
		return b.push.Send(ctx, msg)
	})
	if err != nil {
		return eris.Wrap(err, "notify: send")
	}

	// Marking after delivery means a crash between the two repeats the
	// push rather than dropping it.
	if err := b.store.MarkNotified(ctx, rec.ID); err != nil {
		return eris.Wrap(err, "notify: mark notified")
	}
	return nil
}

// ReminderBody renders the push text for one record.
func ReminderBody(rec model.ParkingRecord) string {
	return fmt.Sprintf("Move your car from %s by %d:00 tomorrow (%s)",
		rec.Street, rec.FromHour, rec.NextSweep.Format("Monday, January 2"))
}

// Run executes the batch once per interval until ctx is canceled. A failed
// run is logged; the loop keeps going.
func (b *Batch) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.RunOnce(ctx, time.Now()); err != nil {
				zap.L().Error("notify: batch run failed", zap.Error(err))
			}
		}
	}
}
