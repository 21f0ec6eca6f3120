// internal/app/system/workers/outbox.go
package workers

import (
	"context"
	"time"

	"github.com/dalemusser/activityteams/internal/app/system/mailer"
	"github.com/dalemusser/waffle/pantry/email"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MailOutbox sends notification emails from a background queue so activity
// writes never wait on SMTP.
type MailOutbox struct {
	queue      *email.Queue
	store      *email.MemoryQueueStore
	log        *zap.Logger
	size       int
	maxRetries int
}

// NewMailOutbox creates a new outbox worker.
//
// Parameters:
//   - sender: SMTP sender (see mailer.NewSender)
//   - logger: zap logger for logging
//   - size: queue capacity; Enqueue drops mail once it is full
func NewMailOutbox(sender *email.Sender, logger *zap.Logger, size int) *MailOutbox {
	if size <= 0 {
		size = 100
	}
	w := &MailOutbox{
		store:      email.NewMemoryQueueStore(),
		log:        logger,
		size:       size,
		maxRetries: 3,
	}
	w.queue = email.NewQueue(email.QueueConfig{
		Sender: sender,
		Store:  w.store,
		Logger: logger,
		// The memory store does not claim what it dequeues, so a second
		// worker could send the same email twice.
		Workers: 1,
		OnSent:  w.forget,
		OnFailed: func(e *email.QueuedEmail, _ error) {
			w.forget(e)
		},
	})
	return w
}

// Enqueue queues e for delivery. It never blocks and reports false when the
// queue is full.
func (w *MailOutbox) Enqueue(e mailer.Email) bool {
	if w.Pending() >= w.size {
		return false
	}
	err := w.queue.Enqueue(context.Background(), &email.QueuedEmail{
		ID:         uuid.NewString(),
		Message:    e.Message(),
		MaxRetries: w.maxRetries,
	})
	if err != nil {
		w.log.Error("failed to queue notification email",
			zap.String("to", e.To),
			zap.Error(err))
		return false
	}
	return true
}

// Pending reports how many emails are waiting for delivery.
func (w *MailOutbox) Pending() int {
	stats, err := w.store.Stats(context.Background())
	if err != nil {
		return 0
	}
	return int(stats.Pending + stats.Scheduled + stats.Sending)
}

// Start begins background delivery.
func (w *MailOutbox) Start() {
	w.queue.Start()
	w.log.Info("mail outbox worker started", zap.Int("capacity", w.size))
}

// Stop waits for queued mail to go out, until ctx ends, then stops the
// worker.
func (w *MailOutbox) Stop(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for w.Pending() > 0 {
		select {
		case <-ctx.Done():
			w.log.Warn("mail outbox stopped with mail still queued", zap.Int("pending", w.Pending()))
			return w.queue.Stop(context.Background())
		case <-ticker.C:
		}
	}
	return w.queue.Stop(ctx)
}

// forget drops a delivered or abandoned email so the store stays bounded.
func (w *MailOutbox) forget(e *email.QueuedEmail) {
	_ = w.store.Delete(context.Background(), e.ID)
}
