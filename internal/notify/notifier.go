// Package notify delivers best-effort operational notifications over
// the background job queue. Delivery failures are reported to callers
// but are expected to be logged and swallowed, never to fail the
// originating request.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opex-suite/opex-suite/jobs"
)

// Notifier builds and enqueues notification emails.
type Notifier struct {
	enqueue func(ctx context.Context, payload jobs.SendEmailPayload) error
	to      string
	logger  *slog.Logger
}

// NewNotifier constructs a Notifier sending to the finance
// distribution address.
func NewNotifier(client *jobs.Client, to string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		enqueue: func(ctx context.Context, payload jobs.SendEmailPayload) error {
			_, err := client.EnqueueSendEmail(ctx, payload)
			return err
		},
		to:     to,
		logger: logger,
	}
}

// BudgetExceeded queues an alert that a line item's actuals have
// overrun its allocation.
func (n *Notifier) BudgetExceeded(ctx context.Context, uid string, budgetTotal, actualTotal float64) error {
	payload := jobs.SendEmailPayload{
		To:      n.to,
		Subject: fmt.Sprintf("Budget exceeded for line item %s", uid),
		Body: fmt.Sprintf("Line item %s has actuals of %.2f against a budget of %.2f (overrun %.2f).",
			uid, actualTotal, budgetTotal, actualTotal-budgetTotal),
	}
	if err := n.enqueue(ctx, payload); err != nil {
		return fmt.Errorf("notify: enqueue budget exceeded: %w", err)
	}
	n.logger.Info("budget exceeded notification queued", slog.String("uid", uid))
	return nil
}
