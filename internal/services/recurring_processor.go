package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mmex/internal/amqp"
	"mmex/internal/core"
	applog "mmex/internal/log"
	"mmex/internal/metrics"
	"mmex/internal/storage"
)

// DefaultCatchUp bounds how many missed occurrences of one template a single
// run enters.
const DefaultCatchUp = 366

// RecurringProcessor enters due auto-execute templates.
type RecurringProcessor struct {
	store    RecurringStore
	notifier *Notifier
	catchUp  int
}

func NewRecurringProcessor(store RecurringStore, notifier *Notifier, catchUp int) *RecurringProcessor {
	if catchUp < 1 {
		catchUp = DefaultCatchUp
	}
	return &RecurringProcessor{store: store, notifier: notifier, catchUp: catchUp}
}

// EnteredOccurrence is one transaction entered by the processor.
type EnteredOccurrence struct {
	RecurringID   int64     `json:"recurring_id"`
	TransactionID int64     `json:"transaction_id"`
	Date          time.Time `json:"date"`
	Finished      bool      `json:"finished"`
}

type ProcessResult struct {
	Entered []EnteredOccurrence `json:"entered"`
	// Pending holds manual templates that are due and wait for the user.
	Pending []RecurringListing `json:"pending"`
	Failed  int                `json:"failed"`
}

// ProcessDue handles every template whose payment date is on or before
// now. Silent templates are entered, catching up missed occurrences; manual
// templates are reported as pending; plain templates are left alone.
// Failures of one template are logged and do not stop the others.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (ProcessResult, error) {
	var result ProcessResult
	if p.store == nil {
		return result, fmt.Errorf("processor not properly initialized")
	}
	today := core.DateOf(now)

	due, err := p.store.ListDueRecurring(ctx, today)
	if err != nil {
		metrics.RecurringRuns.WithLabelValues("error").Inc()
		return result, fmt.Errorf("list due recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"due", len(due),
		"processing_date", core.FormatDate(today))

	for _, rt := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		switch rt.Repeats.Mode() {
		case core.AutoExecuteSilent:
			entered, err := p.enterDue(ctx, rt, today)
			result.Entered = append(result.Entered, entered...)
			if err != nil {
				result.Failed++
				applog.LogError(ctx, "Failed to enter recurring transaction", err,
					applog.ComponentRecurring, applog.OpProcess,
					applog.FieldRecurringID, rt.ID,
					"entered_before_failure", len(entered))
			}
		case core.AutoExecuteManual:
			result.Pending = append(result.Pending, RecurringListing{
				RecurringTransaction: rt,
				Frequency:            rt.Repeats.String(),
				AutoExecute:          rt.Repeats.Mode().String(),
				Due:                  core.DueState(rt.PaymentDate, today),
			})
			p.notifier.changed(ctx, amqp.EntityRecurring, amqp.ActionPending, rt.ID)
		}
	}

	metrics.RecurringPending.Set(float64(len(result.Pending)))
	outcome := "ok"
	if result.Failed > 0 {
		outcome = "partial"
	}
	metrics.RecurringRuns.WithLabelValues(outcome).Inc()

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"entered", len(result.Entered),
		"pending", len(result.Pending),
		"failed", result.Failed,
		"total_checked", len(due))
	return result, nil
}

// enterDue enters occurrences of rt until it is no longer due, it finishes,
// or the catch-up limit is reached. Each occurrence commits on its own so a
// failure keeps the ones already entered.
func (p *RecurringProcessor) enterDue(ctx context.Context, rt core.RecurringTransaction, today time.Time) ([]EnteredOccurrence, error) {
	var entered []EnteredOccurrence
	current := rt

	for i := 0; i < p.catchUp && current.IsDue(today); i++ {
		tx := current.Instance()
		if err := tx.Validate(); err != nil {
			return entered, err
		}
		next, finished, err := current.Advance()
		if err != nil {
			return entered, err
		}

		txID, err := p.store.CommitOccurrence(ctx, storage.Occurrence{
			Current:  current,
			Next:     next,
			Finished: finished,
			Entered:  &tx,
		})
		if errors.Is(err, core.ErrConflict) {
			// Entered or skipped concurrently; the next run sees the new state.
			slog.WarnContext(ctx, "Recurring transaction changed during processing",
				"recurring_id", rt.ID)
			return entered, nil
		}
		if err != nil {
			return entered, err
		}

		metrics.RecurringEntered.WithLabelValues("auto").Inc()
		entered = append(entered, EnteredOccurrence{
			RecurringID:   rt.ID,
			TransactionID: txID,
			Date:          tx.Date,
			Finished:      finished,
		})
		p.notifier.changed(ctx, amqp.EntityTransaction, amqp.ActionCreated, txID)
		slog.InfoContext(ctx, "Entered transaction from recurring template",
			applog.Occurrence(rt.ID, txID, core.FormatDate(tx.Date), tx.Amount.String(), rt.Repeats.String())...)

		if finished {
			break
		}
		current = next
	}

	if len(entered) > 0 {
		p.notifier.changed(ctx, amqp.EntityRecurring, amqp.ActionEntered, rt.ID)
	}
	if current.IsDue(today) && !(len(entered) > 0 && entered[len(entered)-1].Finished) {
		slog.WarnContext(ctx, "Catch-up limit reached, remaining occurrences deferred",
			"recurring_id", rt.ID,
			"limit", p.catchUp,
			"next_payment_date", core.FormatDate(current.PaymentDate))
	}
	return entered, nil
}
