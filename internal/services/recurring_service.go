package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mmex/internal/amqp"
	"mmex/internal/core"
	"mmex/internal/metrics"
	"mmex/internal/storage"
)

// MaxPreview bounds the number of occurrences Preview returns.
const MaxPreview = 120

// RecurringService manages recurring templates and enters their
// occurrences.
type RecurringService struct {
	store    RecurringStore
	notifier *Notifier
	clock    Clock
}

func NewRecurringService(store RecurringStore, notifier *Notifier, clock Clock) *RecurringService {
	return &RecurringService{store: store, notifier: notifier, clock: clock}
}

// RecurringListing is a template with its schedule rendered for display.
type RecurringListing struct {
	core.RecurringTransaction
	Frequency   string       `json:"frequency"`
	AutoExecute string       `json:"auto_execute"`
	Due         core.DueInfo `json:"due"`
}

// EnterResult describes what entering or skipping an occurrence did.
type EnterResult struct {
	TransactionID int64                      `json:"transaction_id,omitempty"`
	Date          time.Time                  `json:"date"`
	Finished      bool                       `json:"finished"`
	Next          *core.RecurringTransaction `json:"next,omitempty"`
}

// EnterOptions adjusts the transaction entered for one occurrence. Zero
// values keep the template's amount and payment date.
type EnterOptions struct {
	Amount core.Money
	Date   time.Time
}

func normalizeRecurring(rt *core.RecurringTransaction) {
	rt.PaymentDate = core.DateOf(rt.PaymentDate)
	if rt.DueDate.IsZero() {
		rt.DueDate = rt.PaymentDate
	}
	rt.DueDate = core.DateOf(rt.DueDate)
	if rt.PaymentsLeft == 0 {
		rt.PaymentsLeft = core.UnlimitedPayments
	}
	if rt.Code != core.Transfer {
		rt.ToAccountID = 0
		rt.ToAmount = core.Zero
	}
}

func (s *RecurringService) Create(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	normalizeRecurring(&rt)
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	id, err := s.store.CreateRecurring(ctx, rt)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("save recurring transaction: %w", err)
	}
	rt.ID = id
	s.notifier.changed(ctx, amqp.EntityRecurring, amqp.ActionCreated, id)
	return rt, nil
}

func (s *RecurringService) Update(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	normalizeRecurring(&rt)
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if err := s.store.UpdateRecurring(ctx, rt); err != nil {
		return core.RecurringTransaction{}, err
	}
	s.notifier.changed(ctx, amqp.EntityRecurring, amqp.ActionUpdated, rt.ID)
	return rt, nil
}

func (s *RecurringService) Get(ctx context.Context, id int64) (core.RecurringTransaction, error) {
	return s.store.GetRecurring(ctx, id)
}

func (s *RecurringService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteRecurring(ctx, id); err != nil {
		return err
	}
	s.notifier.changed(ctx, amqp.EntityRecurring, amqp.ActionDeleted, id)
	return nil
}

// List returns every template ordered by payment date with its due state.
func (s *RecurringService) List(ctx context.Context) ([]RecurringListing, error) {
	rts, err := s.store.ListRecurring(ctx)
	if err != nil {
		return nil, err
	}
	return s.listings(rts), nil
}

// Due returns the templates whose payment date has been reached.
func (s *RecurringService) Due(ctx context.Context) ([]RecurringListing, error) {
	rts, err := s.store.ListDueRecurring(ctx, s.clock.today())
	if err != nil {
		return nil, err
	}
	return s.listings(rts), nil
}

func (s *RecurringService) listings(rts []core.RecurringTransaction) []RecurringListing {
	today := s.clock.today()
	out := make([]RecurringListing, 0, len(rts))
	for _, rt := range rts {
		out = append(out, RecurringListing{
			RecurringTransaction: rt,
			Frequency:            rt.Repeats.String(),
			AutoExecute:          rt.Repeats.Mode().String(),
			Due:                  core.DueState(rt.PaymentDate, today),
		})
	}
	return out
}

// Enter records the transaction for the current payment date and moves the
// template to its next occurrence, deleting it after its last payment.
func (s *RecurringService) Enter(ctx context.Context, id int64, opts EnterOptions) (EnterResult, error) {
	rt, err := s.store.GetRecurring(ctx, id)
	if err != nil {
		return EnterResult{}, err
	}

	tx := rt.Instance()
	if !opts.Amount.IsZero() {
		if !opts.Amount.IsPositive() {
			return EnterResult{}, core.ErrInvalidAmount
		}
		tx.Amount = opts.Amount
		if tx.Code == core.Transfer && rt.ToAmount.IsZero() {
			tx.ToAmount = opts.Amount
		}
	}
	if !opts.Date.IsZero() {
		tx.Date = core.DateOf(opts.Date)
	}
	if err := tx.Validate(); err != nil {
		return EnterResult{}, err
	}

	res, err := s.commit(ctx, rt, &tx)
	if err != nil {
		return EnterResult{}, err
	}
	metrics.RecurringEntered.WithLabelValues("user").Inc()
	s.notifier.changed(ctx, amqp.EntityTransaction, amqp.ActionCreated, res.TransactionID)
	s.notifier.changed(ctx, amqp.EntityRecurring, amqp.ActionEntered, rt.ID)
	return res, nil
}

// Skip moves the template to its next occurrence without entering anything.
func (s *RecurringService) Skip(ctx context.Context, id int64) (EnterResult, error) {
	rt, err := s.store.GetRecurring(ctx, id)
	if err != nil {
		return EnterResult{}, err
	}
	res, err := s.commit(ctx, rt, nil)
	if err != nil {
		return EnterResult{}, err
	}
	metrics.RecurringSkipped.Inc()
	s.notifier.changed(ctx, amqp.EntityRecurring, amqp.ActionSkipped, rt.ID)
	return res, nil
}

func (s *RecurringService) commit(ctx context.Context, rt core.RecurringTransaction, tx *core.Transaction) (EnterResult, error) {
	next, finished, err := rt.Advance()
	if err != nil {
		return EnterResult{}, err
	}

	txID, err := s.store.CommitOccurrence(ctx, storage.Occurrence{
		Current:  rt,
		Next:     next,
		Finished: finished,
		Entered:  tx,
	})
	if err != nil {
		return EnterResult{}, err
	}

	res := EnterResult{TransactionID: txID, Date: rt.PaymentDate, Finished: finished}
	if !finished {
		res.Next = &next
	}
	slog.InfoContext(ctx, "Recurring occurrence committed",
		"recurring_id", rt.ID,
		"entered", tx != nil,
		"transaction_id", txID,
		"payment_date", core.FormatDate(rt.PaymentDate),
		"finished", finished)
	return res, nil
}

// Preview lists the next n payment dates of the template, stopping early
// when the remaining payment count runs out.
func (s *RecurringService) Preview(ctx context.Context, id int64, n int) ([]time.Time, error) {
	rt, err := s.store.GetRecurring(ctx, id)
	if err != nil {
		return nil, err
	}
	return PreviewDates(rt, n)
}

// PreviewDates is Preview for a template that is not stored.
func PreviewDates(rt core.RecurringTransaction, n int) ([]time.Time, error) {
	if n > MaxPreview {
		n = MaxPreview
	}
	if rt.PaymentsLeft > 0 && n > rt.PaymentsLeft {
		n = rt.PaymentsLeft
	}
	return core.Occurrences(rt.PaymentDate, rt.Repeats, n)
}
