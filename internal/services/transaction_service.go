package services

import (
	"context"
	"fmt"

	"mmex/internal/amqp"
	"mmex/internal/core"
	"mmex/internal/storage"
)

// TransactionService saves entered transactions and announces the change.
type TransactionService struct {
	store    TransactionStore
	notifier *Notifier
}

func NewTransactionService(store TransactionStore, notifier *Notifier) *TransactionService {
	return &TransactionService{store: store, notifier: notifier}
}

// Create validates and stores t. Publishing the change is best effort: a
// broker failure does not undo the saved transaction.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Date = core.DateOf(t.Date)
	if t.Date.IsZero() {
		return core.Transaction{}, fmt.Errorf("%w: date is required", core.ErrInvalidTransaction)
	}
	if t.Code == core.Transfer && t.ToAmount.IsZero() {
		t.ToAmount = t.Amount
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	t.ID = id
	s.notifier.changed(ctx, amqp.EntityTransaction, amqp.ActionCreated, id)
	return t, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.notifier.changed(ctx, amqp.EntityTransaction, amqp.ActionDeleted, id)
	return nil
}

// List returns transactions in the range, newest first.
func (s *TransactionService) List(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, f)
}
