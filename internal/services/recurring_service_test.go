package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmex/internal/core"
	"mmex/internal/storage"
)

func phoneBill(f fixture, mode core.AutoExecute, payments int) core.RecurringTransaction {
	return core.RecurringTransaction{
		AccountID:    f.checking,
		PayeeID:      f.telecom,
		Code:         core.Withdrawal,
		Amount:       core.MustMoney("29.90"),
		CategoryID:   f.bills,
		PaymentDate:  core.NewDate(2024, time.January, 31),
		Repeats:      core.NewRepeatCode(core.Monthly, mode),
		PaymentsLeft: payments,
	}
}

func TestRecurringService_Create(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	svc := NewRecurringService(repo, nil, fixedClock(2024, time.January, 1))
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*core.RecurringTransaction)
		wantErr error
	}{
		{name: "valid", mutate: func(*core.RecurringTransaction) {}},
		{name: "unsupported code", mutate: func(rt *core.RecurringTransaction) { rt.Repeats = 11 }, wantErr: core.ErrUnsupportedRecurrence},
		{name: "invalid code", mutate: func(rt *core.RecurringTransaction) { rt.Repeats = 42 }, wantErr: core.ErrInvalidRepeatCode},
		{name: "missing payment date", mutate: func(rt *core.RecurringTransaction) { rt.PaymentDate = time.Time{} }, wantErr: core.ErrInvalidTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := phoneBill(f, core.AutoExecuteNone, 0)
			tt.mutate(&rt)
			got, err := svc.Create(ctx, rt)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, got.ID)
			assert.Equal(t, core.UnlimitedPayments, got.PaymentsLeft)
			assert.Equal(t, got.PaymentDate, got.DueDate, "due date defaults to the payment date")
		})
	}
}

func TestRecurringService_Enter(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	pub := &recordingPublisher{}
	svc := NewRecurringService(repo, NewNotifier(pub), fixedClock(2024, time.February, 1))
	ctx := context.Background()

	rt, err := svc.Create(ctx, phoneBill(f, core.AutoExecuteManual, 2))
	require.NoError(t, err)

	res, err := svc.Enter(ctx, rt.ID, EnterOptions{Amount: core.MustMoney("31.50")})
	require.NoError(t, err)
	assert.False(t, res.Finished)
	require.NotNil(t, res.Next)
	assert.Equal(t, core.NewDate(2024, time.February, 29), res.Next.PaymentDate)
	assert.Equal(t, 1, res.Next.PaymentsLeft)

	tx, err := repo.GetTransaction(ctx, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "31.50", tx.Amount.String())
	assert.Equal(t, core.NewDate(2024, time.January, 31), tx.Date)

	// Last payment removes the template.
	res, err = svc.Enter(ctx, rt.ID, EnterOptions{})
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.Nil(t, res.Next)
	_, err = svc.Get(ctx, rt.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	assert.Equal(t, []string{
		"recurring:created",
		"transaction:created", "recurring:entered",
		"transaction:created", "recurring:entered",
	}, pub.actions())

	_, err = svc.Enter(ctx, rt.ID, EnterOptions{})
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestRecurringService_EnterRejectsNegativeOverride(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	svc := NewRecurringService(repo, nil, nil)
	ctx := context.Background()

	rt, err := svc.Create(ctx, phoneBill(f, core.AutoExecuteNone, 0))
	require.NoError(t, err)

	_, err = svc.Enter(ctx, rt.ID, EnterOptions{Amount: core.MustMoney("-5")})
	assert.True(t, errors.Is(err, core.ErrInvalidAmount))
}

func TestRecurringService_Skip(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	svc := NewRecurringService(repo, nil, nil)
	ctx := context.Background()

	rt, err := svc.Create(ctx, phoneBill(f, core.AutoExecuteNone, 0))
	require.NoError(t, err)

	res, err := svc.Skip(ctx, rt.ID)
	require.NoError(t, err)
	assert.Zero(t, res.TransactionID)
	require.NotNil(t, res.Next)
	assert.Equal(t, core.NewDate(2024, time.February, 29), res.Next.PaymentDate)
	assert.Equal(t, core.UnlimitedPayments, res.Next.PaymentsLeft)

	txs, err := repo.ListTransactions(ctx, storage.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestRecurringService_ListAndDue(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	svc := NewRecurringService(repo, nil, fixedClock(2024, time.February, 2))
	ctx := context.Background()

	_, err := svc.Create(ctx, phoneBill(f, core.AutoExecuteNone, 0))
	require.NoError(t, err)
	later := phoneBill(f, core.AutoExecuteSilent, 0)
	later.PaymentDate = core.NewDate(2024, time.February, 12)
	_, err = svc.Create(ctx, later)
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2 days overdue!", all[0].Due.Label())
	assert.Equal(t, "monthly", all[0].Frequency)
	assert.Equal(t, "10 days remaining", all[1].Due.Label())

	due, err := svc.Due(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, core.Overdue, due[0].Due.Status)
}

func TestPreviewDates(t *testing.T) {
	base := core.RecurringTransaction{
		PaymentDate:  core.NewDate(2024, time.January, 31),
		Repeats:      core.NewRepeatCode(core.Monthly, core.AutoExecuteNone),
		PaymentsLeft: core.UnlimitedPayments,
	}

	tests := []struct {
		name     string
		payments int
		n        int
		want     []time.Time
	}{
		{
			name:     "unlimited",
			payments: core.UnlimitedPayments,
			n:        3,
			want: []time.Time{
				core.NewDate(2024, time.January, 31),
				core.NewDate(2024, time.February, 29),
				core.NewDate(2024, time.March, 29),
			},
		},
		{
			name:     "capped by payments left",
			payments: 2,
			n:        5,
			want: []time.Time{
				core.NewDate(2024, time.January, 31),
				core.NewDate(2024, time.February, 29),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := base
			rt.PaymentsLeft = tt.payments
			got, err := PreviewDates(rt, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("bounded", func(t *testing.T) {
		got, err := PreviewDates(base, MaxPreview+50)
		require.NoError(t, err)
		assert.Len(t, got, MaxPreview)
	})
}
