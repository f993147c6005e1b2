package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmex/internal/core"
)

func TestSummaryService(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	_, err := repo.CreateAccount(ctx, core.Account{Name: "Old", Type: "Checking", Status: core.AccountClosed,
		InitialBalance: core.MustMoney("25"), CurrencyID: 1})
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.Transaction{AccountID: f.checking, PayeeID: f.grocer, Code: core.Withdrawal,
		Amount: core.MustMoney("100"), Date: core.NewDate(2024, time.March, 1)})
	require.NoError(t, err)

	svc := NewSummaryService(repo)

	tests := []struct {
		name      string
		filter    SummaryFilter
		wantCount int
		wantTotal string
	}{
		{name: "all accounts", filter: SummaryFilter{}, wantCount: 3, wantTotal: "1425.00"},
		{name: "open only", filter: SummaryFilter{OnlyOpen: true}, wantCount: 2, wantTotal: "1400.00"},
		{name: "favorites only", filter: SummaryFilter{OnlyFavorites: true}, wantCount: 1, wantTotal: "900.00"},
		{name: "favorites win over open", filter: SummaryFilter{OnlyOpen: true, OnlyFavorites: true}, wantCount: 1, wantTotal: "900.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := svc.Summary(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, sum.Accounts, tt.wantCount)
			assert.Equal(t, tt.wantTotal, sum.Total.String())
		})
	}
}
