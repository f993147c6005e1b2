package services

import (
	"context"
	"fmt"

	"mmex/internal/core"
	"mmex/internal/storage"
)

// SummaryService totals account balances in the base currency.
type SummaryService struct {
	store AccountStore
}

func NewSummaryService(store AccountStore) *SummaryService {
	return &SummaryService{store: store}
}

// SummaryFilter mirrors the account visibility preferences. When both are
// set only favorites are shown.
type SummaryFilter struct {
	OnlyOpen      bool
	OnlyFavorites bool
}

func (s *SummaryService) Summary(ctx context.Context, f SummaryFilter) (core.AccountSummary, error) {
	filter := storage.AccountFilter{OpenOnly: f.OnlyOpen}
	if f.OnlyFavorites {
		filter = storage.AccountFilter{FavoriteOnly: true}
	}
	balances, err := s.store.AccountBalances(ctx, filter)
	if err != nil {
		return core.AccountSummary{}, fmt.Errorf("account summary: %w", err)
	}
	sum := core.AccountSummary{Accounts: balances}
	if sum.Accounts == nil {
		sum.Accounts = []core.AccountBalance{}
	}
	for _, b := range balances {
		sum.Total = sum.Total.Add(b.BaseBalance)
	}
	return sum, nil
}
