package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mmex/internal/amqp"
	"mmex/internal/core"
	"mmex/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "mmex.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

type fixture struct {
	checking, savings int64
	grocer, telecom   int64
	food, bills       int64
	phone             int64
}

func seed(t *testing.T, repo *storage.SQLiteRepository) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture
	var err error

	f.checking, err = repo.CreateAccount(ctx, core.Account{Name: "Checking", Type: "Checking", Status: core.AccountOpen,
		Favorite: true, InitialBalance: core.MustMoney("1000"), CurrencyID: 1})
	require.NoError(t, err)
	f.savings, err = repo.CreateAccount(ctx, core.Account{Name: "Savings", Type: "Checking", Status: core.AccountOpen,
		InitialBalance: core.MustMoney("500"), CurrencyID: 1})
	require.NoError(t, err)

	f.food, err = repo.CreateCategory(ctx, "Meals")
	require.NoError(t, err)
	f.bills, err = repo.CreateCategory(ctx, "Utilities")
	require.NoError(t, err)
	f.phone, err = repo.CreateSubcategory(ctx, f.bills, "Phone")
	require.NoError(t, err)

	f.grocer, err = repo.CreatePayee(ctx, core.Payee{Name: "Grocer", CategoryID: f.food})
	require.NoError(t, err)
	f.telecom, err = repo.CreatePayee(ctx, core.Payee{Name: "Telecom", CategoryID: f.bills})
	require.NoError(t, err)
	return f
}

func fixedClock(year int, month time.Month, day int) Clock {
	return func() time.Time { return time.Date(year, month, day, 15, 4, 5, 0, time.UTC) }
}

// recordingPublisher captures published changes.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ChangeMessage
	err  error
}

func (p *recordingPublisher) PublishChange(_ context.Context, msg *amqp.ChangeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

// actions returns "entity:action" for every published message.
func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, string(m.Entity)+":"+string(m.Action))
	}
	return out
}
