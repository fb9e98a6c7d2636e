package reports

import (
	"context"

	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/mmdatafocus/shop_ledger/models"
)

// DailyCashSource is what the daily cash report reads. *models.Store satisfies it.
type DailyCashSource interface {
	ListOrdersByDate(ctx context.Context, day ledger.Day) ([]ledger.Sale, error)
	ListPaymentsByDate(ctx context.Context, day ledger.Day) ([]ledger.Payment, error)
	GetDailySummary(ctx context.Context, day ledger.Day) (*models.DailySummary, error)
}

type PartySource interface {
	ListParties(ctx context.Context, partyType ledger.PartyType) ([]ledger.Party, error)
	GetParty(ctx context.Context, partyType ledger.PartyType, id int) (*ledger.Party, error)
	ListTransactionsForParty(ctx context.Context, partyType ledger.PartyType, partyId int, partyName string) ([]ledger.Transaction, error)
}

type IntegritySource interface {
	ListUnlinkedTransactions(ctx context.Context) ([]ledger.Transaction, error)
}

// Source is the full read surface of the reports package.
type Source interface {
	DailyCashSource
	PartySource
	IntegritySource
}

var _ Source = (*models.Store)(nil)
