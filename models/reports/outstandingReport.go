package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/shop_ledger/ledger"
)

type OutstandingReport struct {
	ledger.Outstanding
	Balances    []ledger.PartyBalance `json:"balances"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// GetOutstandingReport computes every party's ledger and aggregates the balances.
// A single party with invalid data fails the whole report.
func GetOutstandingReport(ctx context.Context, src PartySource, now time.Time) (result *OutstandingReport, err error) {
	ctx, span := startSpan(ctx, "GetOutstandingReport")
	defer func() { endSpan(span, err) }()
	started := time.Now()
	defer logSlowReport(ctx, "outstanding", started, nil)

	balances := []ledger.PartyBalance{}
	for _, partyType := range []ledger.PartyType{ledger.PartyTypeCustomer, ledger.PartyTypeSupplier} {
		parties, err := src.ListParties(ctx, partyType)
		if err != nil {
			return nil, ledger.Unavailable("parties", err)
		}
		for _, party := range parties {
			l, err := partyLedger(ctx, src, party)
			if err != nil {
				return nil, err
			}
			balances = append(balances, l.PartyBalance())
		}
	}
	return &OutstandingReport{
		Outstanding: ledger.Aggregate(balances),
		Balances:    balances,
		GeneratedAt: now,
	}, nil
}
