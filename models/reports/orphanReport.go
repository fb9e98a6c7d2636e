package reports

import (
	"context"

	"github.com/mmdatafocus/shop_ledger/ledger"
)

func GetOrphanReport(ctx context.Context, src IntegritySource) (result *ledger.OrphanReport, err error) {
	ctx, span := startSpan(ctx, "GetOrphanReport")
	defer func() { endSpan(span, err) }()

	txns, err := src.ListUnlinkedTransactions(ctx)
	if err != nil {
		return nil, ledger.Unavailable("transactions", err)
	}
	report := ledger.FindOrphans(txns)
	return &report, nil
}
