package reports

import (
	"context"
	"errors"

	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/mmdatafocus/shop_ledger/models"
	"github.com/mmdatafocus/shop_ledger/utils"
	"go.opentelemetry.io/otel/attribute"
)

func GetPartyLedgerReport(ctx context.Context, src PartySource, partyType ledger.PartyType, partyId int) (result *ledger.Ledger, err error) {
	ctx, span := startSpan(ctx, "GetPartyLedgerReport")
	span.SetAttributes(attribute.String("party_type", string(partyType)), attribute.Int("party_id", partyId))
	defer func() { endSpan(span, err) }()

	party, err := src.GetParty(ctx, partyType, partyId)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) || errors.Is(err, models.ErrUnknownPartyType) {
			return nil, err
		}
		return nil, ledger.Unavailable("parties", err)
	}
	return partyLedger(ctx, src, *party)
}

func partyLedger(ctx context.Context, src PartySource, party ledger.Party) (*ledger.Ledger, error) {
	txns, err := src.ListTransactionsForParty(ctx, party.Type, party.ID, party.Name)
	if err != nil {
		return nil, ledger.Unavailable("transactions", err)
	}
	return ledger.ComputeLedger(party, txns)
}
