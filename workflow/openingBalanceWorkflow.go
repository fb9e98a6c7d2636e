package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/mmdatafocus/shop_ledger/models"
	"github.com/mmdatafocus/shop_ledger/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrHistoricalDay = errors.New("opening balance can only be set for the current business day")
	ErrMissingActor  = errors.New("opening balance requires an actor")
)

type OpeningBalanceStore interface {
	SetDailySummaryOpeningBalance(ctx context.Context, day ledger.Day, amount decimal.Decimal, actor string, at time.Time) (*models.DailySummary, error)
}

// SetDailyOpeningBalance records the cash counted at the start of today.
// Concurrent setters are last-writer-wins; the Redis lock only narrows the window.
func SetDailyOpeningBalance(ctx context.Context, store OpeningBalanceStore, logger *logrus.Logger, day ledger.Day, amount decimal.Decimal, actor string, now time.Time) (summary *models.DailySummary, err error) {
	ctx, span := tracer.Start(ctx, "workflow.SetDailyOpeningBalance")
	span.SetAttributes(attribute.String("day", day.String()))
	defer func() { endSpan(span, err) }()

	if err := ledger.CheckAmount(ledger.TransactionRef{}, "opening_balance", amount); err != nil {
		return nil, err
	}
	if _, err := ledger.ParseDay(day.String()); err != nil {
		return nil, err
	}
	if today := ledger.DayOf(now, config.BusinessLocation()); day != today {
		return nil, fmt.Errorf("%w: %s is not %s", ErrHistoricalDay, day, today)
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, ErrMissingActor
	}
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.ErrorMissingBusiness
	}

	err = utils.WithBusinessLock(ctx, businessId, "daily_opening_balance:"+day.String(), "openingBalanceWorkflow.go", "SetDailyOpeningBalance", func() error {
		var setErr error
		summary, setErr = store.SetDailySummaryOpeningBalance(ctx, day, amount, actor, now)
		return setErr
	})
	if err != nil {
		config.LogError(logger, "openingBalanceWorkflow.go", "SetDailyOpeningBalance", "SetDailySummaryOpeningBalance", day, err)
		return nil, err
	}

	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	payload, _ := json.Marshal(map[string]string{"day": day.String(), "amount": amount.String()})
	publish(ctx, config.LedgerEvent{
		ID:            uuid.NewString(),
		BusinessId:    businessId,
		Action:        config.LedgerEventOpeningBalanceSet,
		ReferenceType: "daily_summary",
		Actor:         actor,
		OccurredAt:    now,
		Payload:       payload,
		CorrelationId: cid,
	}, "SetDailyOpeningBalance")

	logger.WithFields(logrus.Fields{
		"business_id": businessId,
		"day":         day,
		"amount":      amount.String(),
		"actor":       actor,
	}).Info("daily opening balance set")
	return summary, nil
}
