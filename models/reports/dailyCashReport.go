package reports

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/mmdatafocus/shop_ledger/models"
	"github.com/mmdatafocus/shop_ledger/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

type DailyCashReport struct {
	*ledger.DailyCash
	OpeningBalanceSet   bool       `json:"opening_balance_set"`
	OpeningBalanceSetBy string     `json:"opening_balance_set_by,omitempty"`
	OpeningBalanceSetAt *time.Time `json:"opening_balance_set_at,omitempty"`
	GeneratedAt         time.Time  `json:"generated_at"`
	Cached              bool       `json:"cached"`
}

// GetDailyCashReport builds the cash position of day. Days before today are immutable enough
// to cache; writes on a day invalidate its key.
func GetDailyCashReport(ctx context.Context, src DailyCashSource, day ledger.Day, now time.Time) (result *DailyCashReport, err error) {
	ctx, span := startSpan(ctx, "GetDailyCashReport")
	span.SetAttributes(attribute.String("day", day.String()))
	defer func() { endSpan(span, err) }()
	started := time.Now()
	defer logSlowReport(ctx, "daily_cash", started, map[string]any{"day": day})

	if _, err := ledger.ParseDay(day.String()); err != nil {
		return nil, err
	}
	loc := config.BusinessLocation()
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	historical := day.Before(ledger.DayOf(now, loc))
	cacheKey := models.DailyCashCacheKey(businessId, day)

	if historical {
		var cached DailyCashReport
		if ok, cerr := cacheGet(cacheKey, &cached); cerr == nil && ok && cached.DailyCash != nil {
			cached.Cached = true
			return &cached, nil
		}
	}

	orders, err := src.ListOrdersByDate(ctx, day)
	if err != nil {
		return nil, ledger.Unavailable("orders", err)
	}
	payments, err := src.ListPaymentsByDate(ctx, day)
	if err != nil {
		return nil, ledger.Unavailable("payments", err)
	}

	report := &DailyCashReport{GeneratedAt: now}
	opening := decimal.Zero
	summary, err := src.GetDailySummary(ctx, day)
	switch {
	case err == nil:
		opening = summary.OpeningBalance
		report.OpeningBalanceSet = true
		report.OpeningBalanceSetBy = summary.OpeningBalanceSetBy
		report.OpeningBalanceSetAt = summary.OpeningBalanceSetAt
	case errors.Is(err, utils.ErrorRecordNotFound):
		// no opening balance entered yet
	default:
		return nil, ledger.Unavailable("daily_summary", err)
	}

	opts := []ledger.DailyOption{ledger.WithLocation(loc)}
	if config.StrictReceiptOverlap() {
		opts = append(opts, ledger.WithStrictOverlap())
	}
	cash, err := ledger.ComputeDailySummary(day, orders, payments, opening, opts...)
	if err != nil {
		return nil, err
	}
	report.DailyCash = cash

	if historical {
		if cerr := cacheSet(cacheKey, report); cerr != nil {
			config.LogError(config.GetLogger(), "reports", "GetDailyCashReport", "cache set", cacheKey, cerr)
		}
	}
	return report, nil
}
