package models

import (
	"context"
	"sort"
	"time"

	"github.com/mmdatafocus/shop_ledger/ledger"
)

const restampBatchSize = 500

type businessDateRow struct {
	ID           int
	OccurredAt   time.Time
	BusinessDate string
}

// RestampBusinessDates recomputes the stored business day of every sale, purchase bill and
// payment of the business in loc. Needed after BUSINESS_TIMEZONE changes. Returns the number of
// rows whose day moved.
func (s *Store) RestampBusinessDates(ctx context.Context, loc *time.Location) (int, error) {
	db, businessId, err := s.scoped(ctx)
	if err != nil {
		return 0, err
	}
	targets := []struct {
		model      any
		dateColumn string
	}{
		{&SalesOrder{}, "order_date"},
		{&PurchaseBill{}, "bill_date"},
		{&Payment{}, "payment_date"},
	}

	updated := 0
	touched := map[string]bool{}
	defer func() {
		days := make([]string, 0, len(touched))
		for d := range touched {
			days = append(days, d)
		}
		invalidateDailyCash(businessId, days...)
	}()

	for _, target := range targets {
		lastId := 0
		for {
			var rows []businessDateRow
			err := db.Model(target.model).
				Select("id, "+target.dateColumn+" AS occurred_at, business_date").
				Where("business_id = ? AND id > ?", businessId, lastId).
				Order("id").
				Limit(restampBatchSize).
				Scan(&rows).Error
			if err != nil {
				return updated, err
			}
			for _, r := range rows {
				day := ledger.DayOf(r.OccurredAt, loc).String()
				if day == r.BusinessDate {
					continue
				}
				err := db.Model(target.model).
					Where("id = ? AND business_id = ?", r.ID, businessId).
					UpdateColumn("business_date", day).Error
				if err != nil {
					return updated, err
				}
				touched[day], touched[r.BusinessDate] = true, true
				updated++
			}
			if len(rows) < restampBatchSize {
				break
			}
			lastId = rows[len(rows)-1].ID
		}
	}
	return updated, nil
}

// ListBusinessIds returns every business that has ledger rows. It is not business scoped.
func (s *Store) ListBusinessIds(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	for _, model := range []any{&Customer{}, &Supplier{}, &SalesOrder{}, &PurchaseBill{}, &Payment{}, &DailySummary{}} {
		var ids []string
		if err := s.db.WithContext(ctx).Model(model).Distinct().Pluck("business_id", &ids).Error; err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
