package models

import (
	"fmt"

	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
)

// DailyCashCacheKey is the Redis key of a cached daily cash report.
func DailyCashCacheKey(businessId string, day ledger.Day) string {
	return fmt.Sprintf("report:daily_cash:%s:%s", businessId, day)
}

func invalidateDailyCash(businessId string, days ...string) {
	keys := make([]string, 0, len(days))
	for _, d := range days {
		if d != "" {
			keys = append(keys, DailyCashCacheKey(businessId, ledger.Day(d)))
		}
	}
	if err := config.RemoveRedisKey(keys...); err != nil {
		config.LogError(config.GetLogger(), "models", "invalidateDailyCash", "remove cache keys", keys, err)
	}
}
