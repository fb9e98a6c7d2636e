package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/models"
	"github.com/mmdatafocus/shop_ledger/utils"
)

func main() {
	businessID := flag.String("business-id", "", "Optional: restamp only one business. If empty, restamps all businesses.")
	timezone := flag.String("timezone", "", "Optional: IANA timezone to stamp with. Defaults to BUSINESS_TIMEZONE.")
	flag.Parse()

	loc := config.BusinessLocation()
	if tz := strings.TrimSpace(*timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -timezone %q: %v\n", tz, err)
			os.Exit(2)
		}
		loc = l
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	ctx := utils.SetUsernameInContext(context.Background(), "BackfillBusinessDates")
	store := models.NewStore(db)

	businesses := []string{strings.TrimSpace(*businessID)}
	if businesses[0] == "" {
		ids, err := store.ListBusinessIds(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list businesses: %v\n", err)
			os.Exit(1)
		}
		businesses = ids
	}
	if len(businesses) == 0 {
		fmt.Fprintln(os.Stderr, "no businesses found to backfill")
		return
	}

	failed := 0
	for _, bid := range businesses {
		fmt.Printf("Restamping business_date business=%s timezone=%s\n", bid, loc)
		n, err := store.RestampBusinessDates(utils.SetBusinessIdInContext(ctx, bid), loc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "business %s backfill failed after %d rows: %v\n", bid, n, err)
			failed++
			continue
		}
		fmt.Printf("business %s: %d rows moved\n", bid, n)
	}

	if failed > 0 {
		os.Exit(1)
	}
	fmt.Println("Backfill complete")
}
