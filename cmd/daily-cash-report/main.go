package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/mmdatafocus/shop_ledger/models"
	"github.com/mmdatafocus/shop_ledger/models/reports"
	"github.com/mmdatafocus/shop_ledger/utils"
)

func main() {
	businessID := flag.String("business-id", "", "Business to report on (required).")
	date := flag.String("date", "", "Business day (YYYY-MM-DD). Defaults to today in BUSINESS_TIMEZONE.")
	xlsx := flag.String("xlsx", "", "Optional: write a workbook to this path instead of printing JSON.")
	flag.Parse()

	bid := strings.TrimSpace(*businessID)
	if bid == "" {
		fmt.Fprintln(os.Stderr, "-business-id is required")
		os.Exit(2)
	}
	now := time.Now()
	day := ledger.DayOf(now, config.BusinessLocation())
	if strings.TrimSpace(*date) != "" {
		d, err := ledger.ParseDay(*date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -date: %v\n", err)
			os.Exit(2)
		}
		day = d
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	ctx, _ := utils.EnsureCorrelationId(utils.SetBusinessIdInContext(context.Background(), bid))
	report, err := reports.GetDailyCashReport(ctx, models.NewStore(db), day, now)
	if err != nil {
		if errors.Is(err, ledger.ErrDataUnavailable) {
			fmt.Fprintf(os.Stderr, "daily cash for %s is unavailable: %v\n", day, err)
			os.Exit(3)
		}
		fmt.Fprintf(os.Stderr, "daily cash for %s failed: %v\n", day, err)
		os.Exit(1)
	}

	if path := strings.TrimSpace(*xlsx); path != "" {
		f, err := reports.ExportDailyCashExcel(report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "export: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := f.SaveAs(path); err != nil {
			fmt.Fprintf(os.Stderr, "save %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
