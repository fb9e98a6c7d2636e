package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/mmdatafocus/shop_ledger/models"
	"github.com/mmdatafocus/shop_ledger/models/reports"
	"github.com/mmdatafocus/shop_ledger/utils"
	"github.com/xuri/excelize/v2"
)

func main() {
	businessID := flag.String("business-id", "", "Business to export (required).")
	partyType := flag.String("party-type", "", "customer or supplier. Omit to export the outstanding summary.")
	partyID := flag.Int("party-id", 0, "Party id; required with -party-type.")
	out := flag.String("out", "", "Output path. Defaults to a generated file name in the working directory.")
	upload := flag.Bool("upload", false, "Also upload the workbook to GCS_BUCKET.")
	force := flag.Bool("force", false, "Overwrite an existing object in GCS.")
	flag.Parse()

	bid := strings.TrimSpace(*businessID)
	if bid == "" {
		fmt.Fprintln(os.Stderr, "-business-id is required")
		os.Exit(2)
	}
	pt := ledger.PartyType(strings.ToLower(strings.TrimSpace(*partyType)))
	if pt != "" && (!pt.IsParty() || *partyID <= 0) {
		fmt.Fprintln(os.Stderr, "-party-type must be customer or supplier and needs a positive -party-id")
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	ctx, _ := utils.EnsureCorrelationId(utils.SetBusinessIdInContext(context.Background(), bid))
	store := models.NewStore(db)
	now := time.Now()
	stamp := ledger.DayOf(now, config.BusinessLocation())

	var (
		f    *excelize.File
		name string
		err  error
	)
	if pt == "" {
		var report *reports.OutstandingReport
		report, err = reports.GetOutstandingReport(ctx, store, now)
		if err == nil {
			f, err = reports.ExportOutstandingExcel(report)
		}
		name = fmt.Sprintf("outstanding_%s.xlsx", stamp)
	} else {
		var l *ledger.Ledger
		l, err = reports.GetPartyLedgerReport(ctx, store, pt, *partyID)
		if err == nil {
			f, err = reports.ExportPartyLedgerExcel(l)
		}
		name = fmt.Sprintf("%s_%d_ledger_%s.xlsx", pt, *partyID, stamp)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	path := strings.TrimSpace(*out)
	if path == "" {
		path = name
	}
	if err := f.SaveAs(path); err != nil {
		fmt.Fprintf(os.Stderr, "save %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)

	if !*upload {
		return
	}
	data, err := reports.WorkbookBytes(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode workbook: %v\n", err)
		os.Exit(1)
	}
	objectName := fmt.Sprintf("exports/%s/%s", bid, filepath.Base(path))
	if !*force {
		exists, err := utils.ObjectExistsInGCS(ctx, objectName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "check %s: %v\n", objectName, err)
			os.Exit(1)
		}
		if exists {
			fmt.Fprintf(os.Stderr, "%s already exists; pass -force to overwrite\n", objectName)
			os.Exit(1)
		}
	}
	uri, err := utils.UploadBytesToGCS(ctx, objectName, data, utils.XlsxContentType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "upload: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Uploaded %s\n", uri)
}
