package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/models"
	"github.com/mmdatafocus/shop_ledger/utils"
	"github.com/mmdatafocus/shop_ledger/workflow"
)

func main() {
	businessID := flag.String("business-id", "", "Business to repair (required).")
	apply := flag.Bool("apply", false, "Write links and new parties. Without it the run is a dry run.")
	continueOnError := flag.Bool("continue-on-error", true, "Skip orphans that fail and keep going.")
	strict := flag.Bool("strict", config.StrictPartyMatching(), "Refuse ambiguous matches instead of taking the first candidate.")
	flag.Parse()

	bid := strings.TrimSpace(*businessID)
	if bid == "" {
		fmt.Fprintln(os.Stderr, "-business-id is required")
		os.Exit(2)
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

	ctx := utils.SetBusinessIdInContext(context.Background(), bid)
	ctx = utils.SetUsernameInContext(ctx, "OrphanRepair")

	result, err := workflow.RunOrphanResolution(ctx, models.NewStore(db), config.GetLogger(), workflow.OrphanResolutionOptions{
		Apply:       *apply,
		Strict:      *strict,
		StopOnError: !*continueOnError,
	})
	if result != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		mode := "dry run"
		if !result.DryRun {
			mode = "applied"
		}
		fmt.Fprintf(os.Stderr, "%s: orphans=%d linked=%d created=%d failed=%d unnamed=%d correlation_id=%s\n",
			mode, result.Orphans, result.Linked, result.Created, result.Failed, result.Unnamed, result.CorrelationId)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "orphan repair failed: %v\n", err)
		os.Exit(1)
	}
	if result.Failed > 0 {
		os.Exit(3)
	}
}
