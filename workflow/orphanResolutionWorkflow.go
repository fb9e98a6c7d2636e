package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/mmdatafocus/shop_ledger/models"
	"github.com/mmdatafocus/shop_ledger/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// ErrStoppedOnError is returned when StopOnError ends a run early; the result still carries
// the outcomes applied before the failure.
var ErrStoppedOnError = errors.New("orphan resolution stopped on error")

type OrphanStore interface {
	ListUnlinkedTransactions(ctx context.Context) ([]ledger.Transaction, error)
	ListParties(ctx context.Context, partyType ledger.PartyType) ([]ledger.Party, error)
	CreateParty(ctx context.Context, draft ledger.PartyDraft) (*ledger.Party, error)
	UpdateTransactionPartyId(ctx context.Context, ref ledger.TransactionRef, partyId int) error
	SaveReconciliationReports(ctx context.Context, rows []models.ReconciliationReport) error
}

type OrphanResolutionOptions struct {
	// Apply writes links and new parties; the zero value is a dry run.
	Apply bool
	// Strict refuses ambiguous matches instead of taking the first candidate.
	Strict bool
	// StopOnError aborts at the first failed orphan. Already applied rows stay applied.
	StopOnError bool
}

type OrphanOutcome struct {
	Resolution *ledger.Resolution `json:"resolution,omitempty"`
	// Transaction is set even when no resolution could be produced.
	Transaction ledger.TransactionRef `json:"transaction"`
	PartyId     int                   `json:"party_id,omitempty"`
	Applied     bool                  `json:"applied"`
	Error       string                `json:"error,omitempty"`
}

type OrphanResolutionResult struct {
	DryRun        bool            `json:"dry_run"`
	CorrelationId string          `json:"correlation_id"`
	Scanned       int             `json:"scanned"`
	Orphans       int             `json:"orphans"`
	Unnamed       int             `json:"unnamed"`
	Linked        int             `json:"linked"`
	Created       int             `json:"created"`
	Failed        int             `json:"failed"`
	Outcomes      []OrphanOutcome `json:"outcomes"`
}

// RunOrphanResolution links every orphaned transaction to a party, creating parties where no
// rule matches. Orphans are applied one at a time; a party created for one orphan is a match
// candidate for the next, so a repeated name yields a single party.
func RunOrphanResolution(ctx context.Context, store OrphanStore, logger *logrus.Logger, opts OrphanResolutionOptions) (result *OrphanResolutionResult, err error) {
	ctx, cid := utils.EnsureCorrelationId(ctx)
	ctx, span := tracer.Start(ctx, "workflow.RunOrphanResolution")
	span.SetAttributes(attribute.Bool("apply", opts.Apply), attribute.String("correlation_id", cid))
	defer func() { endSpan(span, err) }()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.ErrorMissingBusiness
	}

	result = &OrphanResolutionResult{DryRun: !opts.Apply, CorrelationId: cid, Outcomes: []OrphanOutcome{}}
	run := func() error {
		return resolveOrphans(ctx, store, logger, businessId, opts, result)
	}
	if opts.Apply {
		err = utils.WithBusinessLock(ctx, businessId, "orphan_resolution", "orphanResolutionWorkflow.go", "RunOrphanResolution", run)
	} else {
		err = run()
	}

	logger.WithFields(logrus.Fields{
		"business_id":    businessId,
		"correlation_id": cid,
		"dry_run":        result.DryRun,
		"orphans":        result.Orphans,
		"linked":         result.Linked,
		"created":        result.Created,
		"failed":         result.Failed,
	}).Info("orphan resolution finished")
	return result, err
}

func resolveOrphans(ctx context.Context, store OrphanStore, logger *logrus.Logger, businessId string, opts OrphanResolutionOptions, result *OrphanResolutionResult) error {
	txns, err := store.ListUnlinkedTransactions(ctx)
	if err != nil {
		return ledger.Unavailable("transactions", err)
	}
	report := ledger.FindOrphans(txns)
	result.Scanned = report.Scanned
	result.Unnamed = report.Unnamed
	result.Orphans = report.Counts.Total
	if report.Reconciled() {
		return nil
	}

	candidates := map[ledger.PartyType][]ledger.Party{}
	for _, partyType := range []ledger.PartyType{ledger.PartyTypeCustomer, ledger.PartyTypeSupplier} {
		parties, err := store.ListParties(ctx, partyType)
		if err != nil {
			return ledger.Unavailable("parties", err)
		}
		candidates[partyType] = parties
	}

	var matchOpts []ledger.MatchOption
	if opts.Strict {
		matchOpts = append(matchOpts, ledger.WithStrictMatching())
	}

	var failures []models.ReconciliationReport
	defer func() {
		if !opts.Apply || len(failures) == 0 {
			return
		}
		if err := store.SaveReconciliationReports(ctx, failures); err != nil {
			config.LogError(logger, "orphanResolutionWorkflow.go", "RunOrphanResolution", "SaveReconciliationReports", len(failures), err)
		}
	}()

	for _, t := range report.Orphans() {
		outcome, err := resolveOne(ctx, store, businessId, t, candidates, opts, matchOpts)
		if err != nil {
			result.Failed++
			outcome.Error = err.Error()
			result.Outcomes = append(result.Outcomes, outcome)
			config.LogError(logger, "orphanResolutionWorkflow.go", "RunOrphanResolution", "resolve orphan", t.Ref().String(), err)
			failures = append(failures, models.ReconciliationReport{
				CheckType:     models.CheckTypeOrphanResolution,
				EntityType:    string(t.Kind),
				EntityId:      t.ID,
				Details:       err.Error(),
				CorrelationId: result.CorrelationId,
			})
			if opts.StopOnError {
				return fmt.Errorf("%w at %s: %w", ErrStoppedOnError, t.Ref(), err)
			}
			continue
		}
		switch outcome.Resolution.Action {
		case ledger.ResolutionActionLink:
			result.Linked++
		case ledger.ResolutionActionCreate:
			result.Created++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return nil
}

func resolveOne(ctx context.Context, store OrphanStore, businessId string, t ledger.Transaction, candidates map[ledger.PartyType][]ledger.Party, opts OrphanResolutionOptions, matchOpts []ledger.MatchOption) (OrphanOutcome, error) {
	outcome := OrphanOutcome{Transaction: t.Ref()}
	res, err := ledger.ResolveOrphan(t, candidates[t.PartyType], matchOpts...)
	if err != nil {
		return outcome, err
	}
	outcome.Resolution = res

	var partyId int
	switch res.Action {
	case ledger.ResolutionActionLink:
		partyId = res.Party.ID
	case ledger.ResolutionActionCreate:
		if !opts.Apply {
			// a dry run still treats the proposed party as a candidate for later orphans
			candidates[t.PartyType] = append(candidates[t.PartyType], ledger.Party{Type: res.Draft.Type, Name: res.Draft.Name, Mobile: res.Draft.Mobile})
			return outcome, nil
		}
		party, err := store.CreateParty(ctx, *res.Draft)
		if err != nil {
			return outcome, fmt.Errorf("create party %q: %w", res.Draft.Name, err)
		}
		candidates[t.PartyType] = append(candidates[t.PartyType], *party)
		partyId = party.ID
		publish(ctx, ledgerEvent(ctx, businessId, config.LedgerEventPartyCreated, string(party.Type), party.ID), "RunOrphanResolution")
	}
	outcome.PartyId = partyId
	if !opts.Apply {
		return outcome, nil
	}

	if err := store.UpdateTransactionPartyId(ctx, t.Ref(), partyId); err != nil {
		return outcome, fmt.Errorf("link to party %d: %w", partyId, err)
	}
	outcome.Applied = true
	publish(ctx, ledgerEvent(ctx, businessId, config.LedgerEventOrphanLinked, string(t.Kind), t.ID), "RunOrphanResolution")
	return outcome, nil
}

func ledgerEvent(ctx context.Context, businessId string, action string, refType string, refId int) config.LedgerEvent {
	actor, _ := utils.GetUsernameFromContext(ctx)
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	return config.LedgerEvent{
		ID:            uuid.NewString(),
		BusinessId:    businessId,
		Action:        action,
		ReferenceType: refType,
		ReferenceId:   refId,
		Actor:         actor,
		OccurredAt:    time.Now(),
		CorrelationId: cid,
	}
}
