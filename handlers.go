package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/shop_ledger/config"
	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/mmdatafocus/shop_ledger/middlewares"
	"github.com/mmdatafocus/shop_ledger/models"
	"github.com/mmdatafocus/shop_ledger/models/reports"
	"github.com/mmdatafocus/shop_ledger/utils"
	"github.com/mmdatafocus/shop_ledger/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ledgerStore is everything the API needs from persistence. *models.Store satisfies it.
type ledgerStore interface {
	reports.Source
	workflow.OpeningBalanceStore
	workflow.OrphanStore
	CreatePartyWithDetails(ctx context.Context, partyType ledger.PartyType, input models.NewParty) (*ledger.Party, error)
}

var _ ledgerStore = (*models.Store)(nil)

type api struct {
	store  func() ledgerStore
	logger *logrus.Logger
	now    func() time.Time
}

func registerRoutes(r gin.IRouter, a *api) {
	v1 := r.Group("/api/v1", middlewares.RequireSession())
	v1.GET("/daily-cash", a.dailyCashHandler)
	v1.PUT("/daily-cash/:date/opening-balance", a.setOpeningBalanceHandler)
	v1.GET("/parties/:type", a.listPartiesHandler)
	v1.POST("/parties/:type", a.createPartyHandler)
	v1.GET("/parties/:type/:id/ledger", a.partyLedgerHandler)
	v1.GET("/outstanding", a.outstandingHandler)
	v1.GET("/integrity/orphans", a.orphansHandler)
	v1.POST("/integrity/orphans/resolve", a.resolveOrphansHandler)
}

// amountInput accepts a JSON number or a formatted string such as "₹1,250.50".
type amountInput struct {
	decimal.Decimal
}

func (a *amountInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	d, err := utils.ParseAmount(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

type openingBalanceRequest struct {
	Amount *amountInput `json:"amount"`
}

type createPartyRequest struct {
	Name           string       `json:"name"`
	Mobile         string       `json:"mobile"`
	Email          string       `json:"email"`
	Gstin          string       `json:"gstin"`
	OpeningBalance *amountInput `json:"opening_balance"`
}

type resolveOrphansRequest struct {
	Apply           bool  `json:"apply"`
	ContinueOnError *bool `json:"continue_on_error"`
}

func parsePartyType(s string) (ledger.PartyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer", "customers":
		return ledger.PartyTypeCustomer, nil
	case "supplier", "suppliers":
		return ledger.PartyTypeSupplier, nil
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnknownPartyType, s)
}

func wantsXlsx(c *gin.Context) bool {
	return strings.EqualFold(c.Query("format"), "xlsx")
}

func (a *api) dailyCashHandler(c *gin.Context) {
	now := a.now()
	day := ledger.DayOf(now, config.BusinessLocation())
	if q := c.Query("date"); q != "" {
		parsed, err := ledger.ParseDay(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_date", "message": err.Error()})
			return
		}
		day = parsed
	}

	report, err := reports.GetDailyCashReport(c.Request.Context(), a.store(), day, now)
	if err != nil {
		a.writeError(c, "dailyCashHandler", err)
		return
	}
	if wantsXlsx(c) {
		f, err := reports.ExportDailyCashExcel(report)
		a.writeWorkbook(c, "dailyCashHandler", fmt.Sprintf("daily_cash_%s.xlsx", day), f, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *api) setOpeningBalanceHandler(c *gin.Context) {
	day, err := ledger.ParseDay(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_date", "message": err.Error()})
		return
	}
	var req openingBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount == nil {
		a.writeError(c, "setOpeningBalanceHandler", bindError(err, "amount is required"))
		return
	}

	actor, _ := utils.GetUsernameFromContext(c.Request.Context())
	summary, err := workflow.SetDailyOpeningBalance(c.Request.Context(), a.store(), a.logger, day, req.Amount.Decimal, actor, a.now())
	if err != nil {
		a.writeError(c, "setOpeningBalanceHandler", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (a *api) listPartiesHandler(c *gin.Context) {
	partyType, err := parsePartyType(c.Param("type"))
	if err != nil {
		a.writeError(c, "listPartiesHandler", err)
		return
	}
	parties, err := a.store().ListParties(c.Request.Context(), partyType)
	if err != nil {
		a.writeError(c, "listPartiesHandler", ledger.Unavailable("parties", err))
		return
	}
	if parties == nil {
		parties = []ledger.Party{}
	}
	c.JSON(http.StatusOK, parties)
}

func (a *api) createPartyHandler(c *gin.Context) {
	partyType, err := parsePartyType(c.Param("type"))
	if err != nil {
		a.writeError(c, "createPartyHandler", err)
		return
	}
	var req createPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeError(c, "createPartyHandler", bindError(err, ""))
		return
	}
	input := models.NewParty{
		Name:   strings.TrimSpace(req.Name),
		Mobile: strings.TrimSpace(req.Mobile),
		Email:  strings.TrimSpace(req.Email),
		Gstin:  strings.ToUpper(strings.TrimSpace(req.Gstin)),
	}
	if req.OpeningBalance != nil {
		input.OpeningBalance = req.OpeningBalance.Decimal
	}

	party, err := a.store().CreatePartyWithDetails(c.Request.Context(), partyType, input)
	if err != nil {
		a.writeError(c, "createPartyHandler", err)
		return
	}
	c.JSON(http.StatusCreated, party)
}

func (a *api) partyLedgerHandler(c *gin.Context) {
	partyType, err := parsePartyType(c.Param("type"))
	if err != nil {
		a.writeError(c, "partyLedgerHandler", err)
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return
	}

	l, err := reports.GetPartyLedgerReport(c.Request.Context(), a.store(), partyType, id)
	if err != nil {
		a.writeError(c, "partyLedgerHandler", err)
		return
	}
	if wantsXlsx(c) {
		f, err := reports.ExportPartyLedgerExcel(l)
		a.writeWorkbook(c, "partyLedgerHandler", fmt.Sprintf("%s_%d_ledger.xlsx", partyType, id), f, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (a *api) outstandingHandler(c *gin.Context) {
	report, err := reports.GetOutstandingReport(c.Request.Context(), a.store(), a.now())
	if err != nil {
		a.writeError(c, "outstandingHandler", err)
		return
	}
	if wantsXlsx(c) {
		f, err := reports.ExportOutstandingExcel(report)
		a.writeWorkbook(c, "outstandingHandler", "outstanding.xlsx", f, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *api) orphansHandler(c *gin.Context) {
	report, err := reports.GetOrphanReport(c.Request.Context(), a.store())
	if err != nil {
		a.writeError(c, "orphansHandler", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *api) resolveOrphansHandler(c *gin.Context) {
	var req resolveOrphansRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			a.writeError(c, "resolveOrphansHandler", bindError(err, ""))
			return
		}
	}
	opts := workflow.OrphanResolutionOptions{
		Apply:  req.Apply,
		Strict: config.StrictPartyMatching(),
	}
	if req.ContinueOnError != nil {
		opts.StopOnError = !*req.ContinueOnError
	}

	result, err := workflow.RunOrphanResolution(c.Request.Context(), a.store(), a.logger, opts)
	if err != nil {
		if result != nil && errors.Is(err, workflow.ErrStoppedOnError) {
			c.JSON(http.StatusConflict, result)
			return
		}
		a.writeError(c, "resolveOrphansHandler", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func bindError(err error, msg string) error {
	if msg == "" && err != nil {
		msg = err.Error()
	}
	return &requestError{msg: msg, err: err}
}

// writeError maps domain errors to HTTP statuses. Unknown errors are logged and reported as 500.
func (a *api) writeError(c *gin.Context, funcName string, err error) {
	var validationErrs validator.ValidationErrors
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, utils.ErrorInvalidAmountStr):
		status, code = http.StatusUnprocessableEntity, "invalid_amount"
	case errors.Is(err, workflow.ErrHistoricalDay):
		status, code = http.StatusUnprocessableEntity, "historical_day"
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": utils.ProcessValidationErrors(err)})
		return
	case errors.Is(err, utils.ErrorInvalidPhone):
		status, code = http.StatusBadRequest, "invalid_phone"
	case errors.Is(err, ledger.ErrDataUnavailable):
		status, code = http.StatusServiceUnavailable, "data_unavailable"
	case errors.Is(err, utils.ErrorRecordNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrUnknownPartyType):
		status, code = http.StatusNotFound, "unknown_party_type"
	case errors.Is(err, models.ErrDuplicateParty),
		errors.Is(err, models.ErrOpeningBalanceAlreadySet),
		errors.Is(err, models.ErrPartyHasTransactions),
		errors.Is(err, ledger.ErrAmbiguousMatch),
		errors.Is(err, ledger.ErrReceiptOverlap),
		errors.Is(err, ledger.ErrConcurrentOpeningBalanceConflict),
		errors.Is(err, utils.ErrorLockNotObtained):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, utils.ErrorMissingBusiness), errors.Is(err, workflow.ErrMissingActor):
		status, code = http.StatusUnauthorized, "unauthorized"
	}
	var reqErr *requestError
	if status == http.StatusInternalServerError && errors.As(err, &reqErr) {
		status, code = http.StatusBadRequest, "invalid_request"
	}

	if status >= http.StatusInternalServerError {
		config.LogError(a.logger, "handlers.go", funcName, code, c.Request.URL.Path, err)
		if status == http.StatusInternalServerError {
			_ = c.Error(err)
		}
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}

func (a *api) writeWorkbook(c *gin.Context, funcName string, filename string, f *excelize.File, err error) {
	if err != nil {
		a.writeError(c, funcName, err)
		return
	}
	defer f.Close()
	data, err := reports.WorkbookBytes(f)
	if err != nil {
		a.writeError(c, funcName, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, utils.XlsxContentType, data)
}
