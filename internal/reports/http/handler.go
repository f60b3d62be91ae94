package reportshttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian/internal/ledger"
	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/reports"
)

const dateLayout = "2006-01-02"

type reportService interface {
	Ledger(ctx context.Context, q reports.LedgerQuery) (reports.LedgerVM, error)
	Ageing(ctx context.Context, q reports.AgeingQuery) (reports.AgeingVM, error)
	TrialBalance(ctx context.Context, q reports.RangeQuery) (reports.TrialBalanceVM, error)
	BalanceSheet(ctx context.Context, q reports.AsOfQuery) (reports.BalanceSheetVM, error)
	CashFlow(ctx context.Context, q reports.RangeQuery) (reports.CashFlowVM, error)
}

// Handler wires the JSON report endpoints.
type Handler struct {
	logger    *slog.Logger
	service   reportService
	validate  *validator.Validate
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the report handler.
func NewHandler(logger *slog.Logger, service reportService) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validate:  validator.New(),
		rateLimit: httprate.Limit(60, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/api/reports/ledger", h.handleLedger)
		r.Get("/api/reports/ageing", h.handleAgeing)
		r.Get("/api/reports/trial-balance", h.handleTrialBalance)
		r.Get("/api/reports/balance-sheet", h.handleBalanceSheet)
		r.Get("/api/reports/cash-flow", h.handleCashFlow)
	})
}

type reportQuery struct {
	Company int64  `validate:"required,gt=0"`
	Account int64  `validate:"omitempty,gt=0"`
	From    string `validate:"omitempty,datetime=2006-01-02"`
	To      string `validate:"omitempty,datetime=2006-01-02"`
	AsOf    string `validate:"omitempty,datetime=2006-01-02"`
	Side    string `validate:"omitempty,oneof=receivable payable"`
}

func parseQuery(r *http.Request) reportQuery {
	q := r.URL.Query()
	var dto reportQuery
	dto.Company, _ = strconv.ParseInt(q.Get("company"), 10, 64)
	dto.Account, _ = strconv.ParseInt(q.Get("account"), 10, 64)
	dto.From = q.Get("from")
	dto.To = q.Get("to")
	dto.AsOf = q.Get("as_of")
	dto.Side = q.Get("side")
	return dto
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, s)
	return t
}

func (q reportQuery) side() ledger.AgeingSide {
	switch q.Side {
	case "payable":
		return ledger.AgeingPayable
	case "receivable":
		return ledger.AgeingReceivable
	}
	return ""
}

// respondReportError maps engine errors onto problem responses. Usage errors
// are reported before any computation; anything unexpected surfaces as
// "could not generate report" with the detail logged, not leaked.
func (h *Handler) respondReportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrCompanyRequired),
		errors.Is(err, ledger.ErrAccountRequired),
		errors.Is(err, ledger.ErrInvalidRange):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("report failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Report Failed", "could not generate report")
	}
}

func (h *Handler) validated(w http.ResponseWriter, r *http.Request, requireAccount bool) (reportQuery, bool) {
	dto := parseQuery(r)
	if err := h.validate.Struct(dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return reportQuery{}, false
	}
	if requireAccount && dto.Account == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", ledger.ErrAccountRequired.Error())
		return reportQuery{}, false
	}
	return dto, true
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	dto, ok := h.validated(w, r, true)
	if !ok {
		return
	}
	vm, err := h.service.Ledger(r.Context(), reports.LedgerQuery{
		CompanyID: dto.Company,
		AccountID: dto.Account,
		From:      parseDate(dto.From),
		To:        parseDate(dto.To),
	})
	if err != nil {
		h.respondReportError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

func (h *Handler) handleAgeing(w http.ResponseWriter, r *http.Request) {
	dto, ok := h.validated(w, r, true)
	if !ok {
		return
	}
	vm, err := h.service.Ageing(r.Context(), reports.AgeingQuery{
		CompanyID: dto.Company,
		AccountID: dto.Account,
		Side:      dto.side(),
		AsOf:      parseDate(dto.AsOf),
	})
	if err != nil {
		h.respondReportError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

func (h *Handler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	dto, ok := h.validated(w, r, false)
	if !ok {
		return
	}
	vm, err := h.service.TrialBalance(r.Context(), reports.RangeQuery{
		CompanyID: dto.Company,
		From:      parseDate(dto.From),
		To:        parseDate(dto.To),
	})
	if err != nil {
		h.respondReportError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	dto, ok := h.validated(w, r, false)
	if !ok {
		return
	}
	vm, err := h.service.BalanceSheet(r.Context(), reports.AsOfQuery{
		CompanyID: dto.Company,
		AsOf:      parseDate(dto.AsOf),
	})
	if err != nil {
		h.respondReportError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

func (h *Handler) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	dto, ok := h.validated(w, r, false)
	if !ok {
		return
	}
	vm, err := h.service.CashFlow(r.Context(), reports.RangeQuery{
		CompanyID: dto.Company,
		From:      parseDate(dto.From),
		To:        parseDate(dto.To),
	})
	if err != nil {
		h.respondReportError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}
