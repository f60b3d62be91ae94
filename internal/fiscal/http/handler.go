package fiscalhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian/internal/fiscal"
	"github.com/meridian-erp/meridian/internal/ledger"
	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/shared"
)

// confirmPhrase must accompany a close request. Closing a year is
// irreversible, so the confirmation requirement lives here in the calling
// layer, not in the engine.
const confirmPhrase = "CLOSE"

type fiscalService interface {
	ListYears(ctx context.Context, companyID int64) ([]ledger.FinancialYear, error)
	CloseYear(ctx context.Context, in fiscal.CloseYearInput) (ledger.Voucher, error)
}

// Invalidator drops cached reports after a successful close.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Handler wires the financial year endpoints.
type Handler struct {
	logger     *slog.Logger
	service    fiscalService
	invalidate Invalidator
}

// NewHandler constructs the fiscal handler. invalidate may be nil.
func NewHandler(logger *slog.Logger, service fiscalService, invalidate Invalidator) *Handler {
	return &Handler{logger: logger, service: service, invalidate: invalidate}
}

// MountRoutes registers fiscal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/fiscal/years", h.handleListYears)
	r.Post("/api/fiscal/years/{id}/close", h.handleCloseYear)
}

type yearVM struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Status    string `json:"status"`
	ClosedAt  string `json:"closedAt,omitempty"`
}

func (h *Handler) handleListYears(w http.ResponseWriter, r *http.Request) {
	companyID, _ := strconv.ParseInt(r.URL.Query().Get("company"), 10, 64)
	if companyID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", ledger.ErrCompanyRequired.Error())
		return
	}
	years, err := h.service.ListYears(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list years", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]yearVM, 0, len(years))
	for _, y := range years {
		vm := yearVM{
			ID:        y.ID,
			Name:      y.Name,
			StartDate: y.StartDate.Format("2006-01-02"),
			EndDate:   y.EndDate.Format("2006-01-02"),
			Status:    string(y.Status),
		}
		if y.ClosedAt != nil {
			vm.ClosedAt = y.ClosedAt.Format(time.RFC3339)
		}
		out = append(out, vm)
	}
	httpx.JSON(w, http.StatusOK, out)
}

type closeYearDTO struct {
	CompanyID int64  `json:"companyId"`
	ActorID   int64  `json:"actorId"`
	CloseDate string `json:"closeDate"`
	Confirm   string `json:"confirm"`
}

type closeYearVM struct {
	YearID     int64  `json:"yearId"`
	VoucherRef string `json:"voucherRef,omitempty"`
	Status     string `json:"status"`
}

func (h *Handler) handleCloseYear(w http.ResponseWriter, r *http.Request) {
	yearID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || yearID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid year id")
		return
	}
	var dto closeYearDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed request body")
		return
	}
	if dto.Confirm != confirmPhrase {
		httpx.Problem(w, http.StatusBadRequest, "Confirmation Required",
			"closing a financial year is irreversible; send confirm="+confirmPhrase)
		return
	}
	var closeDate time.Time
	if dto.CloseDate != "" {
		closeDate, err = time.Parse("2006-01-02", dto.CloseDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed close date")
			return
		}
	}

	ctx := shared.ContextWithCompany(r.Context(), dto.CompanyID)
	voucher, err := h.service.CloseYear(ctx, fiscal.CloseYearInput{
		CompanyID: dto.CompanyID,
		YearID:    yearID,
		ActorID:   dto.ActorID,
		CloseDate: closeDate,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if h.invalidate != nil {
		if err := h.invalidate.Bump(ctx); err != nil {
			h.logger.Warn("report cache bump", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, closeYearVM{
		YearID:     yearID,
		VoucherRef: voucher.Ref,
		Status:     string(ledger.YearStatusClosed),
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrYearClosed):
		httpx.Problem(w, http.StatusConflict, "Already Closed", err.Error())
	case errors.Is(err, ledger.ErrYearNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, fiscal.ErrNoCapitalAccount),
		errors.Is(err, fiscal.ErrCloseDateOutsideYear):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Cannot Close", err.Error())
	default:
		h.logger.Error("close year", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
