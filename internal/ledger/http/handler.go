package ledgerhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/ledger"
	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/shared"
)

type ledgerService interface {
	PostVoucher(ctx context.Context, in ledger.PostVoucherInput) (ledger.Voucher, error)
}

// Invalidator drops cached reports after a successful write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Handler wires the voucher write endpoint.
type Handler struct {
	logger     *slog.Logger
	service    ledgerService
	invalidate Invalidator
	validate   *validator.Validate
}

// NewHandler constructs the ledger handler. invalidate may be nil.
func NewHandler(logger *slog.Logger, service ledgerService, invalidate Invalidator) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		invalidate: invalidate,
		validate:   validator.New(),
	}
}

// MountRoutes registers voucher routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/api/vouchers", h.handlePostVoucher)
}

type voucherEntryDTO struct {
	AccountID int64  `json:"accountId" validate:"required,gt=0"`
	Amount    string `json:"amount" validate:"required"`
	Narration string `json:"narration"`
}

type postVoucherDTO struct {
	CompanyID int64             `json:"companyId" validate:"required,gt=0"`
	Type      string            `json:"type" validate:"required,oneof=CPV CRV CONTRA JOURNAL EXPENSE"`
	Date      string            `json:"date" validate:"required,datetime=2006-01-02"`
	Narration string            `json:"narration"`
	CreatedBy int64             `json:"createdBy" validate:"required,gt=0"`
	Entries   []voucherEntryDTO `json:"entries" validate:"required,min=2,dive"`
}

type voucherCreatedVM struct {
	ID     int64  `json:"id"`
	Ref    string `json:"ref"`
	Number int64  `json:"number"`
	Type   string `json:"type"`
	Date   string `json:"date"`
}

func (h *Handler) handlePostVoucher(w http.ResponseWriter, r *http.Request) {
	var dto postVoucherDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed request body")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", dto.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed date")
		return
	}
	input := ledger.PostVoucherInput{
		CompanyID: dto.CompanyID,
		Type:      ledger.VoucherType(dto.Type),
		Date:      date,
		Narration: dto.Narration,
		CreatedBy: dto.CreatedBy,
	}
	for _, entry := range dto.Entries {
		amount, err := decimal.NewFromString(entry.Amount)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed entry amount")
			return
		}
		input.Entries = append(input.Entries, ledger.EntryInput{
			AccountID: entry.AccountID,
			Amount:    amount,
			Narration: entry.Narration,
		})
	}

	ctx := shared.ContextWithCompany(r.Context(), dto.CompanyID)
	voucher, err := h.service.PostVoucher(ctx, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if h.invalidate != nil {
		if err := h.invalidate.Bump(ctx); err != nil {
			h.logger.Warn("report cache bump", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusCreated, voucherCreatedVM{
		ID:     voucher.ID,
		Ref:    voucher.Ref,
		Number: voucher.Number,
		Type:   string(voucher.Type),
		Date:   voucher.Date.Format("2006-01-02"),
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrCompanyRequired),
		errors.Is(err, ledger.ErrTooFewEntries),
		errors.Is(err, ledger.ErrUnbalanced),
		errors.Is(err, ledger.ErrZeroAmountEntry):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ledger.ErrYearNotFound):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Period", err.Error())
	case errors.Is(err, ledger.ErrYearClosed):
		httpx.Problem(w, http.StatusConflict, "Year Closed", err.Error())
	default:
		h.logger.Error("post voucher", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
