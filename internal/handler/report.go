package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/repository"
)

// ReportHandler serves read-only circulation aggregates.  Export
// formatting (spreadsheets, PDFs) is a client concern; this endpoint
// returns plain JSON.
type ReportHandler struct {
	Txns  *repository.TransactionRepo
	Fines *repository.FineRepo
}

func NewReportHandler(txns *repository.TransactionRepo, fines *repository.FineRepo) *ReportHandler {
	if txns == nil || fines == nil {
		panic("nil repository passed to NewReportHandler")
	}
	return &ReportHandler{Txns: txns, Fines: fines}
}

// Circulation handles GET /v1/reports/circulation (ADMIN).
func (h *ReportHandler) Circulation(c echo.Context) error {
	ctx := c.Request().Context()

	loansByStatus, err := h.Txns.CountByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	fineTotals, err := h.Fines.TotalsByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	topGenres, err := h.Txns.TopGenres(ctx, queryInt(c, "top", 10))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	finesByStatus := echo.Map{}
	for _, t := range fineTotals {
		finesByStatus[t.Status] = echo.Map{"count": t.Count, "amount": t.Amount}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"loans_by_status": loansByStatus,
		"fines_by_status": finesByStatus,
		"top_genres":      topGenres,
	})
}
