package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go-pos-billing/internal/models"
	"go-pos-billing/internal/report"
	"go-pos-billing/internal/utils"

	"github.com/gin-gonic/gin"
)

const recentBills = 10

// DailyReport defines the shape of our analytics response
type DailyReport struct {
	Date         string         `json:"date"`
	Summary      report.Summary `json:"summary"`
	TotalDisplay string         `json:"total_display"`
	RecentBills  []models.Bill  `json:"recent_bills"`
	Error        string         `json:"error,omitempty"`
}

// reportDay resolves ?date=YYYY-MM-DD in the store zone, defaulting to today.
func (h *Handler) reportDay(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return h.now(), true
	}
	day, err := time.ParseInLocation("2006-01-02", raw, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be in YYYY-MM-DD format"})
		return time.Time{}, false
	}
	return day, true
}

// --- GET: /api/reports/daily ---
func (h *Handler) GetDailyReport(c *gin.Context) {
	day, ok := h.reportDay(c)
	if !ok {
		return
	}
	from, to := report.DayRange(day, h.loc)

	data := DailyReport{Date: from.Format("2006-01-02"), RecentBills: []models.Bill{}}
	bills, err := h.store.ListBillsBetween(c.Request.Context(), from, to)
	if msg, ok := readFailed(err); ok {
		data.Error = msg
		bills = nil
	} else if err != nil {
		h.fail(c, "GetDailyReport", err)
		return
	}

	data.Summary = report.Summarize(bills)
	data.TotalDisplay = utils.FormatINR(data.Summary.Total)
	if len(bills) > 0 {
		data.RecentBills = report.Recent(bills, recentBills)
	}
	c.JSON(http.StatusOK, data)
}

// --- GET: /api/reports/daily/export ---
func (h *Handler) ExportDailyReport(c *gin.Context) {
	day, ok := h.reportDay(c)
	if !ok {
		return
	}
	from, to := report.DayRange(day, h.loc)

	bills, err := h.store.ListBillsBetween(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, "ExportDailyReport", err)
		return
	}

	buf, err := report.ExportDaily(from, report.Summarize(bills), bills, h.loc)
	if err != nil {
		h.fail(c, "ExportDailyReport", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="daily-%s.xlsx"`, from.Format("2006-01-02")))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
