package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/freelance-billing/internal/application/service"
)

func (h *Handlers) RevenueReport(c *gin.Context) {
	summary, err := h.svc.Reports.RevenueSummary(c.Request.Context())
	if err != nil {
		h.fail(c, "build revenue report", err)
		return
	}
	ok(c, summary)
}

func (h *Handlers) AgingReport(c *gin.Context) {
	aging, err := h.svc.Reports.Aging(c.Request.Context())
	if err != nil {
		h.fail(c, "build aging report", err)
		return
	}
	ok(c, aging)
}

func (h *Handlers) OutstandingReport(c *gin.Context) {
	outstanding, err := h.svc.Reports.Outstanding(c.Request.Context())
	if err != nil {
		h.fail(c, "build outstanding report", err)
		return
	}
	ok(c, outstanding)
}

func (h *Handlers) ClientRevenueReport(c *gin.Context) {
	rows, err := h.svc.Reports.ClientRevenue(c.Request.Context())
	if err != nil {
		h.fail(c, "build client revenue report", err)
		return
	}
	ok(c, rows)
}

func (h *Handlers) ProjectReport(c *gin.Context) {
	rows, err := h.svc.Reports.ProjectSummary(c.Request.Context())
	if err != nil {
		h.fail(c, "build project report", err)
		return
	}
	ok(c, rows)
}

func (h *Handlers) TimeReport(c *gin.Context) {
	tracking, err := h.svc.Reports.TimeTracking(c.Request.Context())
	if err != nil {
		h.fail(c, "build time report", err)
		return
	}
	ok(c, tracking)
}

// MonthlyReport handles GET /api/v1/reports/monthly?from=&to=
func (h *Handlers) MonthlyReport(c *gin.Context) {
	from, valid := queryDate(c, "from")
	if !valid {
		return
	}
	to, valid := queryDate(c, "to")
	if !valid {
		return
	}
	months, err := h.svc.Reports.MonthlyRevenue(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, "build monthly report", err)
		return
	}
	ok(c, months)
}

// MonthReport handles GET /api/v1/reports/month?year=&month=
func (h *Handlers) MonthReport(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year <= 0 {
		badRequest(c, "invalid year")
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		badRequest(c, "invalid month")
		return
	}
	rep, err := h.svc.Reports.Month(c.Request.Context(), year, time.Month(month))
	if err != nil {
		h.fail(c, "build month report", err)
		return
	}
	ok(c, rep)
}

func (h *Handlers) StatusReport(c *gin.Context) {
	groups, err := h.svc.Reports.StatusBreakdown(c.Request.Context())
	if err != nil {
		h.fail(c, "build status report", err)
		return
	}
	ok(c, groups)
}

// PaymentReport handles GET /api/v1/reports/payments?from=&to=
func (h *Handlers) PaymentReport(c *gin.Context) {
	from, valid := queryDate(c, "from")
	if !valid {
		return
	}
	to, valid := queryDate(c, "to")
	if !valid {
		return
	}
	summary, err := h.svc.Reports.PaymentSummary(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, "build payment report", err)
		return
	}
	ok(c, summary)
}

// Export handles POST /api/v1/exports/:kind?format=csv
func (h *Handlers) Export(c *gin.Context) {
	kind, err := service.ParseExportKind(c.Param("kind"))
	if err != nil {
		h.fail(c, "export", err)
		return
	}
	format := c.DefaultQuery("format", "csv")
	result, err := h.svc.Exports.Export(c.Request.Context(), kind, format)
	if err != nil {
		h.fail(c, "export "+string(kind), err)
		return
	}
	created(c, result)
}
