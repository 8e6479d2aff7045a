package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"regportal/internal/auth"
	"regportal/internal/report"
)

// dashboard loads every record on each request. There is no pagination.
func (h *Handler) dashboard(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	recs, err := h.svc.List(ctx)
	if err != nil {
		h.internalError(c, "dashboard.load_failed", err)
		return
	}
	summary := report.Summarize(recs)

	if auth.WantsJSON(c) {
		h.observeDashboard(start, summary.Total)
		c.JSON(http.StatusOK, summary)
		return
	}

	uri, err := h.charts.DataURI(summary.Courses)
	if err != nil {
		h.log.WarnContext(ctx, "dashboard.chart_failed", slog.String("error", err.Error()))
		uri = ""
	}
	h.observeDashboard(start, summary.Total)
	c.HTML(http.StatusOK, "dashboard.html", report.BuildDashboard(summary, uri))
}

func (h *Handler) observeDashboard(start time.Time, total int) {
	if h.metrics == nil {
		return
	}
	h.metrics.DashboardRender.Observe(time.Since(start).Seconds())
	h.metrics.StoredRecords.Set(float64(total))
}
