package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/api/middleware"
	"jobtracker/internal/dashboard"
	"jobtracker/internal/jobs"
)

type DashboardHandler struct {
	aggregator *dashboard.Aggregator
}

func NewDashboardHandler(aggregator *dashboard.Aggregator) *DashboardHandler {
	return &DashboardHandler{aggregator: aggregator}
}

type deadlineResponse struct {
	JobID         uint   `json:"job_id"`
	Title         string `json:"title"`
	Company       string `json:"company"`
	DeadlineDate  string `json:"deadline_date"`
	DaysRemaining int    `json:"days_remaining"`
}

type activityResponse struct {
	JobID     uint   `json:"job_id"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
	Type      string `json:"type"`
}

// GetStats 返回仪表盘统计。月度统计失败时 monthly_stats 为 {"error": ...}，其余部分照常返回。
func (h *DashboardHandler) GetStats(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	logger := middleware.LoggerFromContext(c)
	stats, err := h.aggregator.Compute(c.Request.Context(), userID)
	if err != nil {
		logger.Error("compute dashboard failed", slog.Any("error", err))
		Fail(c, err)
		return
	}

	body := gin.H{"total_jobs": stats.Total}
	for _, s := range jobs.Statuses {
		body[string(s)] = stats.Counts[s]
	}

	deadlines := make([]deadlineResponse, 0, len(stats.Upcoming))
	for _, d := range stats.Upcoming {
		deadlines = append(deadlines, deadlineResponse{
			JobID:         d.Job.ID,
			Title:         d.Job.Title,
			Company:       d.Job.Company,
			DeadlineDate:  jobs.FormatDate(*d.Job.DeadlineDate),
			DaysRemaining: d.DaysRemaining,
		})
	}
	body["upcoming_deadlines"] = deadlines

	if stats.MonthlyErr != nil {
		logger.Warn("monthly stats unavailable", slog.Any("error", stats.MonthlyErr))
		body["monthly_stats"] = gin.H{"error": stats.MonthlyErr.Error()}
	} else {
		body["monthly_stats"] = stats.Monthly
	}

	activity := make([]activityResponse, 0, len(stats.Recent))
	for _, a := range stats.Recent {
		activity = append(activity, activityResponse{
			JobID:     a.Job.ID,
			Title:     a.Job.Title,
			Company:   a.Job.Company,
			Status:    a.Job.Status,
			UpdatedAt: formatTimestamp(a.Job.UpdatedAt),
			Type:      a.Type,
		})
	}
	body["recent_activity"] = activity

	OK(c, http.StatusOK, gin.H{"stats": body})
}
