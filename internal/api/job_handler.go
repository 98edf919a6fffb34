package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/api/middleware"
	"jobtracker/internal/database"
	"jobtracker/internal/errcode"
	"jobtracker/internal/jobs"
	"jobtracker/internal/metrics"
)

// JobHandler 暴露求职记录的 CRUD 接口，所有操作都限定在调用方自己的记录内。
type JobHandler struct {
	repo *jobs.Repository
}

func NewJobHandler(repo *jobs.Repository) *JobHandler {
	return &JobHandler{repo: repo}
}

type jobResponse struct {
	JobID           uint    `json:"job_id"`
	Title           string  `json:"title"`
	Company         string  `json:"company"`
	Status          string  `json:"status"`
	ApplicationDate string  `json:"application_date"`
	DeadlineDate    *string `json:"deadline_date"`
	Notes           *string `json:"notes"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func newJobResponse(job database.Job) jobResponse {
	return jobResponse{
		JobID:           job.ID,
		Title:           job.Title,
		Company:         job.Company,
		Status:          job.Status,
		ApplicationDate: jobs.FormatDate(job.ApplicationDate),
		DeadlineDate:    jobs.FormatDatePtr(job.DeadlineDate),
		Notes:           job.Notes,
		CreatedAt:       formatTimestamp(job.CreatedAt),
		UpdatedAt:       formatTimestamp(job.UpdatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ListJobs 支持 status、search、limit 三个查询参数；非法 limit 被忽略。
func (h *JobHandler) ListJobs(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	filter := jobs.ListFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}

	list, err := h.repo.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]jobResponse, 0, len(list))
	for _, job := range list {
		out = append(out, newJobResponse(job))
	}
	OK(c, http.StatusOK, gin.H{"jobs": out})
}

func (h *JobHandler) GetJob(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	job, err := h.repo.Get(c.Request.Context(), userID, jobID)
	if err != nil {
		h.fail(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{"job": newJobResponse(*job)})
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	var in jobs.CreateInput
	if !bindJSON(c, &in) {
		return
	}

	job, err := h.repo.Create(c.Request.Context(), userID, in)
	if err != nil {
		h.fail(c, err)
		return
	}

	metrics.ObserveJobMutation("create")
	middleware.LoggerFromContext(c).Info("job created", slog.Uint64("job_id", uint64(job.ID)))
	OK(c, http.StatusCreated, gin.H{"job": newJobResponse(*job)})
}

// UpdateJob 只修改请求体中出现的字段；deadline_date 为 null 或空串时清除。
func (h *JobHandler) UpdateJob(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	var in jobs.UpdateInput
	if !bindJSON(c, &in) {
		return
	}

	job, err := h.repo.Update(c.Request.Context(), userID, jobID, in)
	if err != nil {
		h.fail(c, err)
		return
	}

	metrics.ObserveJobMutation("update")
	OK(c, http.StatusOK, gin.H{"job": newJobResponse(*job)})
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), userID, jobID); err != nil {
		h.fail(c, err)
		return
	}

	metrics.ObserveJobMutation("delete")
	middleware.LoggerFromContext(c).Info("job deleted", slog.Uint64("job_id", uint64(jobID)))
	OK(c, http.StatusOK, gin.H{"message": "Job deleted successfully"})
}

func (h *JobHandler) fail(c *gin.Context, err error) {
	if errcode.Has(err, errcode.Internal) {
		middleware.LoggerFromContext(c).Error("job request failed", slog.Any("error", err))
	}
	Fail(c, err)
}
