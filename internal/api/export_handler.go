package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jobtracker/internal/api/middleware"
	"jobtracker/internal/database"
	"jobtracker/internal/errcode"
	"jobtracker/internal/jobs"
	"jobtracker/internal/metrics"
)

// ExportStorage 是导出功能依赖的对象存储能力，由 storage.Client 实现。
type ExportStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeletePrefix(ctx context.Context, prefix string, keep ...string) error
}

var exportHeader = []string{
	"job_id", "title", "company", "status",
	"application_date", "deadline_date", "notes",
	"created_at", "updated_at",
}

// ExportHandler 将调用方的全部记录导出为 CSV 并返回限时下载链接。
// 每个用户只保留最近一次导出：新文件上传并签名成功后才清理旧文件。
type ExportHandler struct {
	repo    *jobs.Repository
	storage ExportStorage
	urlTTL  time.Duration
	now     func() time.Time
}

func NewExportHandler(repo *jobs.Repository, storage ExportStorage, urlTTL time.Duration) *ExportHandler {
	return &ExportHandler{repo: repo, storage: storage, urlTTL: urlTTL, now: time.Now}
}

// ExportPrefix 返回用户导出文件所在的对象前缀。
func ExportPrefix(userID uint) string {
	return "exports/" + strconv.FormatUint(uint64(userID), 10) + "/"
}

func (h *ExportHandler) CreateExport(c *gin.Context) {
	userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	list, err := h.repo.List(ctx, userID, jobs.ListFilter{})
	if err != nil {
		logger.Error("export: list jobs failed", slog.Any("error", err))
		metrics.ObserveExport(false)
		Fail(c, err)
		return
	}

	data, err := renderJobsCSV(list)
	if err != nil {
		metrics.ObserveExport(false)
		Fail(c, errcode.Wrap(errcode.Internal, "Error exporting jobs", err))
		return
	}

	prefix := ExportPrefix(userID)
	objectKey := fmt.Sprintf("%sjobs-%s-%s.csv", prefix, h.now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
	if err := h.storage.UploadFile(ctx, objectKey, bytes.NewReader(data), int64(len(data)), "text/csv"); err != nil {
		logger.Error("export: upload failed", slog.Any("error", err))
		metrics.ObserveExport(false)
		Fail(c, errcode.Wrap(errcode.Internal, "Error exporting jobs", err))
		return
	}

	url, err := h.storage.GeneratePresignedURL(ctx, objectKey, h.urlTTL)
	if err != nil {
		logger.Error("export: presign failed", slog.Any("error", err))
		metrics.ObserveExport(false)
		Fail(c, errcode.Wrap(errcode.Internal, "Error exporting jobs", err))
		return
	}

	if err := h.storage.DeletePrefix(ctx, prefix, objectKey); err != nil {
		logger.Warn("export: remove previous export failed", slog.Any("error", err))
	}

	metrics.ObserveExport(true)
	logger.Info("jobs exported", slog.String("object_key", objectKey), slog.Int("rows", len(list)))
	OK(c, http.StatusCreated, gin.H{
		"url":        url,
		"expires_in": int(h.urlTTL.Seconds()),
		"count":      len(list),
	})
}

func renderJobsCSV(list []database.Job) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, job := range list {
		r := newJobResponse(job)
		deadline, notes := "", ""
		if r.DeadlineDate != nil {
			deadline = *r.DeadlineDate
		}
		if r.Notes != nil {
			notes = *r.Notes
		}
		if err := w.Write([]string{
			strconv.FormatUint(uint64(r.JobID), 10),
			r.Title,
			r.Company,
			r.Status,
			r.ApplicationDate,
			deadline,
			notes,
			r.CreatedAt,
			r.UpdatedAt,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
