package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobtracker/internal/database"
	"jobtracker/internal/errcode"
)

var errJobNotFound = errcode.New(errcode.NotFound, "Job not found")

// Repository 负责求职记录的增删改查。所有方法都以调用方的 userID 为作用域，
// 找不到 (jobID, userID) 组合时统一返回 NotFound，不区分"不存在"和"属于他人"。
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository 构造 Repository。
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// WithClock 返回使用指定时间源的副本。
func (r *Repository) WithClock(now func() time.Time) *Repository {
	cp := *r
	cp.now = now
	return &cp
}

// ListFilter 描述列表查询条件，零值表示不过滤。
type ListFilter struct {
	// Status 为空或 "all" 时不过滤。
	Status string
	// Search 对 title 与 company 做区分大小写的子串匹配。
	Search string
	// Limit 仅在为正数时生效。
	Limit int
}

// CreateInput 是创建记录的参数，nil 表示未提供。
// Status 需要区分缺省与显式 null：前者取默认值，后者是非法输入。
type CreateInput struct {
	Title           string           `json:"title"`
	Company         string           `json:"company"`
	Status          Optional[string] `json:"status"`
	ApplicationDate *string `json:"application_date"`
	DeadlineDate    *string `json:"deadline_date"`
	Notes           *string `json:"notes"`
}

// UpdateInput 是部分更新参数，只有出现在请求体中的字段才会被修改。
type UpdateInput struct {
	Title           Optional[string] `json:"title"`
	Company         Optional[string] `json:"company"`
	Status          Optional[string] `json:"status"`
	ApplicationDate Optional[string] `json:"application_date"`
	DeadlineDate    Optional[string] `json:"deadline_date"`
	Notes           Optional[string] `json:"notes"`
}

// MonthlyCount 是某月某状态下的申请数量。
type MonthlyCount struct {
	Month  string
	Status Status
	Count  int64
}

// List 按 application_date 倒序返回调用方的记录。
func (r *Repository) List(ctx context.Context, userID uint, filter ListFilter) ([]database.Job, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if filter.Status != "" && filter.Status != StatusAll {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		cond := fmt.Sprintf("(%s OR %s)", r.containsExpr("title"), r.containsExpr("company"))
		q = q.Where(cond, filter.Search, filter.Search)
	}

	q = q.Order("application_date DESC").Order("id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var jobs []database.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, errcode.Wrap(errcode.Internal, "Error fetching jobs", err)
	}
	return jobs, nil
}

// Get 返回单条记录。
func (r *Repository) Get(ctx context.Context, userID, jobID uint) (*database.Job, error) {
	return r.find(r.db.WithContext(ctx), userID, jobID)
}

// Create 校验输入并新增一条记录。
func (r *Repository) Create(ctx context.Context, userID uint, in CreateInput) (*database.Job, error) {
	if in.Title == "" || in.Company == "" {
		return nil, errcode.New(errcode.InvalidInput, "Job title and company are required")
	}

	status := StatusApplied
	if in.Status.Set {
		s, err := parseStatusField(in.Status)
		if err != nil {
			return nil, err
		}
		status = s
	}

	now := r.now().UTC()
	applicationDate := Today(now)
	if in.ApplicationDate != nil && *in.ApplicationDate != "" {
		d, err := ParseDate(*in.ApplicationDate)
		if err != nil {
			return nil, err
		}
		applicationDate = d
	}

	var deadline *datatypes.Date
	if in.DeadlineDate != nil && *in.DeadlineDate != "" {
		d, err := ParseDate(*in.DeadlineDate)
		if err != nil {
			return nil, err
		}
		deadline = &d
	}

	job := database.Job{
		UserID:          userID,
		Title:           in.Title,
		Company:         in.Company,
		Status:          string(status),
		ApplicationDate: applicationDate,
		DeadlineDate:    deadline,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, errcode.Wrap(errcode.Internal, "Error creating job", err)
	}
	return &job, nil
}

// Update 在单个事务中应用部分更新；任何字段校验失败都不会写入。
func (r *Repository) Update(ctx context.Context, userID, jobID uint, in UpdateInput) (*database.Job, error) {
	var updated *database.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := r.find(tx, userID, jobID)
		if err != nil {
			return err
		}

		changes, err := in.changes()
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			updated = job
			return nil
		}

		now := r.now().UTC()
		if now.Before(job.UpdatedAt) {
			now = job.UpdatedAt
		}
		changes["updated_at"] = now

		if err := tx.Model(&database.Job{}).
			Where("id = ? AND user_id = ?", jobID, userID).
			Updates(changes).Error; err != nil {
			return errcode.Wrap(errcode.Internal, "Error updating job", err)
		}

		updated, err = r.find(tx, userID, jobID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// changes 校验全部字段并生成列更新集合。
// title/company 为空字符串时视为未修改。
func (in UpdateInput) changes() (map[string]any, error) {
	changes := map[string]any{}

	if in.Status.Set {
		s, err := parseStatusField(in.Status)
		if err != nil {
			return nil, err
		}
		changes["status"] = string(s)
	}

	if in.Title.Present() && in.Title.Value != "" {
		changes["title"] = in.Title.Value
	}
	if in.Company.Present() && in.Company.Value != "" {
		changes["company"] = in.Company.Value
	}
	if in.Notes.Set {
		if in.Notes.Null {
			changes["notes"] = nil
		} else {
			changes["notes"] = in.Notes.Value
		}
	}

	if in.ApplicationDate.Present() && in.ApplicationDate.Value != "" {
		d, err := ParseDate(in.ApplicationDate.Value)
		if err != nil {
			return nil, err
		}
		changes["application_date"] = d
	}
	if in.DeadlineDate.Set {
		if in.DeadlineDate.Null || in.DeadlineDate.Value == "" {
			changes["deadline_date"] = nil
		} else {
			d, err := ParseDate(in.DeadlineDate.Value)
			if err != nil {
				return nil, err
			}
			changes["deadline_date"] = d
		}
	}

	return changes, nil
}

// Delete 删除调用方的一条记录。
func (r *Repository) Delete(ctx context.Context, userID, jobID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", jobID, userID).
		Delete(&database.Job{})
	if res.Error != nil {
		return errcode.Wrap(errcode.Internal, "Error deleting job", res.Error)
	}
	if res.RowsAffected == 0 {
		return errJobNotFound
	}
	return nil
}

// CountByStatus 返回每个状态的记录数，缺失的状态计为 0。
func (r *Repository) CountByStatus(ctx context.Context, userID uint) (map[Status]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&database.Job{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, errcode.Wrap(errcode.Internal, "Error counting jobs", err)
	}

	counts := make(map[Status]int64, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[Status(row.Status)] += row.Count
	}
	return counts, nil
}

// DeadlinesBetween 返回截止日期落在 [from, to] 内的记录，按截止日期升序。
func (r *Repository) DeadlinesBetween(ctx context.Context, userID uint, from, to datatypes.Date) ([]database.Job, error) {
	var jobs []database.Job
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND deadline_date IS NOT NULL AND deadline_date >= ? AND deadline_date <= ?", userID, from, to).
		Order("deadline_date ASC").
		Order("id ASC").
		Find(&jobs).Error; err != nil {
		return nil, errcode.Wrap(errcode.Internal, "Error fetching deadlines", err)
	}
	return jobs, nil
}

// MonthlyStatusCounts 统计 since 之后每月每状态的申请数。
// 数据库只按 (application_date, status) 分组，月份折叠在内存中完成，
// 以避免依赖特定方言的日期格式化函数。
func (r *Repository) MonthlyStatusCounts(ctx context.Context, userID uint, since datatypes.Date) ([]MonthlyCount, error) {
	var rows []struct {
		ApplicationDate datatypes.Date
		Status          string
		Count           int64
	}
	if err := r.db.WithContext(ctx).
		Model(&database.Job{}).
		Select("application_date, status, COUNT(*) AS count").
		Where("user_id = ? AND application_date >= ?", userID, since).
		Group("application_date, status").
		Scan(&rows).Error; err != nil {
		return nil, errcode.Wrap(errcode.Internal, "Error aggregating monthly stats", err)
	}

	type key struct {
		month  string
		status Status
	}
	totals := map[key]int64{}
	for _, row := range rows {
		k := key{month: time.Time(row.ApplicationDate).UTC().Format("2006-01"), status: Status(row.Status)}
		totals[k] += row.Count
	}

	out := make([]MonthlyCount, 0, len(totals))
	for k, count := range totals {
		out = append(out, MonthlyCount{Month: k.month, Status: k.status, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return statusRank(out[i].Status) < statusRank(out[j].Status)
	})
	return out, nil
}

// RecentlyUpdated 返回最近更新的 n 条记录。
func (r *Repository) RecentlyUpdated(ctx context.Context, userID uint, n int) ([]database.Job, error) {
	var jobs []database.Job
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		Limit(n).
		Find(&jobs).Error; err != nil {
		return nil, errcode.Wrap(errcode.Internal, "Error fetching recent activity", err)
	}
	return jobs, nil
}

func (r *Repository) find(db *gorm.DB, userID, jobID uint) (*database.Job, error) {
	var job database.Job
	if err := db.Where("id = ? AND user_id = ?", jobID, userID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errJobNotFound
		}
		return nil, errcode.Wrap(errcode.Internal, "Error fetching job", err)
	}
	return &job, nil
}

// containsExpr 生成区分大小写的子串匹配条件。
// LIKE 在 sqlite 中对 ASCII 不区分大小写，且会把 % 与 _ 当作通配符。
func (r *Repository) containsExpr(column string) string {
	if r.db.Dialector.Name() == "sqlite" {
		return "instr(" + column + ", ?) > 0"
	}
	return "strpos(" + column + ", ?) > 0"
}

func statusRank(s Status) int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return len(Statuses)
}
