// Package dashboard 汇总仪表盘所需的用户统计数据，所有读取都经由求职记录仓储。
package dashboard

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"jobtracker/internal/database"
	"jobtracker/internal/jobs"
)

const (
	deadlineWindowDays = 7
	monthlyWindow      = 6
	recentActivitySize = 5

	// 无论修改的是哪个字段，最近动态一律记为状态更新。
	ActivityStatusUpdate = "status_update"
)

// JobReader 是统计所需的仓储读接口。
type JobReader interface {
	CountByStatus(ctx context.Context, userID uint) (map[jobs.Status]int64, error)
	DeadlinesBetween(ctx context.Context, userID uint, from, to datatypes.Date) ([]database.Job, error)
	MonthlyStatusCounts(ctx context.Context, userID uint, since datatypes.Date) ([]jobs.MonthlyCount, error)
	RecentlyUpdated(ctx context.Context, userID uint, n int) ([]database.Job, error)
}

// Deadline 是截止日期落在未来 7 天窗口内的记录。
type Deadline struct {
	Job           database.Job
	DaysRemaining int
}

// Activity 是最近更新的一条记录。
type Activity struct {
	Job  database.Job
	Type string
}

// Stats 是单个用户的仪表盘数据。
type Stats struct {
	Counts   map[jobs.Status]int64
	Total    int64
	Upcoming []Deadline
	// Monthly: "YYYY-MM" -> 各状态数量，没有记录的组合不出现。
	Monthly map[string]map[jobs.Status]int64
	// 月度统计失败时只设置 MonthlyErr，不影响其他字段。
	MonthlyErr error
	Recent     []Activity
}

// Aggregator 基于 JobReader 计算 Stats。
type Aggregator struct {
	jobs JobReader
	now  func() time.Time
}

func NewAggregator(reader JobReader) *Aggregator {
	return &Aggregator{jobs: reader, now: time.Now}
}

// WithClock 返回使用指定时钟的副本，测试用。
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	cp := *a
	cp.now = now
	return &cp
}

// Compute 计算用户的仪表盘数据。
// 月度统计出错写入 Stats.MonthlyErr，其余查询出错直接返回错误。
func (a *Aggregator) Compute(ctx context.Context, userID uint) (*Stats, error) {
	today := jobs.Today(a.now())

	counts, err := a.jobs.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &Stats{Counts: make(map[jobs.Status]int64, len(jobs.Statuses))}
	for _, s := range jobs.Statuses {
		stats.Counts[s] = counts[s]
		stats.Total += counts[s]
	}

	horizon := datatypes.Date(time.Time(today).AddDate(0, 0, deadlineWindowDays))
	upcoming, err := a.jobs.DeadlinesBetween(ctx, userID, today, horizon)
	if err != nil {
		return nil, err
	}
	stats.Upcoming = make([]Deadline, 0, len(upcoming))
	for _, job := range upcoming {
		if job.DeadlineDate == nil {
			continue
		}
		stats.Upcoming = append(stats.Upcoming, Deadline{
			Job:           job,
			DaysRemaining: jobs.DaysBetween(today, *job.DeadlineDate),
		})
	}

	monthly, err := a.jobs.MonthlyStatusCounts(ctx, userID, MonthlyWindowStart(today))
	if err != nil {
		stats.MonthlyErr = err
	} else {
		stats.Monthly = make(map[string]map[jobs.Status]int64)
		for _, mc := range monthly {
			if stats.Monthly[mc.Month] == nil {
				stats.Monthly[mc.Month] = make(map[jobs.Status]int64)
			}
			stats.Monthly[mc.Month][mc.Status] += mc.Count
		}
	}

	recent, err := a.jobs.RecentlyUpdated(ctx, userID, recentActivitySize)
	if err != nil {
		return nil, err
	}
	stats.Recent = make([]Activity, 0, len(recent))
	for _, job := range recent {
		stats.Recent = append(stats.Recent, Activity{Job: job, Type: ActivityStatusUpdate})
	}

	return stats, nil
}

// MonthlyWindowStart 返回六个自然月之前那个月的 1 号。
func MonthlyWindowStart(today datatypes.Date) datatypes.Date {
	y, m, _ := time.Time(today).Date()
	return datatypes.Date(time.Date(y, m-monthlyWindow, 1, 0, 0, 0, 0, time.UTC))
}
